// Package http implements HTTP request handlers for the BOQ scope extractor
// web service. It provides a thin layer between HTTP transport and business
// logic, keeping handlers focused solely on HTTP concerns.
//
// # Architecture Principles
//
// Handlers in this package follow these principles:
//
//	1. Thin handlers - minimal logic, delegate to services
//	2. HTTP-only concerns - request parsing, response formatting
//	3. Error transformation - convert service errors to HTTP responses
//	4. No business logic - all logic belongs in the service layer
//	5. Consistent patterns - standardized request/response handling
//
// # Request Flow
//
// A typical request flows through these layers:
//
//	HTTP Request → Chi Router → Middleware → Handler → ExtractionService
//	                                              ↓
//	HTTP Response ← Handler ← Service Response ←─┘
//
// # Handler Surface
//
// ExtractionHandler owns the extraction job lifecycle:
//
//	POST /api/extractions                     multipart archive upload, 202 + job id
//	GET  /api/extractions/{id}                job status with preview and diagnostics
//	GET  /api/extractions/{id}/download       export stream (?format=xlsx|csv|sqlite)
//
// HealthHandler exposes health, readiness, liveness and version endpoints.
// WebSocketHandler upgrades /ws connections and registers clients with the
// progress hub. MetricsHandler serves JSON counter snapshots for the UI;
// Prometheus scraping uses the separate /metrics endpoint mounted by the app.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details. Service and archive errors are
// mapped centrally by errors.MapExtractionError:
//
//	{
//	    "type": "/errors/extraction-not-found",
//	    "title": "Extraction Job Not Found",
//	    "status": 404,
//	    "detail": "No extraction job exists with the given id.",
//	    "trace_id": "a1b2c3"
//	}
//
// # WebSocket Support
//
// The WebSocket handler uses Gorilla WebSocket and follows this pattern:
//
//	- Validate the Origin header against the configured allow list
//	- Upgrade the HTTP connection
//	- Register the client with the hub
//	- Run read and write pumps in separate goroutines
//	- Clean up on disconnect
//
// # Testing
//
// Handlers are tested using httptest with mocked service dependencies,
// verifying status codes, response shapes and RFC 7807 error payloads.
package http
