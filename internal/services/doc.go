// Package services implements the business logic layer of the BOQ Scope
// Extractor. It provides a clean separation between HTTP handlers and the
// extraction pipeline, ensuring that job lifecycle rules are centralized
// and testable.
//
// # Architecture
//
// Services follow these architectural principles:
//
//	1. Interface-driven design for testability
//	2. Context propagation for cancellation and tracing
//	3. Dependency injection for loose coupling
//	4. Cross-cutting concerns (logging, metrics) handled once per job
//
// # Available Services
//
// The package provides these core services:
//
//	- ExtractionService: owns the extraction job store, runs the archive
//	  pipeline (unpack, discover, extract, aggregate, export) and
//	  broadcasts progress snapshots
//	- HealthService: provides readiness, liveness and system statistics
//
// # Error Handling
//
// Services return the sentinel errors defined in internal/errors
// (ErrJobNotFound, ErrJobStillRunning, ErrUnknownFormat and friends) so
// handlers can map them to RFC 7807 problem responses with
// errors.MapExtractionError.
//
// # Testing
//
// Services are tested against real fixture archives built with
// internal/shared/testutil and a recording ProgressBroadcaster:
//
//	broadcaster := &recordingBroadcaster{}
//	service, err := NewExtractionService(cfg, paths, broadcaster, nil, logger)
//
//	jobID, err := service.Submit(ctx, archive, "upload.zip")
//	// poll Status until the job reaches a terminal phase
package services
