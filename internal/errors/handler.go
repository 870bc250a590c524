package errors

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// ErrorHandler is the error boundary for request-scoped failures that do
// not come from the extraction service (those go through MapExtractionError).
// It turns any error into an RFC 7807 problem response and logs it once.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack attaches a stack
// extension to responses and belongs in development configs only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes it as a problem response.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("remote_addr", r.RemoteAddr),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", reqID)

	if h.includeStack {
		problem.WithExtension("stack", currentStack())
	}

	render.Render(w, r, problem)
}

// ErrorToProblem classifies an error into a problem response. APIError
// carries its own status and code; everything else falls into a small set
// of generic problems.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			"/errors/timeout",
			"Request Timeout",
			"The request took too long to process and was cancelled.",
			r.URL.Path,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, r)
	}

	// Export artifacts can disappear between status and download
	if errors.Is(err, fs.ErrNotExist) {
		return NewProblemDetails(
			http.StatusNotFound,
			"/errors/not-found",
			"Resource Not Found",
			err.Error(),
			r.URL.Path,
		)
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		"/errors/internal-error",
		"Internal Server Error",
		"An unexpected error occurred while processing your request.",
		r.URL.Path,
	)
}

// apiErrorToProblem maps the error codes the request validators emit onto
// problem types. Unknown codes keep the APIError's status under the
// internal-error type.
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := "/errors/internal-error"
	switch apiErr.ErrorCode {
	case "VALIDATION_FAILED":
		problemType = "/errors/validation-failed"
	case "INVALID_REQUEST", "INVALID_JSON":
		problemType = "/errors/invalid-request"
	case "MISSING_CONTENT_TYPE", "UNSUPPORTED_MEDIA_TYPE":
		problemType = "/errors/unsupported-media-type"
	case "PAYLOAD_TOO_LARGE":
		problemType = "/errors/payload-too-large"
	case "NOT_FOUND":
		problemType = "/errors/not-found"
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		apiErr.Message,
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// NotFound is the router's fallback for unmatched API paths.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		"/errors/not-found",
		"Not Found",
		"The requested resource was not found.",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

// MethodNotAllowed is the router's fallback for known paths hit with the
// wrong verb.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		"/errors/method-not-allowed",
		"Method Not Allowed",
		"Method "+r.Method+" is not allowed for this endpoint.",
		r.URL.Path,
	).WithExtension("trace_id", middleware.GetReqID(r.Context()))

	render.Render(w, r, problem)
}

func currentStack() string {
	buf := make([]byte, 8<<10)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
