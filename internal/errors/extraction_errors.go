package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"boqscope/internal/archive"
)

// Extraction job sentinel errors returned by the service layer
var (
	ErrJobNotFound     = errors.New("extraction job not found")
	ErrJobNotFinished  = errors.New("extraction job not finished")
	ErrJobStillRunning = errors.New("extraction job still running")
	ErrUploadMissing   = errors.New("upload missing")
	ErrUnknownFormat   = errors.New("unknown export format")
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	// Add standard fields
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	// Add extensions
	for k, v := range pd.Extensions {
		data[k] = v
	}

	// Use standard JSON marshaling
	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapExtractionError maps extraction and archive domain errors to HTTP
// problem details. Handlers call this for any error the service returns.
func MapExtractionError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/extractions#trace-%s", traceID)

	switch {
	case errors.Is(err, ErrJobNotFound):
		return NewProblemDetails(
			http.StatusNotFound,
			"/errors/extraction-not-found",
			"Extraction Job Not Found",
			"No extraction job exists with the given id.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "EXTRACTION_NOT_FOUND")

	case errors.Is(err, ErrJobNotFinished), errors.Is(err, ErrJobStillRunning):
		return NewProblemDetails(
			http.StatusConflict,
			"/errors/extraction-still-running",
			"Extraction Still Running",
			"The extraction job has not finished yet. Poll its status or subscribe to progress events.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "EXTRACTION_STILL_RUNNING")

	case errors.Is(err, ErrUploadMissing):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/upload-missing",
			"Upload Missing",
			"The request must include a ZIP archive in the 'archive' form field.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "UPLOAD_MISSING")

	case errors.Is(err, ErrUnknownFormat):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/unknown-export-format",
			"Unknown Export Format",
			"Supported export formats are xlsx, csv and sqlite.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "UNKNOWN_EXPORT_FORMAT").
			WithExtension("supported_formats", []string{"xlsx", "csv", "sqlite"})

	case errors.Is(err, archive.ErrArchiveTooLarge):
		return NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			"/errors/archive-too-large",
			"Archive Too Large",
			"The uploaded archive exceeds the configured size limit.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ARCHIVE_TOO_LARGE")

	case errors.Is(err, archive.ErrEntryTooLarge), errors.Is(err, archive.ErrDecompressedTooLarge):
		return NewProblemDetails(
			http.StatusRequestEntityTooLarge,
			"/errors/archive-expands-too-large",
			"Archive Expands Too Large",
			"The archive decompresses beyond the configured limits.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ARCHIVE_EXPANDS_TOO_LARGE")

	case errors.Is(err, archive.ErrTooManyEntries):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/archive-too-many-entries",
			"Too Many Archive Entries",
			"The archive contains more entries than the configured limit.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ARCHIVE_TOO_MANY_ENTRIES")

	case errors.Is(err, archive.ErrUnsafePath):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/archive-unsafe-path",
			"Unsafe Archive Path",
			"The archive contains entries that would escape the extraction directory.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ARCHIVE_UNSAFE_PATH")

	case errors.Is(err, archive.ErrInvalidArchive):
		return NewProblemDetails(
			http.StatusBadRequest,
			"/errors/invalid-archive",
			"Invalid Archive",
			"The uploaded file is not a readable ZIP archive.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_ARCHIVE")

	default:
		// Generic error
		return NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/internal-error",
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
