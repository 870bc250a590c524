package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"boqscope/internal/archive"
	"boqscope/internal/config"
	apierrors "boqscope/internal/errors"
	"boqscope/internal/infrastructure"
	"boqscope/internal/middleware"
	api "boqscope/pkg/contracts/api/v1"
)

const (
	// Memory threshold for multipart parsing before spilling to disk
	multipartMemoryLimit = 32 << 20

	// Extra room beyond the archive limit for multipart boundaries and fields
	multipartOverhead = 1 << 20

	uploadTimeout = 5 * time.Minute
	statusTimeout = 10 * time.Second
)

// ExtractionHandler handles extraction job HTTP requests
type ExtractionHandler struct {
	service        ExtractionServiceInterface
	maxUploadBytes int64
	logger         *slog.Logger
	params         *middleware.QueryParamValidator
}

// NewExtractionHandler creates a new extraction handler
func NewExtractionHandler(service ExtractionServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExtractionHandler {
	if service == nil {
		panic("service cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if errorHandler == nil {
		errorHandler = apierrors.NewErrorHandler(logger, false)
	}

	return &ExtractionHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("handler", "extractions")),
		params:         middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns a chi router for extraction endpoints
func (h *ExtractionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	// The download route carries no timeout middleware so large exports can
	// stream at the client's pace
	r.With(middleware.Timeout(uploadTimeout, h.logger)).Post("/", h.CreateExtraction)
	r.With(middleware.Timeout(statusTimeout, h.logger)).Get("/{id}", h.GetExtractionStatus)
	r.Get("/{id}/download", h.DownloadExtraction)

	return r
}

// CreateExtraction handles POST /api/extractions
func (h *ExtractionHandler) CreateExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("extraction-handler")

	ctx, span := tracer.Start(ctx, "extraction_handler.create",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/extractions"),
			attribute.String("request_id", reqID),
			attribute.String("component", "extraction_handler"),
		),
	)
	defer span.End()

	h.logger.InfoContext(ctx, "archive upload request",
		slog.String("request_id", reqID),
		slog.String("trace_id", infrastructure.GetTraceID(ctx)),
		slog.Int64("content_length", r.ContentLength))

	// Reject oversized bodies before buffering the multipart form
	bodyLimit := h.maxUploadBytes + multipartOverhead
	if r.ContentLength > bodyLimit {
		span.SetAttributes(attribute.String("error.type", "archive_too_large"))
		middleware.RecordArchiveRejection(ctx, "too_large")
		h.renderError(w, r, span, fmt.Errorf("upload of %d bytes exceeds limit: %w",
			r.ContentLength, archive.ErrArchiveTooLarge))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			span.SetAttributes(attribute.String("error.type", "archive_too_large"))
			middleware.RecordArchiveRejection(ctx, "too_large")
			h.renderError(w, r, span, fmt.Errorf("upload exceeds %d bytes: %w",
				h.maxUploadBytes, archive.ErrArchiveTooLarge))
			return
		}

		span.SetAttributes(attribute.String("error.type", "malformed_form"))
		middleware.RecordArchiveRejection(ctx, "malformed_form")
		h.renderError(w, r, span, fmt.Errorf("parse multipart form: %w", apierrors.ErrUploadMissing))
		return
	}

	file, header, err := r.FormFile("archive")
	if err != nil {
		span.SetAttributes(attribute.String("error.type", "missing_field"))
		middleware.RecordArchiveRejection(ctx, "missing_field")
		h.renderError(w, r, span, fmt.Errorf("form field 'archive': %w", apierrors.ErrUploadMissing))
		return
	}
	defer file.Close()

	span.SetAttributes(
		attribute.String("upload.filename", header.Filename),
		attribute.Int64("upload.size_bytes", header.Size),
	)

	jobID, err := h.service.Submit(ctx, file, header.Filename)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "archive upload rejected")
		middleware.RecordArchiveRejection(ctx, rejectionReason(err))

		h.logger.ErrorContext(ctx, "archive upload rejected",
			slog.String("filename", header.Filename),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, span, err)
		return
	}

	span.SetAttributes(attribute.String("extraction.job_id", jobID))

	h.logger.InfoContext(ctx, "extraction job accepted",
		slog.String("job_id", jobID),
		slog.String("filename", header.Filename),
		slog.Int64("size_bytes", header.Size),
		slog.String("request_id", reqID))

	w.Header().Set("Location", "/api/extractions/"+jobID)
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.ExtractionCreateResponse{
		JobID:     jobID,
		Status:    "accepted",
		CreatedAt: time.Now().UTC(),
	})
}

// GetExtractionStatus handles GET /api/extractions/{id}
func (h *ExtractionHandler) GetExtractionStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("extraction-handler")

	ctx, span := tracer.Start(ctx, "extraction_handler.status",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/extractions/{id}"),
			attribute.String("extraction.job_id", jobID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	h.logger.DebugContext(ctx, "extraction status request",
		slog.String("job_id", jobID),
		slog.String("request_id", reqID))

	status, err := h.service.Status(ctx, jobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get extraction status",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, span, err)
		return
	}

	span.SetAttributes(
		attribute.String("extraction.phase", string(status.Phase)),
		attribute.Int("extraction.progress", status.Progress),
	)

	render.JSON(w, r, api.ExtractionStatusResponse{
		JobID:          status.JobID,
		Phase:          status.Phase,
		Progress:       status.Progress,
		FilesTotal:     status.FilesTotal,
		FilesProcessed: status.FilesProcessed,
		RowsExtracted:  status.RowsExtracted,
		Message:        status.Message,
		Error:          status.Error,
		Diagnostics:    status.FileDiagnostics,
		Preview:        status.Preview,
		CreatedAt:      status.StartedAt,
		CompletedAt:    status.CompletedAt,
	})
}

// DownloadExtraction handles GET /api/extractions/{id}/download
func (h *ExtractionHandler) DownloadExtraction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	jobID := chi.URLParam(r, "id")
	reqID := middleware.GetRequestID(ctx)
	tracer := otel.Tracer("extraction-handler")

	ctx, span := tracer.Start(ctx, "extraction_handler.download",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", "/api/extractions/{id}/download"),
			attribute.String("extraction.job_id", jobID),
			attribute.String("request_id", reqID),
		),
	)
	defer span.End()

	format, ok := h.params.ValidateEnum(w, r, "format",
		[]string{config.FormatXLSX, config.FormatCSV, config.FormatSQLite}, config.FormatXLSX)
	if !ok {
		span.SetAttributes(attribute.String("error.type", "invalid_format"))
		return
	}
	span.SetAttributes(attribute.String("export.format", format))

	path, err := h.service.ExportPath(ctx, jobID, format)
	if err != nil {
		h.logger.ErrorContext(ctx, "export not available",
			slog.String("job_id", jobID),
			slog.String("format", format),
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))

		h.renderError(w, r, span, err)
		return
	}

	filename := config.SummaryFileName(format)
	middleware.RecordExportDownload(ctx, format)

	h.logger.InfoContext(ctx, "streaming export",
		slog.String("job_id", jobID),
		slog.String("format", format),
		slog.String("filename", filename),
		slog.String("request_id", reqID))

	w.Header().Set("Content-Type", exportContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	http.ServeFile(w, r, path)
}

// renderError maps service and archive errors to RFC 7807 problem responses
func (h *ExtractionHandler) renderError(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	span.RecordError(err)

	render.Render(w, r, apierrors.MapExtractionError(err, traceID))
}

// rejectionReason classifies a Submit error for the archive rejection metric
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, archive.ErrArchiveTooLarge):
		return "too_large"
	case errors.Is(err, archive.ErrInvalidArchive):
		return "invalid_archive"
	case errors.Is(err, apierrors.ErrUploadMissing):
		return "missing_field"
	default:
		return "error"
	}
}

// exportContentType returns the MIME type for an export format
func exportContentType(format string) string {
	switch format {
	case config.FormatCSV:
		return "text/csv; charset=utf-8"
	case config.FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}
