package http

import (
	"context"
	"io"

	"boqscope/internal/services"
)

// ExtractionServiceInterface defines the extraction service operations the
// HTTP handler depends on
type ExtractionServiceInterface interface {
	Submit(ctx context.Context, upload io.Reader, filename string) (string, error)
	Status(ctx context.Context, jobID string) (*services.JobStatus, error)
	ExportPath(ctx context.Context, jobID, format string) (string, error)
}
