// Package api contains API contract definitions for the BOQ Scope Extractor.
// Version v1 represents the current stable API version.
package api

import (
	"time"

	"boqscope/pkg/contracts/domain"
	"boqscope/pkg/contracts/events"
)

// ExtractionCreateResponse is returned when an archive upload is accepted.
type ExtractionCreateResponse struct {
	JobID     string    `json:"job_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ExtractionStatusRequest identifies one extraction job.
type ExtractionStatusRequest struct {
	JobID string `json:"job_id" param:"id" validate:"required,uuid"`
}

// ExtractionStatusResponse describes the state of one extraction job.
type ExtractionStatusResponse struct {
	JobID          string              `json:"job_id"`
	Phase          events.Phase        `json:"phase"`
	Progress       int                 `json:"progress"`
	FilesTotal     int                 `json:"files_total"`
	FilesProcessed int                 `json:"files_processed"`
	RowsExtracted  int                 `json:"rows_extracted"`
	Message        string              `json:"message,omitempty"`
	Error          string              `json:"error,omitempty"`
	Diagnostics    []domain.Diagnostic `json:"diagnostics,omitempty"`
	Preview        []domain.SummaryRow `json:"preview,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
}

// ExtractionDownloadRequest requests an export of a completed job.
type ExtractionDownloadRequest struct {
	JobID  string `json:"job_id" param:"id" validate:"required,uuid"`
	Format string `json:"format" query:"format" validate:"omitempty,oneof=xlsx csv sqlite"`
}

// HealthCheckRequest represents a health check request
type HealthCheckRequest struct {
	Verbose bool `json:"verbose" query:"verbose"`
}
