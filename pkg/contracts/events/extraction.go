// Package events contains the event contract definitions for WebSocket
// communication in the BOQ Scope Extractor.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Core extraction message - the primary event type
	MessageTypeExtractionSnapshot MessageType = "extraction:snapshot"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// Phase identifies the stage an extraction job is in.
type Phase string

const (
	PhaseUpload    Phase = "upload"
	PhaseUnpack    Phase = "unpack"
	PhaseDiscover  Phase = "discover"
	PhaseExtract   Phase = "extract"
	PhaseAggregate Phase = "aggregate"
	PhaseExport    Phase = "export"
	PhaseComplete  Phase = "complete"
	PhaseFailed    Phase = "failed"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// ExtractionSnapshot is the single message type used for extraction
// progress updates. One snapshot describes the whole job state so clients
// never have to reassemble deltas.
type ExtractionSnapshot struct {
	JobID          string     `json:"job_id"`
	Phase          Phase      `json:"phase"`
	Progress       int        `json:"progress"` // 0-100
	FilesTotal     int        `json:"files_total"`
	FilesProcessed int        `json:"files_processed"`
	RowsExtracted  int        `json:"rows_extracted"`
	Diagnostics    int        `json:"diagnostics"`
	Message        string     `json:"message,omitempty"`
	Error          string     `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	BaseMessage
	Data struct {
		Code    string      `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	} `json:"data"`
}
