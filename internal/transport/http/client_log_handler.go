package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	apierrors "boqscope/internal/errors"
)

// Upload pages report short diagnostic entries; anything bigger is noise
const maxClientLogBytes = 64 << 10

// ClientLogHandler ingests log entries reported by the upload page
type ClientLogHandler struct {
	logger *slog.Logger
}

// NewClientLogHandler creates a new client log handler
func NewClientLogHandler(logger *slog.Logger) *ClientLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClientLogHandler{
		logger: logger.With(slog.String("handler", "client_log")),
	}
}

// ClientLogEntry is one browser-side log record
type ClientLogEntry struct {
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Page    string                 `json:"page,omitempty"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Handle processes POST /api/client-logs
func (h *ClientLogHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxClientLogBytes)

	var entry ClientLogEntry
	if err := render.DecodeJSON(r.Body, &entry); err != nil {
		render.Render(w, r, apierrors.NewValidationError("Invalid log entry format"))
		return
	}
	if entry.Message == "" {
		render.Render(w, r, apierrors.NewValidationError("Log message is required"))
		return
	}

	attrs := []slog.Attr{
		slog.String("source", "browser"),
	}
	if entry.Page != "" {
		attrs = append(attrs, slog.String("page", entry.Page))
	}
	if entry.Context != nil {
		attrs = append(attrs, slog.Any("context", redactContext(entry.Context)))
	}

	h.logger.LogAttrs(r.Context(), clientLogLevel(entry.Level), entry.Message, attrs...)

	render.JSON(w, r, map[string]interface{}{
		"success": true,
	})
}

// Browser pages can echo credentials they saw, so matching context keys
// are masked before the entry reaches the log
var sensitiveContextKeys = []string{"password", "token", "secret", "api_key", "authorization", "cookie"}

func redactContext(ctx map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(ctx))
	for key, value := range ctx {
		out[key] = value
		lower := strings.ToLower(key)
		for _, sensitive := range sensitiveContextKeys {
			if strings.Contains(lower, sensitive) {
				out[key] = "[REDACTED]"
				break
			}
		}
	}
	return out
}

// clientLogLevel maps a reported level to slog, defaulting unknown levels
// to info so entries are never dropped
func clientLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
