package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"boqscope/internal/config"
	"boqscope/internal/infrastructure"
	ws "boqscope/internal/websocket"
)

// WebSocketHandler upgrades HTTP requests to WebSocket connections and
// registers clients with the progress hub
type WebSocketHandler struct {
	hub            *ws.Hub
	cfg            config.WebSocketConfig
	allowedOrigins []string
	logger         *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket upgrade handler
func NewWebSocketHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	if hub == nil {
		panic("hub cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &WebSocketHandler{
		hub:            hub,
		cfg:            cfg,
		allowedOrigins: allowedOrigins,
		logger:         logger.With(slog.String("handler", "websocket")),
	}
}

// ServeWS handles GET /ws
func (h *WebSocketHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := infrastructure.EnsureTraceID(r.Context())
	traceID := infrastructure.GetTraceID(ctx)

	h.logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("host", r.Host))

	upgrader := websocket.Upgrader{
		ReadBufferSize:  h.cfg.ReadBufferSize,
		WriteBufferSize: h.cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader's Error hook already wrote the response
		h.logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()))
		return
	}

	client := ws.NewClientWithTrace(h.hub, conn, traceID, h.logger)
	client.SetKeepalive(h.cfg.PingPeriod, h.cfg.PongWait)
	h.hub.Register(client)

	h.logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(ctx, "WebSocket write pump panic",
					slog.Any("panic", rec),
					slog.String("client_id", client.ID()))
			}
		}()
		client.WritePump()
	}()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.ErrorContext(ctx, "WebSocket read pump panic",
					slog.Any("panic", rec),
					slog.String("client_id", client.ID()))
			}
		}()
		client.ReadPump()
	}()
}

// checkOrigin validates the Origin header against the configured allow list.
// Requests without an Origin header (CLI tools, same-origin pages loaded from
// file://) are accepted.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	h.logger.Warn("WebSocket origin rejected",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}
