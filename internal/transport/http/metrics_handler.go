package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	ws "boqscope/internal/websocket"
)

// JobCounter reports extraction job counts for the metrics endpoint
type JobCounter interface {
	ActiveJobs() int
	JobCount() int
}

// MetricsHandler exposes hub and job counters as JSON. Prometheus scraping
// uses the separate /metrics endpoint; this one feeds the UI status panel.
type MetricsHandler struct {
	hub         *ws.Hub
	extractions JobCounter
}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler(hub *ws.Hub, extractions JobCounter) *MetricsHandler {
	return &MetricsHandler{
		hub:         hub,
		extractions: extractions,
	}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetMetrics)
	return r
}

// GetMetrics returns a point-in-time snapshot of runtime counters
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"websocket": ws.GetMetrics().GetSnapshot(),
	}

	if h.hub != nil {
		response["hub"] = h.hub.GetHubMetrics()
	}
	if h.extractions != nil {
		response["extractions"] = map[string]interface{}{
			"active_jobs": h.extractions.ActiveJobs(),
			"stored_jobs": h.extractions.JobCount(),
		}
	}

	render.JSON(w, r, response)
}
