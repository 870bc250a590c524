package http

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boqscope/internal/config"
	"boqscope/internal/services"
	ws "boqscope/internal/websocket"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))
}

// newTestPaths builds a workspace layout under a per-test temp directory.
func newTestPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	dataDir := filepath.Join(base, "data")
	return &config.Paths{
		ExecutableDir: base,
		WebDir:        filepath.Join(base, "web"),
		StaticDir:     filepath.Join(base, "web", "static"),
		DataDir:       dataDir,
		StagingDir:    filepath.Join(dataDir, "staging"),
		ExportsDir:    filepath.Join(dataDir, "exports"),
		LogsDir:       filepath.Join(base, "logs"),
	}
}

func newTestExtractionService(t *testing.T, paths *config.Paths) *services.ExtractionService {
	t.Helper()
	cfg := config.ExtractionConfig{
		MaxArchiveBytes: 1 << 20,
		MaxEntryBytes:   1 << 20,
		MaxEntries:      16,
		Workers:         1,
		JobTTL:          time.Minute,
		SweepAge:        time.Hour,
		PreviewRows:     5,
	}
	svc, err := services.NewExtractionService(cfg, paths, nil, nil, silentLogger())
	require.NoError(t, err)
	return svc
}

func setupHealthRouter(service *services.HealthService) chi.Router {
	handler := NewHealthHandler(service, silentLogger())
	r := chi.NewRouter()
	r.Mount("/api/health", handler.Routes())
	return r
}

func getHealthBody(t *testing.T, router chi.Router, target string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("GET", target, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthHandler_HealthCheck(t *testing.T) {
	service := services.NewHealthServiceWithLogger("1.0.0-test", silentLogger())
	router := setupHealthRouter(service)

	code, body := getHealthBody(t, router, "/api/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.0.0-test", body["version"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestHealthHandler_ReadinessCheck(t *testing.T) {
	t.Run("all dependencies ready", func(t *testing.T) {
		paths := newTestPaths(t)
		extractions := newTestExtractionService(t, paths)
		hub := ws.NewHub(silentLogger())
		service := services.NewHealthService("1.0.0-test", paths, extractions, hub, silentLogger())
		router := setupHealthRouter(service)

		code, body := getHealthBody(t, router, "/api/health/ready")

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ready", body["status"])

		checks := body["services"].(map[string]interface{})
		for _, name := range []string{"websocket", "extractions", "workspace"} {
			check := checks[name].(map[string]interface{})
			assert.Equal(t, "ready", check["status"], "dependency %s", name)
		}
	})

	t.Run("missing dependencies report 503", func(t *testing.T) {
		service := services.NewHealthServiceWithLogger("1.0.0-test", silentLogger())
		router := setupHealthRouter(service)

		code, body := getHealthBody(t, router, "/api/health/ready")

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "not_ready", body["status"])
	})
}

func TestHealthHandler_LivenessCheck(t *testing.T) {
	service := services.NewHealthServiceWithLogger("1.0.0-test", silentLogger())
	router := setupHealthRouter(service)

	code, body := getHealthBody(t, router, "/api/health/live")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alive", body["status"])

	rt := body["runtime"].(map[string]interface{})
	assert.Contains(t, rt, "go_version")
	assert.Contains(t, rt, "goroutines")
}

func TestHealthHandler_DetailedHealth(t *testing.T) {
	paths := newTestPaths(t)
	extractions := newTestExtractionService(t, paths)
	hub := ws.NewHub(silentLogger())
	service := services.NewHealthService("1.0.0-test", paths, extractions, hub, silentLogger())
	router := setupHealthRouter(service)

	code, body := getHealthBody(t, router, "/api/health/details")

	assert.Equal(t, http.StatusOK, code)
	for _, key := range []string{"health", "readiness", "liveness", "stats"} {
		assert.Contains(t, body, key)
	}
}

func TestHealthHandler_Version(t *testing.T) {
	service := services.NewHealthServiceWithLogger("1.0.0-test", silentLogger())
	handler := NewHealthHandler(service, silentLogger())

	req := httptest.NewRequest("GET", "/api/version", nil)
	w := httptest.NewRecorder()
	handler.Version(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "1.0.0-test", body["version"])
	assert.Contains(t, body, "go_version")
	assert.Contains(t, body, "os")
}

func TestNewHealthHandler_NilLogger(t *testing.T) {
	service := services.NewHealthServiceWithLogger("1.0.0-test", silentLogger())
	handler := NewHealthHandler(service, nil)
	assert.NotNil(t, handler)
}
