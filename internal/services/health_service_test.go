package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boqscope/internal/config"
	ws "boqscope/internal/websocket"
)

// newHealthFixture wires a health service to a real hub, extraction service
// and workspace under a temp directory.
func newHealthFixture(t *testing.T) (*HealthService, *ExtractionService, *ws.Hub, *config.Paths) {
	t.Helper()
	paths := testPaths(t)
	extractions, err := NewExtractionService(testExtractionConfig(), paths, nil, nil, slog.Default())
	require.NoError(t, err)
	hub := ws.NewHub(slog.Default())
	service := NewHealthService("1.0.0", paths, extractions, hub, slog.Default())
	return service, extractions, hub, paths
}

func TestHealthServiceComprehensive(t *testing.T) {
	t.Run("Service_Construction", testHealthServiceConstruction)
	t.Run("Health_Check_Basic", testHealthCheckBasic)
	t.Run("Readiness_Check_Scenarios", testReadinessCheckScenarios)
	t.Run("Liveness_Check", testLivenessCheck)
	t.Run("Version_Information", testVersionInformation)
	t.Run("System_Stats_Collection", testSystemStatsCollection)
	t.Run("Detailed_Health_Report", testDetailedHealthReport)
}

func testHealthServiceConstruction(t *testing.T) {
	tests := []struct {
		name            string
		construct       func(t *testing.T) *HealthService
		validateService func(t *testing.T, service *HealthService)
	}{
		{
			name: "full_construction_with_all_dependencies",
			construct: func(t *testing.T) *HealthService {
				service, _, _, _ := newHealthFixture(t)
				return service
			},
			validateService: func(t *testing.T, service *HealthService) {
				assert.NotNil(t, service)
				assert.Equal(t, "1.0.0", service.version)
				assert.NotNil(t, service.paths)
				assert.NotNil(t, service.extractions)
				assert.NotNil(t, service.webSocketHub)
				assert.NotNil(t, service.logger)
				assert.False(t, service.startTime.IsZero())
			},
		},
		{
			name: "construction_with_build_info",
			construct: func(t *testing.T) *HealthService {
				return NewHealthServiceWithBuildInfo("2.0.0", "2026-08-01T00:00:00Z", "abc123",
					nil, nil, nil, slog.Default())
			},
			validateService: func(t *testing.T, service *HealthService) {
				assert.Equal(t, "2.0.0", service.version)
				assert.Equal(t, "2026-08-01T00:00:00Z", service.buildTime)
				assert.Equal(t, "abc123", service.buildID)
			},
		},
		{
			name: "simplified_construction_with_logger",
			construct: func(t *testing.T) *HealthService {
				return NewHealthServiceWithLogger("1.5.0", slog.Default())
			},
			validateService: func(t *testing.T, service *HealthService) {
				assert.Equal(t, "1.5.0", service.version)
				assert.Nil(t, service.paths)
				assert.Nil(t, service.extractions)
				assert.Nil(t, service.webSocketHub)
				assert.False(t, service.startTime.IsZero())
			},
		},
		{
			name: "construction_with_nil_logger",
			construct: func(t *testing.T) *HealthService {
				return NewHealthServiceWithLogger("1.0.0", nil)
			},
			validateService: func(t *testing.T, service *HealthService) {
				assert.NotNil(t, service.logger)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validateService(t, tt.construct(t))
		})
	}
}

func testHealthCheckBasic(t *testing.T) {
	service := NewHealthServiceWithLogger("1.0.0", slog.Default())

	status := service.HealthCheck(context.Background())

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.0.0", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
}

func testReadinessCheckScenarios(t *testing.T) {
	t.Run("all_dependencies_ready", func(t *testing.T) {
		service, _, _, _ := newHealthFixture(t)

		status := service.ReadinessCheck(context.Background())

		assert.Equal(t, "ready", status.Status)
		require.Contains(t, status.Services, "websocket")
		require.Contains(t, status.Services, "extractions")
		require.Contains(t, status.Services, "workspace")
		for name, svc := range status.Services {
			sh, ok := svc.(ServiceHealth)
			require.True(t, ok, "service %s should report ServiceHealth", name)
			assert.Equal(t, "ready", sh.Status, "service %s", name)
		}
	})

	t.Run("missing_dependencies_not_ready", func(t *testing.T) {
		service := NewHealthServiceWithLogger("1.0.0", slog.Default())

		status := service.ReadinessCheck(context.Background())

		assert.Equal(t, "not_ready", status.Status)
		sh := status.Services["websocket"].(ServiceHealth)
		assert.Equal(t, "not_ready", sh.Status)
	})
}

func testLivenessCheck(t *testing.T) {
	service := NewHealthServiceWithLogger("1.0.0", slog.Default())

	status := service.LivenessCheck(context.Background())

	assert.Equal(t, "alive", status.Status)
	require.NotNil(t, status.Runtime)
	assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
	assert.Greater(t, status.Runtime["goroutines"].(int), 0)
}

func testVersionInformation(t *testing.T) {
	service := NewHealthServiceWithBuildInfo("3.1.0", "2026-08-01T00:00:00Z", "build-42",
		nil, nil, nil, slog.Default())

	info := service.Version()

	assert.Equal(t, "3.1.0", info["version"])
	assert.Equal(t, runtime.Version(), info["go_version"])
	assert.Equal(t, runtime.GOOS, info["os"])
	assert.Equal(t, runtime.GOARCH, info["arch"])
	assert.Equal(t, "2026-08-01T00:00:00Z", info["build_time"])
	assert.Equal(t, "build-42", info["build_id"])
	assert.NotEmpty(t, info["start_time"])
}

func testSystemStatsCollection(t *testing.T) {
	service, _, _, paths := newHealthFixture(t)

	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "note.txt"), []byte("workspace"), 0o644))

	stats, err := service.SystemStats(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, stats.TotalFiles, 1)
	assert.Greater(t, stats.TotalSizeBytes, int64(0))
	assert.Equal(t, 0, stats.WebSocketClients)
	assert.Equal(t, 0, stats.ActiveExtractions)
	assert.Equal(t, 0, stats.StoredJobs)
	assert.Equal(t, runtime.Version(), stats.GoVersion)
	assert.Equal(t, runtime.GOOS, stats.OS)
	assert.Equal(t, runtime.GOARCH, stats.Arch)
	assert.GreaterOrEqual(t, stats.UptimeSeconds, 0.0)
}

func testDetailedHealthReport(t *testing.T) {
	service, _, _, _ := newHealthFixture(t)

	detailed := service.GetDetailedHealth(context.Background())

	require.Contains(t, detailed, "health")
	require.Contains(t, detailed, "readiness")
	require.Contains(t, detailed, "liveness")
	require.Contains(t, detailed, "stats")
	require.Contains(t, detailed, "websocket")

	health, ok := detailed["health"].(HealthStatus)
	require.True(t, ok)
	assert.Equal(t, "ok", health.Status)
}
