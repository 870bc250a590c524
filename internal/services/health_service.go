package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"boqscope/internal/config"
	"boqscope/internal/validation"
	ws "boqscope/internal/websocket"
)

// HealthService provides health check functionality
type HealthService struct {
	version      string
	buildTime    string
	buildID      string
	paths        *config.Paths
	extractions  *ExtractionService
	webSocketHub *ws.Hub
	validator    *validation.FileValidator
	startTime    time.Time
	logger       *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds     float64 `json:"uptime_seconds"`
	TotalFiles        int     `json:"total_files"`
	TotalSizeBytes    int64   `json:"total_size_bytes"`
	WebSocketClients  int     `json:"websocket_clients"`
	ActiveExtractions int     `json:"active_extractions"`
	StoredJobs        int     `json:"stored_jobs"`
	GoVersion         string  `json:"go_version"`
	OS                string  `json:"os"`
	Arch              string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies
func NewHealthService(version string, paths *config.Paths, extractions *ExtractionService, webSocketHub *ws.Hub, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, "", "", paths, extractions, webSocketHub, logger)
}

// NewHealthServiceWithBuildInfo creates a new health service with build information
func NewHealthServiceWithBuildInfo(version, buildTime, buildID string, paths *config.Paths, extractions *ExtractionService, webSocketHub *ws.Hub, logger *slog.Logger) *HealthService {
	// Ensure we have a logger
	if logger == nil {
		logger = slog.Default()
	}

	// Log service initialization
	logger.Info("HealthService initialized with full dependencies",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:      version,
		buildTime:    buildTime,
		buildID:      buildID,
		paths:        paths,
		extractions:  extractions,
		webSocketHub: webSocketHub,
		validator:    validation.NewFileValidator(logger),
		startTime:    time.Now(),
		logger:       logger,
	}
}

// NewHealthServiceWithLogger creates a new health service with a specific logger (simplified constructor for test)
func NewHealthServiceWithLogger(version string, logger *slog.Logger) *HealthService {
	// Ensure we have a logger
	if logger == nil {
		logger = slog.Default()
	}

	// Log service initialization
	logger.Info("HealthService initialized",
		slog.String("version", version))

	return &HealthService{
		version:   version,
		validator: validation.NewFileValidator(logger),
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	// Log health check operation
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	// Log the result
	hs.logger.Info("HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Time("timestamp", status.Timestamp))

	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	// Check individual services
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["extractions"] = hs.checkExtractionHealth()
	status.Services["workspace"] = hs.checkWorkspaceHealth()

	// Determine overall readiness
	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}

	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	// Include build info if available
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}

	if hs.paths != nil {
		files, size := countWorkspaceFiles(hs.paths.DataDir)
		stats.TotalFiles = files
		stats.TotalSizeBytes = size
	}
	if hs.webSocketHub != nil {
		stats.WebSocketClients = hs.webSocketHub.ClientCount()
	}
	if hs.extractions != nil {
		stats.ActiveExtractions = hs.extractions.ActiveJobs()
		stats.StoredJobs = hs.extractions.JobCount()
	}

	return stats, nil
}

// countWorkspaceFiles walks the data directory and totals files and bytes.
func countWorkspaceFiles(dataDir string) (int, int64) {
	var totalFiles int
	var totalSize int64

	filepath.Walk(dataDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			totalFiles++
			totalSize += info.Size()
		}
		return nil
	})

	return totalFiles, totalSize
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.webSocketHub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "WebSocket hub not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("WebSocket hub serving %d clients", hs.webSocketHub.ClientCount()),
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkExtractionHealth checks extraction job service health
func (hs *HealthService) checkExtractionHealth() ServiceHealth {
	if hs.extractions == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "Extraction service not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("Extraction service tracking %d jobs", hs.extractions.JobCount()),
	}
}

// checkWorkspaceHealth checks that the staging and export directories are writable
func (hs *HealthService) checkWorkspaceHealth() ServiceHealth {
	if hs.paths == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "Workspace paths not configured",
		}
	}

	for _, dir := range []string{hs.paths.StagingDir, hs.paths.ExportsDir} {
		if err := hs.validator.ValidateOutputDirectory(dir); err != nil {
			return ServiceHealth{
				Status:  "not_ready",
				Message: fmt.Sprintf("Workspace directory not writable: %v", err),
			}
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "Workspace directories are writable",
	}
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	detailed := map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}

	if hs.webSocketHub != nil {
		detailed["websocket"] = hs.webSocketHub.GetHubMetrics()
	}

	return detailed
}
