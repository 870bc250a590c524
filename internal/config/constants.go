package config

import "time"

// Application constants - all hardcoded values for the BOQ scope extractor
const (
	// Application Info
	AppName    = "BOQ Scope Extractor"
	AppVersion = "1.0.0"

	// Archive Intake
	UploadFileName         = "upload.zip"
	DefaultMaxArchiveBytes = 1 << 30   // 1GB
	DefaultMaxEntryBytes   = 256 << 20 // 256MB per archive entry
	DefaultMaxEntries      = 10000

	// Summary Outputs
	SummaryWorkbookName = "BOQ_All_Combined_Summary.xlsx"
	SummaryCSVName      = "BOQ_All_Combined_Summary.csv"
	SummaryDatabaseName = "BOQ_All_Combined_Summary.db"
	SummaryTableName    = "boq_summary"

	// Export Formats
	FormatXLSX   = "xlsx"
	FormatCSV    = "csv"
	FormatSQLite = "sqlite"

	// Rate Limiting
	DefaultRateLimit = 100 // requests per minute
	DefaultBurstSize = 50

	// Network Timeouts
	DefaultHTTPTimeout  = 30 * time.Second
	WebSocketPingPeriod = 30 * time.Second
	WebSocketPongWait   = 60 * time.Second

	// File Paths (relative to executable)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultWebDir     = "web"
	DefaultStagingDir = "data/staging"
	DefaultExportsDir = "data/exports"

	// Operation Timeouts
	DefaultOperationTimeout = 30 * time.Minute
	UnpackTimeout           = 10 * time.Minute
	ExportTimeout           = 5 * time.Minute

	// WebSocket Buffer Sizes
	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	// Log Settings
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "json"
	MaxLogFileSize    = 100 * 1024 * 1024 // 100MB
	MaxLogFileAge     = 30                // days
	MaxLogFileBackups = 10

	// API Endpoints (internal)
	APIBasePath         = "/api"
	ExtractionsEndpoint = "/api/extractions"
	HealthEndpoint      = "/health"
	MetricsEndpoint     = "/metrics"

	// WebSocket Endpoints
	WebSocketEndpoint = "/ws"
)

// Feature Flags - compile-time configuration
const (
	FeatureWebSocketEnabled    = true
	FeatureMetricsEnabled      = true
	FeatureHealthCheckEnabled  = true
	FeatureRateLimitingEnabled = true

	// Development Features
	FeatureDebugLoggingEnabled = false
	FeatureVerboseModeEnabled  = false
)

// GetFeatureFlag returns the value of a feature flag
func GetFeatureFlag(flag string) bool {
	switch flag {
	case "websocket":
		return FeatureWebSocketEnabled
	case "metrics":
		return FeatureMetricsEnabled
	case "health_check":
		return FeatureHealthCheckEnabled
	case "rate_limiting":
		return FeatureRateLimitingEnabled
	case "debug_logging":
		return FeatureDebugLoggingEnabled
	case "verbose_mode":
		return FeatureVerboseModeEnabled
	default:
		return false
	}
}
