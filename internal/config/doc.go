// Package config provides centralized configuration management for the BOQ
// scope extractor. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration
// values throughout the application.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. Configuration files (YAML)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern BOQ_* for namespacing:
//
//	BOQ_SERVER_PORT=8080
//	BOQ_LOGGING_LEVEL=info
//	BOQ_EXTRACTION_MAX_ARCHIVE_BYTES=1073741824
//	BOQ_EXTRACTION_WORKERS=4
//
// # Configuration Structure
//
// The main configuration struct groups settings by concern:
//
//	type Config struct {
//	    Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
//	    Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
//	    Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
//	    Paths      PathsConfig      `yaml:"paths" envconfig:"PATHS"`
//	    WebSocket  WebSocketConfig  `yaml:"websocket" envconfig:"WEBSOCKET"`
//	    Extraction ExtractionConfig `yaml:"extraction" envconfig:"EXTRACTION"`
//	}
//
// # Path Management
//
// The package provides centralized path management through the Paths type,
// which handles all file system paths relative to the executable location:
//
//	paths, _ := config.GetPaths()
//	staging := paths.GetStagingPath(jobID)
//	summary := paths.GetSummaryExportPath(jobID, "xlsx")
//
// # Validation
//
// All configuration is validated at load time to ensure:
//
//	- Required fields are present
//	- Values are within acceptable ranges
//	- Archive size ceilings are consistent
//	- Workspace directories are accessible
//
// # Usage
//
// Load configuration at application startup:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Testing
//
// For testing, use config.Default() to create a configuration with sensible
// defaults that don't require environment variables or external resources.
package config
