package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad tests the Load function with various scenarios
func TestLoad(t *testing.T) {
	// Save original environment to restore later
	originalEnv := make(map[string]string)
	envVars := []string{
		"BOQ_SERVER_PORT", "BOQ_SERVER_READ_TIMEOUT", "BOQ_SERVER_WRITE_TIMEOUT",
		"BOQ_SECURITY_ALLOWED_ORIGINS", "BOQ_SECURITY_ENABLE_CORS",
		"BOQ_LOGGING_LEVEL", "BOQ_LOGGING_FORMAT", "BOQ_LOGGING_OUTPUT",
		"BOQ_PATHS_DATA_DIR", "BOQ_PATHS_WEB_DIR", "BOQ_PATHS_LOGS_DIR",
		"BOQ_WEBSOCKET_READ_BUFFER_SIZE", "BOQ_WEBSOCKET_WRITE_BUFFER_SIZE",
		"BOQ_EXTRACTION_MAX_ARCHIVE_BYTES", "BOQ_EXTRACTION_MAX_ENTRY_BYTES",
		"BOQ_EXTRACTION_MAX_ENTRIES", "BOQ_EXTRACTION_WORKERS",
		"BOQ_EXTRACTION_JOB_TTL", "BOQ_EXTRACTION_PREVIEW_ROWS",
	}

	// Save original values
	for _, envVar := range envVars {
		originalEnv[envVar] = os.Getenv(envVar)
	}

	// Clean up environment variables
	defer func() {
		for _, envVar := range envVars {
			if val, exists := originalEnv[envVar]; exists && val != "" {
				os.Setenv(envVar, val)
			} else {
				os.Unsetenv(envVar)
			}
		}
	}()

	tests := []struct {
		name        string
		setupEnv    func()
		setupFile   func() string // returns temp file path
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "default configuration with no env vars",
			setupEnv: func() {
				for _, envVar := range envVars {
					os.Unsetenv(envVar)
				}
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				// Verify default values
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
				assert.Equal(t, 1048576, cfg.Server.MaxHeaderBytes)
				assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
				assert.Equal(t, 30*time.Minute, cfg.Server.OperationTimeout)

				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.EnableCORS)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, 100.0, cfg.Security.RateLimit.RPS)
				assert.Equal(t, 50, cfg.Security.RateLimit.Burst)

				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
				assert.True(t, cfg.Logging.Development)

				assert.Equal(t, "data", cfg.Paths.DataDir)
				assert.Equal(t, "web", cfg.Paths.WebDir)
				assert.Equal(t, "logs", cfg.Paths.LogsDir)

				assert.Equal(t, 1024, cfg.WebSocket.ReadBufferSize)
				assert.Equal(t, 1024, cfg.WebSocket.WriteBufferSize)
				assert.Equal(t, 30*time.Second, cfg.WebSocket.PingPeriod)
				assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)

				assert.Equal(t, int64(1<<30), cfg.Extraction.MaxArchiveBytes)
				assert.Equal(t, int64(256<<20), cfg.Extraction.MaxEntryBytes)
				assert.Equal(t, 10000, cfg.Extraction.MaxEntries)
				assert.Equal(t, 4, cfg.Extraction.Workers)
				assert.Equal(t, 2*time.Hour, cfg.Extraction.JobTTL)
				assert.Equal(t, 24*time.Hour, cfg.Extraction.SweepAge)
				assert.Equal(t, 50, cfg.Extraction.PreviewRows)
			},
		},
		{
			name: "custom environment variables",
			setupEnv: func() {
				os.Setenv("BOQ_SERVER_PORT", "9090")
				os.Setenv("BOQ_SERVER_READ_TIMEOUT", "30s")
				os.Setenv("BOQ_SECURITY_ALLOWED_ORIGINS", "http://example.com,https://example.com")
				os.Setenv("BOQ_SECURITY_ENABLE_CORS", "false")
				os.Setenv("BOQ_LOGGING_LEVEL", "debug")
				os.Setenv("BOQ_LOGGING_FORMAT", "text")
				os.Setenv("BOQ_EXTRACTION_WORKERS", "8")
				os.Setenv("BOQ_EXTRACTION_JOB_TTL", "45m")
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://example.com", "https://example.com"}, cfg.Security.AllowedOrigins)
				assert.False(t, cfg.Security.EnableCORS)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format) // validate() should force this to json
				assert.Equal(t, 8, cfg.Extraction.Workers)
				assert.Equal(t, 45*time.Minute, cfg.Extraction.JobTTL)
			},
		},
		{
			name: "invalid port number",
			setupEnv: func() {
				os.Setenv("BOQ_SERVER_PORT", "99999")
			},
			wantErr: true,
		},
		{
			name: "zero port number",
			setupEnv: func() {
				os.Setenv("BOQ_SERVER_PORT", "0")
			},
			wantErr: true,
		},
		{
			name: "negative timeout",
			setupEnv: func() {
				os.Setenv("BOQ_SERVER_READ_TIMEOUT", "-5s")
			},
			wantErr: true,
		},
		{
			name: "empty allowed origins",
			setupEnv: func() {
				os.Setenv("BOQ_SECURITY_ALLOWED_ORIGINS", "")
			},
			wantErr: true,
		},
		{
			name: "zero extraction workers",
			setupEnv: func() {
				os.Setenv("BOQ_EXTRACTION_WORKERS", "0")
			},
			wantErr: true,
		},
		{
			name: "entry ceiling above archive ceiling",
			setupEnv: func() {
				os.Setenv("BOQ_EXTRACTION_MAX_ARCHIVE_BYTES", "1024")
				os.Setenv("BOQ_EXTRACTION_MAX_ENTRY_BYTES", "2048")
			},
			wantErr: true,
		},
		{
			name: "config file with environment override",
			setupEnv: func() {
				// Set some env vars that should override file
				os.Setenv("BOQ_SERVER_PORT", "7070")
				os.Setenv("BOQ_LOGGING_LEVEL", "warn")
			},
			setupFile: func() string {
				tempDir := t.TempDir()
				configFile := filepath.Join(tempDir, "config.yaml")
				configContent := `
server:
  port: 6060
  read_timeout: 20s
logging:
  level: error
  format: json
security:
  allowed_origins: ["http://file.example.com"]
`
				require.NoError(t, os.WriteFile(configFile, []byte(configContent), 0644))
				// Change to temp directory so config file is found
				originalDir, _ := os.Getwd()
				os.Chdir(tempDir)
				t.Cleanup(func() { os.Chdir(originalDir) })
				return configFile
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				// Environment should override file
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Logging.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clean environment first
			for _, envVar := range envVars {
				os.Unsetenv(envVar)
			}

			if tt.setupEnv != nil {
				tt.setupEnv()
			}

			if tt.setupFile != nil {
				_ = tt.setupFile()
			}

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

// TestLoadFromFile tests the loadFromFile function
func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "valid YAML config",
			fileContent: `
server:
  port: 9090
  read_timeout: 25s
logging:
  level: debug
extraction:
  workers: 6
  max_entries: 500
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 25*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 6, cfg.Extraction.Workers)
				assert.Equal(t, 500, cfg.Extraction.MaxEntries)
			},
		},
		{
			name:        "invalid YAML",
			fileContent: "server:\n  port: [not a number",
			wantErr:     true,
		},
		{
			name:        "empty file",
			fileContent: "",
			validateCfg: func(t *testing.T, cfg *Config) {
				// Empty file yields zero values, defaults applied later
				assert.Equal(t, 0, cfg.Server.Port)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			configFile := filepath.Join(tempDir, "config.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))

			cfg, err := loadFromFile(configFile)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := loadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// TestMergeConfigs verifies env values take precedence over file values
func TestMergeConfigs(t *testing.T) {
	fileConfig := Config{
		Server: ServerConfig{
			Port:        6060,
			ReadTimeout: 20 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "error",
		},
		Extraction: ExtractionConfig{
			MaxArchiveBytes: 2048,
			Workers:         2,
			JobTTL:          time.Hour,
		},
	}

	t.Run("env values win", func(t *testing.T) {
		envConfig := Config{
			Server: ServerConfig{
				Port:        7070,
				ReadTimeout: 30 * time.Second,
			},
			Logging: LoggingConfig{
				Level: "warn",
			},
			Extraction: ExtractionConfig{
				MaxArchiveBytes: 4096,
				Workers:         8,
				JobTTL:          30 * time.Minute,
			},
		}

		merged := mergeConfigs(fileConfig, envConfig)
		assert.Equal(t, 7070, merged.Server.Port)
		assert.Equal(t, 30*time.Second, merged.Server.ReadTimeout)
		assert.Equal(t, "warn", merged.Logging.Level)
		assert.Equal(t, int64(4096), merged.Extraction.MaxArchiveBytes)
		assert.Equal(t, 8, merged.Extraction.Workers)
		assert.Equal(t, 30*time.Minute, merged.Extraction.JobTTL)
	})

	t.Run("file values fill zero env values", func(t *testing.T) {
		merged := mergeConfigs(fileConfig, Config{})
		assert.Equal(t, 6060, merged.Server.Port)
		assert.Equal(t, 20*time.Second, merged.Server.ReadTimeout)
		assert.Equal(t, "error", merged.Logging.Level)
		assert.Equal(t, int64(2048), merged.Extraction.MaxArchiveBytes)
		assert.Equal(t, 2, merged.Extraction.Workers)
		assert.Equal(t, time.Hour, merged.Extraction.JobTTL)
	})
}

// TestValidate tests configuration validation rules
func TestValidate(t *testing.T) {
	valid := func() *Config { return Default() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid default config",
			mutate: func(c *Config) {},
		},
		{
			name:    "port too large",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantErr: "read timeout must be positive",
		},
		{
			name:    "zero write timeout",
			mutate:  func(c *Config) { c.Server.WriteTimeout = 0 },
			wantErr: "write timeout must be positive",
		},
		{
			name:    "no allowed origins",
			mutate:  func(c *Config) { c.Security.AllowedOrigins = nil },
			wantErr: "allowed origin",
		},
		{
			name:    "zero archive ceiling",
			mutate:  func(c *Config) { c.Extraction.MaxArchiveBytes = 0 },
			wantErr: "max archive bytes",
		},
		{
			name: "entry ceiling above archive ceiling",
			mutate: func(c *Config) {
				c.Extraction.MaxArchiveBytes = 100
				c.Extraction.MaxEntryBytes = 200
			},
			wantErr: "max entry bytes",
		},
		{
			name:    "zero max entries",
			mutate:  func(c *Config) { c.Extraction.MaxEntries = 0 },
			wantErr: "max entries",
		},
		{
			name:    "zero workers",
			mutate:  func(c *Config) { c.Extraction.Workers = 0 },
			wantErr: "workers",
		},
		{
			name:    "zero job TTL",
			mutate:  func(c *Config) { c.Extraction.JobTTL = 0 },
			wantErr: "job TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_LoggingCoercion(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "text"
	cfg.Logging.Output = "console"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "both", cfg.Logging.Output)
	assert.Equal(t, "logs/app.log", cfg.Logging.FilePath)
}

// TestDefault verifies the default configuration is complete and valid
func TestDefault(t *testing.T) {
	cfg := Default()

	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.OperationTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, int64(1<<30), cfg.Extraction.MaxArchiveBytes)
	assert.Equal(t, int64(256<<20), cfg.Extraction.MaxEntryBytes)
	assert.Equal(t, 4, cfg.Extraction.Workers)
	assert.Equal(t, 50, cfg.Extraction.PreviewRows)

	assert.NoError(t, cfg.validate())
}

func TestGetConfigFilePath(t *testing.T) {
	t.Run("no config file found", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir, _ := os.Getwd()
		require.NoError(t, os.Chdir(tempDir))
		t.Cleanup(func() { os.Chdir(originalDir) })

		assert.Empty(t, getConfigFilePath())
	})

	t.Run("config file in working directory", func(t *testing.T) {
		tempDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte("server:\n  port: 8080\n"), 0644))

		originalDir, _ := os.Getwd()
		require.NoError(t, os.Chdir(tempDir))
		t.Cleanup(func() { os.Chdir(originalDir) })

		assert.Equal(t, "config.yaml", getConfigFilePath())
	})
}

func TestSummaryFileName(t *testing.T) {
	tests := []struct {
		format   string
		expected string
	}{
		{"xlsx", SummaryWorkbookName},
		{"csv", SummaryCSVName},
		{"sqlite", SummaryDatabaseName},
		{"", SummaryWorkbookName},
		{"unknown", SummaryWorkbookName},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, SummaryFileName(tt.format), "format %q", tt.format)
	}
}

func TestGetFeatureFlag(t *testing.T) {
	assert.True(t, GetFeatureFlag("websocket"))
	assert.True(t, GetFeatureFlag("metrics"))
	assert.True(t, GetFeatureFlag("health_check"))
	assert.False(t, GetFeatureFlag("debug_logging"))
	assert.False(t, GetFeatureFlag("no_such_flag"))
}
