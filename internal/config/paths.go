package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	WebDir        string
	StaticDir     string
	DataDir       string
	StagingDir    string
	ExportsDir    string
	LogsDir       string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exe)

	// All paths are relative to the executable directory
	// This ensures the application works correctly whether run from dev/ or dist/
	// Directory structure:
	// dist/
	//   ├── data/
	//   │   ├── staging/   (per-job unpacked archives)
	//   │   └── exports/   (per-job generated summary files)
	//   ├── logs/          (Application logs)
	//   └── web/           (Frontend assets)

	dataDir := filepath.Join(exeDir, "data")

	paths := &Paths{
		ExecutableDir: exeDir,
		DataDir:       dataDir,
		WebDir:        filepath.Join(exeDir, "web"),
		StaticDir:     filepath.Join(exeDir, "web", "static"),
		StagingDir:    filepath.Join(dataDir, "staging"),
		ExportsDir:    filepath.Join(dataDir, "exports"),
		LogsDir:       filepath.Join(exeDir, "logs"),
	}

	return paths, nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.StagingDir,
		p.ExportsDir,
		p.LogsDir,
		p.WebDir,
		p.StaticDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetWebFilePath returns the path to a web file
func (p *Paths) GetWebFilePath(filename string) string {
	return filepath.Join(p.WebDir, filename)
}

// GetStaticFilePath returns the path to a static file
func (p *Paths) GetStaticFilePath(filename string) string {
	return filepath.Join(p.StaticDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetStagingPath returns the staging directory for an extraction job
func (p *Paths) GetStagingPath(jobID string) string {
	return filepath.Join(p.StagingDir, jobID)
}

// GetExportPath returns the path for an exported file of an extraction job
func (p *Paths) GetExportPath(jobID, filename string) string {
	return filepath.Join(p.ExportsDir, jobID, filename)
}

// GetSummaryExportPath returns the path of the consolidated summary file
// for a job in the given format (xlsx, csv or sqlite)
func (p *Paths) GetSummaryExportPath(jobID, format string) string {
	return filepath.Join(p.ExportsDir, jobID, SummaryFileName(format))
}

// SummaryFileName maps an export format to its well-known file name
func SummaryFileName(format string) string {
	switch format {
	case FormatCSV:
		return SummaryCSVName
	case FormatSQLite:
		return SummaryDatabaseName
	default:
		return SummaryWorkbookName
	}
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("staging", p.StagingDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		))
}
