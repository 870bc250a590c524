// +build example

package config

import (
	"log/slog"
	"os"
)

// ExampleUsage demonstrates how to use the paths package throughout the application
func ExampleUsage() {
	// Always get paths from the centralized GetPaths() function
	paths, err := GetPaths()
	if err != nil {
		slog.Error("Failed to get paths", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Ensure all directories exist at startup
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to ensure directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Log all resolved paths for debugging
	paths.LogPathResolution()

	// Example 1: Staging an uploaded archive for a job
	staging := paths.GetStagingPath("job-42")
	slog.Info("Archive will be unpacked under", slog.String("dir", staging))

	// Example 2: Locating the consolidated summary for download
	xlsxPath := paths.GetSummaryExportPath("job-42", "xlsx")
	slog.Info("Summary workbook will be written to", slog.String("path", xlsxPath))

	csvPath := paths.GetSummaryExportPath("job-42", "csv")
	slog.Info("Summary CSV will be written to", slog.String("path", csvPath))

	// Example 3: Serving frontend assets
	indexPath := paths.GetWebFilePath("index.html")
	slog.Info("Frontend entry point", slog.String("path", indexPath))
}

// Migration Guide:
//
// OLD CODE (problematic):
//   staging := filepath.Join(os.Getwd(), "staging", jobID)
//
// NEW CODE (correct):
//   paths, _ := config.GetPaths()
//   staging := paths.GetStagingPath(jobID)
//
// Benefits:
// 1. All paths relative to executable, not working directory
// 2. Consistent across all components
// 3. Cross-platform path handling
// 4. Centralized logging and debugging
// 5. Easy to test and mock
