// Package main provides the web entry point: the upload page and the
// extraction API in one self-contained binary.
package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"boqscope/internal/app"
)

// Embedded upload page and static assets
//go:embed all:web
var webFiles embed.FS

func main() {
	// Create frontend filesystem from embedded files
	var frontendFS fs.FS
	if sub, err := fs.Sub(webFiles, "web"); err == nil {
		frontendFS = sub
		slog.Info("Frontend embedded successfully")
	} else {
		slog.Info("Warning: Frontend embedding failed", slog.String("error", err.Error()))
		frontendFS = nil
	}

	// Create application instance
	application, err := app.NewApplication(frontendFS)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start application
	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
