package http

import (
	"html/template"
	"io/fs"
	"net/http"

	"boqscope/internal/config"
)

// ServeUploadApp serves the upload page from the embedded web assets
func ServeUploadApp(webFS fs.FS) http.HandlerFunc {
	data := struct {
		AppName string
		Version string
	}{
		AppName: config.AppName,
		Version: config.AppVersion,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		serveHTML(w, webFS, "index.html", data)
	}
}

// StaticAssets serves embedded static files (scripts, styles)
func StaticAssets(webFS fs.FS) http.Handler {
	return http.FileServer(http.FS(webFS))
}

// serveHTML renders an embedded HTML template with security headers
func serveHTML(w http.ResponseWriter, webFS fs.FS, name string, data interface{}) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	tmpl, err := template.ParseFS(webFS, name)
	if err != nil {
		http.Error(w, "Error loading page", http.StatusInternalServerError)
		return
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}
}
