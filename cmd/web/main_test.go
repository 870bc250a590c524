package main

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEmbeddedFrontend verifies the shipped assets survive the embed and
// the sub-filesystem cut that the application receives.
func TestEmbeddedFrontend(t *testing.T) {
	frontendFS, err := fs.Sub(webFiles, "web")
	require.NoError(t, err)

	page, err := fs.ReadFile(frontendFS, "index.html")
	require.NoError(t, err)
	assert.Contains(t, string(page), "{{.AppName}}")
	assert.Contains(t, string(page), "/static/app.js")
	assert.Contains(t, string(page), "/static/app.css")

	for _, name := range []string{"static/app.js", "static/app.css"} {
		data, err := fs.ReadFile(frontendFS, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

// TestEmbeddedFrontend_UploadWiring pins the page to the API surface the
// router exposes, so a route rename breaks the build instead of the UI.
func TestEmbeddedFrontend_UploadWiring(t *testing.T) {
	script, err := fs.ReadFile(webFiles, "web/static/app.js")
	require.NoError(t, err)

	content := string(script)
	assert.Contains(t, content, "/api/extractions")
	assert.Contains(t, content, "extraction:snapshot")
	assert.Contains(t, content, "/api/client-logs")
	assert.True(t, strings.Contains(content, `append("archive"`),
		"upload field must match the multipart field the handler reads")
}
