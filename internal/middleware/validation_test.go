package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "boqscope/internal/errors"
	"boqscope/internal/shared/testutil"
)

func newValidationMiddleware(t *testing.T) *ValidationMiddleware {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := apierrors.NewErrorHandler(logger, false)
	return NewValidationMiddleware(logger, handler)
}

type uploadForm struct {
	Filename string `json:"filename" validate:"required,archivename"`
	Size     int64  `json:"size" validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	m := newValidationMiddleware(t)

	tests := []struct {
		name        string
		input       uploadForm
		wantErr     bool
		wantMessage string
	}{
		{
			name:  "valid upload",
			input: uploadForm{Filename: "boq_archive.zip", Size: 1024},
		},
		{
			name:        "missing filename",
			input:       uploadForm{Size: 1024},
			wantErr:     true,
			wantMessage: "filename is required",
		},
		{
			name:        "wrong extension",
			input:       uploadForm{Filename: "boq_summary.xlsx", Size: 1024},
			wantErr:     true,
			wantMessage: "filename must be a valid .zip archive name",
		},
		{
			name:        "traversal in filename",
			input:       uploadForm{Filename: "../escape.zip", Size: 1024},
			wantErr:     true,
			wantMessage: "filename must be a valid .zip archive name",
		},
		{
			name:        "zero size",
			input:       uploadForm{Filename: "boq.zip"},
			wantErr:     true,
			wantMessage: "size must be greater than 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateStruct(tt.input)

			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			apiErr, ok := err.(*apierrors.APIError)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			found := false
			for _, ve := range details.Errors {
				if ve.Message == tt.wantMessage {
					found = true
				}
			}
			assert.True(t, found, "expected message %q in %v", tt.wantMessage, details.Errors)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	m := newValidationMiddleware(t)

	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("GET passes through", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions/job-1", nil)

		m.ValidateRequest(okHandler).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("multipart passes through untouched", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", strings.NewReader("--boundary--"))
		r.Header.Set("Content-Type", "multipart/form-data; boundary=boundary")

		m.ValidateRequest(okHandler).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid JSON rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", strings.NewReader("{not json"))
		r.Header.Set("Content-Type", "application/json")

		m.ValidateRequest(okHandler).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("oversized body rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", strings.NewReader("{}"))
		r.Header.Set("Content-Type", "application/json")
		r.ContentLength = 11 * 1024 * 1024

		m.ValidateRequest(okHandler).ServeHTTP(w, r)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("valid JSON body restored for handler", func(t *testing.T) {
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := make([]byte, r.ContentLength)
			r.Body.Read(buf)
			w.Write(buf)
		})

		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", strings.NewReader(`{"format":"csv"}`))
		r.Header.Set("Content-Type", "application/json")

		m.ValidateRequest(echo).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, `{"format":"csv"}`, w.Body.String())
	})
}

func TestContentTypeValidator(t *testing.T) {
	handler := ContentTypeValidator("multipart/form-data")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	t.Run("matching prefix accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", nil)
		r.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusAccepted, w.Code)
	})

	t.Run("missing content type rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", nil)

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong content type rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("POST", "/api/extractions", nil)
		r.Header.Set("Content-Type", "application/json")

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("GET skipped", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions", nil)

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusAccepted, w.Code)
	})
}

func TestQueryParamValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	v := NewQueryParamValidator(logger, errorHandler)

	t.Run("enum default on absent param", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions/job-1/download", nil)

		format, ok := v.ValidateEnum(w, r, "format", []string{"xlsx", "csv", "sqlite"}, "xlsx")

		assert.True(t, ok)
		assert.Equal(t, "xlsx", format)
	})

	t.Run("enum accepts allowed value", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions/job-1/download?format=sqlite", nil)

		format, ok := v.ValidateEnum(w, r, "format", []string{"xlsx", "csv", "sqlite"}, "xlsx")

		assert.True(t, ok)
		assert.Equal(t, "sqlite", format)
	})

	t.Run("enum rejects unknown value", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions/job-1/download?format=pdf", nil)

		_, ok := v.ValidateEnum(w, r, "format", []string{"xlsx", "csv", "sqlite"}, "xlsx")

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("int bounds", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions/job-1?limit=500", nil)

		_, ok := v.ValidateInt(w, r, "limit", 1, 200, 50)

		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("int default", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/api/extractions/job-1", nil)

		limit, ok := v.ValidateInt(w, r, "limit", 1, 200, 50)

		assert.True(t, ok)
		assert.Equal(t, 50, limit)
	})
}
