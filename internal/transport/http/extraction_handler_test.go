package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"boqscope/internal/archive"
	apierrors "boqscope/internal/errors"
	"boqscope/internal/middleware"
	"boqscope/internal/services"
	"boqscope/pkg/contracts/domain"
	"boqscope/pkg/contracts/events"
)

// MockExtractionService is a mock implementation of the extraction service
type MockExtractionService struct {
	mock.Mock
}

func (m *MockExtractionService) Submit(ctx context.Context, upload io.Reader, filename string) (string, error) {
	args := m.Called(ctx, upload, filename)
	return args.String(0), args.Error(1)
}

func (m *MockExtractionService) Status(ctx context.Context, jobID string) (*services.JobStatus, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.JobStatus), args.Error(1)
}

func (m *MockExtractionService) ExportPath(ctx context.Context, jobID, format string) (string, error) {
	args := m.Called(ctx, jobID, format)
	return args.String(0), args.Error(1)
}

// Test helper to create an extraction handler with a mocked service
func setupExtractionHandler(t *testing.T, maxUploadBytes int64) (*ExtractionHandler, *MockExtractionService) {
	t.Helper()
	service := &MockExtractionService{}
	handler := NewExtractionHandler(service, maxUploadBytes, silentLogger(), nil)
	return handler, service
}

// Test helper to create a router with the handler mounted
func setupExtractionRouter(handler *ExtractionHandler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Mount("/api/extractions", handler.Routes())
	return r
}

// Test helper to build a multipart body with one file field
func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestExtractionHandler_CreateExtraction(t *testing.T) {
	tests := []struct {
		name           string
		buildRequest   func(t *testing.T) *http.Request
		setupMocks     func(*MockExtractionService)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name: "accepted upload",
			buildRequest: func(t *testing.T) *http.Request {
				body, contentType := multipartBody(t, "archive", "scope.zip", []byte("PK\x03\x04fake"))
				req := httptest.NewRequest("POST", "/api/extractions", body)
				req.Header.Set("Content-Type", contentType)
				return req
			},
			setupMocks: func(s *MockExtractionService) {
				s.On("Submit", mock.Anything, mock.Anything, "scope.zip").
					Return("job-submitted", nil)
			},
			expectedStatus: http.StatusAccepted,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "job-submitted", body["job_id"])
				assert.Equal(t, "accepted", body["status"])
				assert.NotEmpty(t, body["created_at"])
			},
		},
		{
			name: "missing archive field",
			buildRequest: func(t *testing.T) *http.Request {
				body, contentType := multipartBody(t, "document", "scope.zip", []byte("PK"))
				req := httptest.NewRequest("POST", "/api/extractions", body)
				req.Header.Set("Content-Type", contentType)
				return req
			},
			setupMocks:     func(s *MockExtractionService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "/errors/upload-missing", body["type"])
				assert.Equal(t, "UPLOAD_MISSING", body["error_code"])
			},
		},
		{
			name: "malformed multipart body",
			buildRequest: func(t *testing.T) *http.Request {
				req := httptest.NewRequest("POST", "/api/extractions",
					bytes.NewBufferString("this is not a multipart payload"))
				req.Header.Set("Content-Type", "multipart/form-data; boundary=broken")
				return req
			},
			setupMocks:     func(s *MockExtractionService) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "/errors/upload-missing", body["type"])
			},
		},
		{
			name: "service rejects wrong extension",
			buildRequest: func(t *testing.T) *http.Request {
				body, contentType := multipartBody(t, "archive", "scope.rar", []byte("Rar!"))
				req := httptest.NewRequest("POST", "/api/extractions", body)
				req.Header.Set("Content-Type", contentType)
				return req
			},
			setupMocks: func(s *MockExtractionService) {
				s.On("Submit", mock.Anything, mock.Anything, "scope.rar").
					Return("", fmt.Errorf("upload scope.rar: %w", archive.ErrInvalidArchive))
			},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "/errors/invalid-archive", body["type"])
				assert.Equal(t, "INVALID_ARCHIVE", body["error_code"])
			},
		},
		{
			name: "service rejects oversized archive",
			buildRequest: func(t *testing.T) *http.Request {
				body, contentType := multipartBody(t, "archive", "scope.zip", []byte("PK"))
				req := httptest.NewRequest("POST", "/api/extractions", body)
				req.Header.Set("Content-Type", contentType)
				return req
			},
			setupMocks: func(s *MockExtractionService) {
				s.On("Submit", mock.Anything, mock.Anything, "scope.zip").
					Return("", fmt.Errorf("save upload: %w", archive.ErrArchiveTooLarge))
			},
			expectedStatus: http.StatusRequestEntityTooLarge,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "/errors/archive-too-large", body["type"])
			},
		},
		{
			name: "service error",
			buildRequest: func(t *testing.T) *http.Request {
				body, contentType := multipartBody(t, "archive", "scope.zip", []byte("PK"))
				req := httptest.NewRequest("POST", "/api/extractions", body)
				req.Header.Set("Content-Type", contentType)
				return req
			},
			setupMocks: func(s *MockExtractionService) {
				s.On("Submit", mock.Anything, mock.Anything, "scope.zip").
					Return("", errors.New("staging unavailable"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "/errors/internal-error", body["type"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := setupExtractionHandler(t, 64<<20)
			router := setupExtractionRouter(handler)

			if tt.setupMocks != nil {
				tt.setupMocks(service)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, tt.buildRequest(t))

			assert.Equal(t, tt.expectedStatus, w.Code)

			var responseBody map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &responseBody)
			require.NoError(t, err)

			if tt.validateBody != nil {
				tt.validateBody(t, responseBody)
			}

			service.AssertExpectations(t)
		})
	}
}

func TestExtractionHandler_CreateExtraction_LocationHeader(t *testing.T) {
	handler, service := setupExtractionHandler(t, 64<<20)
	router := setupExtractionRouter(handler)

	service.On("Submit", mock.Anything, mock.Anything, "scope.zip").
		Return("job-located", nil)

	body, contentType := multipartBody(t, "archive", "scope.zip", []byte("PK"))
	req := httptest.NewRequest("POST", "/api/extractions", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "/api/extractions/job-located", w.Header().Get("Location"))
}

func TestExtractionHandler_CreateExtraction_BodyLimit(t *testing.T) {
	// A 16 byte archive limit means the multipart body blows past the
	// limit plus overhead long before the service sees it
	handler, service := setupExtractionHandler(t, 16)
	router := setupExtractionRouter(handler)

	payload := bytes.Repeat([]byte("x"), 2<<20)
	body, contentType := multipartBody(t, "archive", "scope.zip", payload)
	req := httptest.NewRequest("POST", "/api/extractions", body)
	req.Header.Set("Content-Type", contentType)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var responseBody map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &responseBody))
	assert.Equal(t, "/errors/archive-too-large", responseBody["type"])

	service.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything)
}

func TestExtractionHandler_GetExtractionStatus(t *testing.T) {
	started := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(90 * time.Second)

	tests := []struct {
		name           string
		jobID          string
		setupMocks     func(*MockExtractionService)
		expectedStatus int
		validateBody   func(*testing.T, map[string]interface{})
	}{
		{
			name:  "completed job with preview",
			jobID: "job-done",
			setupMocks: func(s *MockExtractionService) {
				status := &services.JobStatus{
					ExtractionSnapshot: events.ExtractionSnapshot{
						JobID:          "job-done",
						Phase:          events.PhaseComplete,
						Progress:       100,
						FilesTotal:     3,
						FilesProcessed: 3,
						RowsExtracted:  2,
						Diagnostics:    1,
						Message:        "Extracted 2 rows with DIA >= 80.",
						StartedAt:      started,
						UpdatedAt:      completed,
						CompletedAt:    &completed,
					},
					Preview: []domain.SummaryRow{
						{
							SLNo:        "1",
							TDRFolder:   "TDR-01",
							BOQFile:     "pipeline.xlsx",
							Description: "Providing and laying DI K-9 pipe 200mm",
							K9:          "Yes",
							K7:          "",
							DIA:         "200",
							Rate:        "1450.5",
							Units:       "meter",
							Quantity:    "120",
						},
					},
					FileDiagnostics: []domain.Diagnostic{
						{TDRFolder: "TDR-02", BOQFile: "broken.xls", Message: "unsupported workbook format"},
					},
				}
				s.On("Status", mock.Anything, "job-done").Return(status, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "job-done", body["job_id"])
				assert.Equal(t, string(events.PhaseComplete), body["phase"])
				assert.Equal(t, float64(100), body["progress"])
				assert.Equal(t, float64(3), body["files_total"])
				assert.Equal(t, float64(2), body["rows_extracted"])
				assert.Equal(t, "Extracted 2 rows with DIA >= 80.", body["message"])
				assert.NotEmpty(t, body["completed_at"])

				preview := body["preview"].([]interface{})
				require.Len(t, preview, 1)
				row := preview[0].(map[string]interface{})
				assert.Equal(t, "TDR-01", row["tdr_folder"])
				assert.Equal(t, "Yes", row["k9"])
				assert.Equal(t, "200", row["dia"])

				diags := body["diagnostics"].([]interface{})
				require.Len(t, diags, 1)
				diag := diags[0].(map[string]interface{})
				assert.Equal(t, "broken.xls", diag["boq_file"])
			},
		},
		{
			name:  "running job",
			jobID: "job-running",
			setupMocks: func(s *MockExtractionService) {
				status := &services.JobStatus{
					ExtractionSnapshot: events.ExtractionSnapshot{
						JobID:          "job-running",
						Phase:          events.PhaseExtract,
						Progress:       55,
						FilesTotal:     10,
						FilesProcessed: 5,
						Message:        "Extracted 5 of 10 workbooks.",
						StartedAt:      started,
						UpdatedAt:      started.Add(10 * time.Second),
					},
				}
				s.On("Status", mock.Anything, "job-running").Return(status, nil)
			},
			expectedStatus: http.StatusOK,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, string(events.PhaseExtract), body["phase"])
				assert.Equal(t, float64(55), body["progress"])
				assert.Nil(t, body["completed_at"])
				assert.Nil(t, body["preview"])
			},
		},
		{
			name:  "job not found",
			jobID: "missing",
			setupMocks: func(s *MockExtractionService) {
				s.On("Status", mock.Anything, "missing").
					Return(nil, apierrors.ErrJobNotFound)
			},
			expectedStatus: http.StatusNotFound,
			validateBody: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "/errors/extraction-not-found", body["type"])
				assert.Equal(t, "EXTRACTION_NOT_FOUND", body["error_code"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := setupExtractionHandler(t, 64<<20)
			router := setupExtractionRouter(handler)

			if tt.setupMocks != nil {
				tt.setupMocks(service)
			}

			req := httptest.NewRequest("GET", fmt.Sprintf("/api/extractions/%s", tt.jobID), nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var responseBody map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &responseBody)
			require.NoError(t, err)

			if tt.validateBody != nil {
				tt.validateBody(t, responseBody)
			}

			service.AssertExpectations(t)
		})
	}
}

func TestExtractionHandler_DownloadExtraction(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMocks     func(*testing.T, *MockExtractionService)
		expectedStatus int
		validate       func(*testing.T, *httptest.ResponseRecorder)
	}{
		{
			name:   "streams csv export",
			target: "/api/extractions/job-done/download?format=csv",
			setupMocks: func(t *testing.T, s *MockExtractionService) {
				path := filepath.Join(t.TempDir(), "BOQ_All_Combined_Summary.csv")
				content := "\\uFEFFSL No,TDR Folder\r\n1,TDR-01\r\n"
				require.NoError(t, os.WriteFile(path, []byte(content), 0644))
				s.On("ExportPath", mock.Anything, "job-done", "csv").Return(path, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, `attachment; filename="BOQ_All_Combined_Summary.csv"`,
					w.Header().Get("Content-Disposition"))
				assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
				assert.Contains(t, w.Body.String(), "SL No,TDR Folder")
			},
		},
		{
			name:   "defaults to xlsx",
			target: "/api/extractions/job-done/download",
			setupMocks: func(t *testing.T, s *MockExtractionService) {
				path := filepath.Join(t.TempDir(), "BOQ_All_Combined_Summary.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("PK\x03\x04workbook"), 0644))
				s.On("ExportPath", mock.Anything, "job-done", "xlsx").Return(path, nil)
			},
			expectedStatus: http.StatusOK,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, `attachment; filename="BOQ_All_Combined_Summary.xlsx"`,
					w.Header().Get("Content-Disposition"))
				assert.Equal(t,
					"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
					w.Header().Get("Content-Type"))
			},
		},
		{
			name:           "rejects unknown format before the service",
			target:         "/api/extractions/job-done/download?format=parquet",
			setupMocks:     func(t *testing.T, s *MockExtractionService) {},
			expectedStatus: http.StatusBadRequest,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
			},
		},
		{
			name:   "job still running",
			target: "/api/extractions/job-running/download?format=csv",
			setupMocks: func(t *testing.T, s *MockExtractionService) {
				s.On("ExportPath", mock.Anything, "job-running", "csv").
					Return("", fmt.Errorf("job job-running is in phase extract: %w", apierrors.ErrJobStillRunning))
			},
			expectedStatus: http.StatusConflict,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "/errors/extraction-still-running", body["type"])
			},
		},
		{
			name:   "job not found",
			target: "/api/extractions/missing/download?format=csv",
			setupMocks: func(t *testing.T, s *MockExtractionService) {
				s.On("ExportPath", mock.Anything, "missing", "csv").
					Return("", apierrors.ErrJobNotFound)
			},
			expectedStatus: http.StatusNotFound,
			validate: func(t *testing.T, w *httptest.ResponseRecorder) {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "/errors/extraction-not-found", body["type"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := setupExtractionHandler(t, 64<<20)
			router := setupExtractionRouter(handler)

			if tt.setupMocks != nil {
				tt.setupMocks(t, service)
			}

			req := httptest.NewRequest("GET", tt.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.validate != nil {
				tt.validate(t, w)
			}

			service.AssertExpectations(t)
		})
	}
}

// Error responses must carry the RFC 7807 shape plus the trace id extension
func TestExtractionHandler_ErrorResponseFormat(t *testing.T) {
	handler, service := setupExtractionHandler(t, 64<<20)
	router := setupExtractionRouter(handler)

	service.On("Status", mock.Anything, "error-job").
		Return(nil, apierrors.ErrJobNotFound)

	req := httptest.NewRequest("GET", "/api/extractions/error-job", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var errorResponse map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errorResponse))

	assert.NotEmpty(t, errorResponse["type"])
	assert.NotEmpty(t, errorResponse["title"])
	assert.Equal(t, http.StatusNotFound, int(errorResponse["status"].(float64)))
	assert.NotEmpty(t, errorResponse["detail"])
	assert.NotEmpty(t, errorResponse["trace_id"])
}
