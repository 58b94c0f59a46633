package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrag/ragserver/internal/apiserver/biz"
	"github.com/openrag/ragserver/internal/apiserver/handler"
	"github.com/openrag/ragserver/internal/apiserver/router"
	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/internal/pkg/document"
)

// fakeService 可编程的 biz.Service 实现。
type fakeService struct {
	ingestReport *biz.IngestReport
	ingestErr    error
	batchReport  *biz.BatchReport
	batchErr     error
	hits         []*store.SearchHit
	searchErr    error
	rowCount     int64
	rowCountErr  error

	lastSearchLimit int
	ingestCalls     int
	lastIngestPath  string
}

func (f *fakeService) IngestFile(ctx context.Context, path, name string) (*biz.IngestReport, error) {
	f.ingestCalls++
	f.lastIngestPath = path
	if f.ingestErr != nil {
		return nil, f.ingestErr
	}
	return f.ingestReport, nil
}

func (f *fakeService) IngestDirectory(ctx context.Context, dir string) (*biz.BatchReport, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchReport, nil
}

func (f *fakeService) Search(ctx context.Context, question string, limit int) ([]*store.SearchHit, error) {
	f.lastSearchLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hits, nil
}

func (f *fakeService) RowCount(ctx context.Context) (int64, error) {
	if f.rowCountErr != nil {
		return 0, f.rowCountErr
	}
	return f.rowCount, nil
}

func (f *fakeService) Collection() string { return "test_collection" }

func newTestEngine(service biz.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	router.Register(engine, handler.NewRAGHandler(service))
	return engine
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestRoot(t *testing.T) {
	engine := newTestEngine(&fakeService{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"RAG API is running"}`, w.Body.String())
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(&fakeService{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestUpload(t *testing.T) {
	service := &fakeService{
		ingestReport: &biz.IngestReport{Filename: "doc.pdf", ChunksCount: 7, InsertCount: 7},
	}
	engine := newTestEngine(service)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, uploadRequest(t, "doc.pdf", "%PDF-1.4 fake"))

	require.Equal(t, http.StatusOK, w.Code)

	var resp handler.UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "File processed successfully", resp.Message)
	assert.Equal(t, "doc.pdf", resp.Filename)
	assert.Equal(t, 7, resp.ChunksCount)
}

func TestUploadMissingFile(t *testing.T) {
	service := &fakeService{}
	engine := newTestEngine(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, service.ingestCalls)
}

func TestUploadUnsupportedExtension(t *testing.T) {
	service := &fakeService{}
	engine := newTestEngine(service)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, uploadRequest(t, "archive.zip", "binary"))

	require.Equal(t, http.StatusBadRequest, w.Code)
	// 扩展名检查先于摄取，服务不应被调用
	assert.Zero(t, service.ingestCalls)
}

func TestUploadIngestErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "unsupported format becomes 400",
			err:      fmt.Errorf("%w: %q", document.ErrUnsupportedFormat, ".txt"),
			expected: http.StatusBadRequest,
		},
		{
			name:     "no content becomes 400",
			err:      fmt.Errorf("%w: doc.pdf", biz.ErrNoContent),
			expected: http.StatusBadRequest,
		},
		{
			name:     "store failure becomes 500",
			err:      errors.New("milvus unavailable"),
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(&fakeService{ingestErr: tt.err})

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, uploadRequest(t, "doc.pdf", "content"))

			require.Equal(t, tt.expected, w.Code)

			var resp handler.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestUploadCleansUpTempFile(t *testing.T) {
	tests := []struct {
		name      string
		ingestErr error
		expected  int
	}{
		{
			name:     "success",
			expected: http.StatusOK,
		},
		{
			name:      "ingest failure",
			ingestErr: errors.New("milvus unavailable"),
			expected:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeService{
				ingestReport: &biz.IngestReport{Filename: "doc.pdf", ChunksCount: 1, InsertCount: 1},
				ingestErr:    tt.ingestErr,
			}
			engine := newTestEngine(service)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, uploadRequest(t, "doc.pdf", "content"))
			require.Equal(t, tt.expected, w.Code)

			// 摄取使用临时文件，请求结束后无论成败都必须删除
			require.NotEmpty(t, service.lastIngestPath)
			_, err := os.Stat(service.lastIngestPath)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestSearch(t *testing.T) {
	service := &fakeService{
		hits: []*store.SearchHit{
			{Text: "first hit", Distance: 0.92},
			{Text: "second hit", Distance: 0.75},
		},
	}
	engine := newTestEngine(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search",
		strings.NewReader(`{"question":"what?","limit":2}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, service.lastSearchLimit)

	// 结果为 [text, distance] 二元组数组
	var resp struct {
		Results [][]json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)
	require.Len(t, resp.Results[0], 2)

	var text string
	var distance float64
	require.NoError(t, json.Unmarshal(resp.Results[0][0], &text))
	require.NoError(t, json.Unmarshal(resp.Results[0][1], &distance))
	assert.Equal(t, "first hit", text)
	assert.InDelta(t, 0.92, distance, 1e-6)
}

func TestSearchMissingQuestion(t *testing.T) {
	engine := newTestEngine(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"limit":3}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchServiceError(t *testing.T) {
	engine := newTestEngine(&fakeService{searchErr: errors.New("embedding backend down")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSearchEmptyResults(t *testing.T) {
	engine := newTestEngine(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"question":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())
}

func TestStats(t *testing.T) {
	engine := newTestEngine(&fakeService{rowCount: 42})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"collection_name":"test_collection","stats":{"row_count":42}}`, w.Body.String())
}

func TestStatsError(t *testing.T) {
	// 统计失败仍返回 200，错误放入响应体
	engine := newTestEngine(&fakeService{rowCountErr: errors.New("collection not loaded")})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "test_collection", resp["collection_name"])
	assert.Equal(t, "collection not loaded", resp["error"])
	assert.NotContains(t, resp, "stats")
}

func TestIngestDirectory(t *testing.T) {
	service := &fakeService{
		batchReport: &biz.BatchReport{Files: 3, Succeeded: 2, ChunksCount: 9, InsertCount: 9,
			Failed: []biz.FileError{{File: "/data/bad.pdf", Err: "no content"}}},
	}
	engine := newTestEngine(service)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest/directory",
		strings.NewReader(`{"directory":"/data"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var report biz.BatchReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 2, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "/data/bad.pdf", report.Failed[0].File)
}

func TestIngestDirectoryMissingField(t *testing.T) {
	engine := newTestEngine(&fakeService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest/directory", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
