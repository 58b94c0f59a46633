// Package handler provides HTTP handlers for the RAG service.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/openrag/ragserver/internal/apiserver/biz"
	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/internal/pkg/document"
	"github.com/openrag/ragserver/pkg/utils/json"
)

// RAGHandler handles RAG HTTP requests.
type RAGHandler struct {
	service biz.Service
}

// NewRAGHandler creates a new RAGHandler.
func NewRAGHandler(service biz.Service) *RAGHandler {
	return &RAGHandler{service: service}
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Root reports service liveness at the API root.
func (h *RAGHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "RAG API is running"})
}

// Healthz is the liveness probe endpoint.
func (h *RAGHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// UploadResponse is returned after a successful upload.
type UploadResponse struct {
	Message     string `json:"message"`
	Filename    string `json:"filename"`
	ChunksCount int    `json:"chunks_count"`
}

// Upload ingests a single uploaded document.
// The multipart file is copied to a temp file removed on every exit path.
func (h *RAGHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: "file field is required"})
		return
	}

	// 扩展名检查先于落盘
	if _, err := document.FormatOf(fileHeader.Filename); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	tmpFile, err := os.CreateTemp("", "upload-*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: "failed to create temp file"})
		return
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: fmt.Sprintf("failed to save upload: %v", err)})
		return
	}

	report, err := h.service.IngestFile(c.Request.Context(), tmpPath, fileHeader.Filename)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, document.ErrUnsupportedFormat) || errors.Is(err, biz.ErrNoContent) {
			status = http.StatusBadRequest
		}
		logger.Warnw("upload failed", "file", fileHeader.Filename, "error", err.Error())
		c.JSON(status, ErrorResponse{Code: status, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message:     "File processed successfully",
		Filename:    report.Filename,
		ChunksCount: report.ChunksCount,
	})
}

// SearchRequest represents a search request.
type SearchRequest struct {
	Question string `json:"question" binding:"required"`
	Limit    int    `json:"limit"`
}

// resultPair serializes a search hit as a two-element [text, distance] array.
type resultPair struct {
	hit *store.SearchHit
}

// MarshalJSON implements json.Marshaler.
func (p resultPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.hit.Text, p.hit.Distance})
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []resultPair `json:"results"`
}

// Search performs a similarity search over the collection.
func (h *RAGHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	hits, err := h.service.Search(c.Request.Context(), req.Question, req.Limit)
	if err != nil {
		logger.Errorw("search failed", "question", req.Question, "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	results := make([]resultPair, len(hits))
	for i, hit := range hits {
		results[i] = resultPair{hit: hit}
	}
	c.JSON(http.StatusOK, SearchResponse{Results: results})
}

// Stats returns collection statistics.
// Store failures still return 200 with an error field, keeping the
// endpoint usable for dashboards.
func (h *RAGHandler) Stats(c *gin.Context) {
	count, err := h.service.RowCount(c.Request.Context())
	if err != nil {
		logger.Warnw("failed to read collection stats", "error", err.Error())
		c.JSON(http.StatusOK, gin.H{
			"collection_name": h.service.Collection(),
			"error":           err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collection_name": h.service.Collection(),
		"stats":           gin.H{"row_count": count},
	})
}

// IngestDirectoryRequest represents a directory ingest request.
type IngestDirectoryRequest struct {
	Directory string `json:"directory" binding:"required"`
}

// IngestDirectory ingests all supported documents from a local directory.
func (h *RAGHandler) IngestDirectory(c *gin.Context) {
	var req IngestDirectoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: 400, Message: err.Error()})
		return
	}

	report, err := h.service.IngestDirectory(c.Request.Context(), req.Directory)
	if err != nil {
		logger.Errorw("directory ingest failed", "dir", req.Directory, "error", err.Error())
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: 500, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}
