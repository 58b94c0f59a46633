// Package router provides RAG service routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/openrag/ragserver/internal/apiserver/handler"
)

// Register registers the RAG service routes on the gin engine.
func Register(engine *gin.Engine, ragHandler *handler.RAGHandler) {
	engine.GET("/", ragHandler.Root)
	engine.GET("/healthz", ragHandler.Healthz)
	engine.POST("/upload", ragHandler.Upload)
	engine.POST("/search", ragHandler.Search)
	engine.GET("/stats", ragHandler.Stats)
	engine.POST("/ingest/directory", ragHandler.IngestDirectory)

	logger.Info("HTTP routes registered")
}
