package biz

import (
	"context"

	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/pkg/embedding"
)

// Service 定义 RAG 服务接口。
type Service interface {
	// IngestFile 摄取单个文件。
	IngestFile(ctx context.Context, path, name string) (*IngestReport, error)
	// IngestDirectory 摄取目录中的所有文档。
	IngestDirectory(ctx context.Context, dir string) (*BatchReport, error)
	// Search 执行相似度检索。
	Search(ctx context.Context, question string, limit int) ([]*store.SearchHit, error)
	// RowCount 获取集合行数。
	RowCount(ctx context.Context) (int64, error)
	// Collection 返回集合名称。
	Collection() string
}

// ServiceConfig RAG 服务配置。
type ServiceConfig struct {
	IngestorConfig   *IngestorConfig
	RetrieverConfig  *RetrieverConfig
	QueryCacheConfig *QueryCacheConfig
}

// RAGService 组合 Ingestor 和 Retriever 提供完整的 RAG 服务。
type RAGService struct {
	ingestor   *Ingestor
	retriever  *Retriever
	store      store.VectorStore
	collection string
}

// NewRAGService 创建 RAG 服务实例。cache 可为 nil。
func NewRAGService(
	vectorStore store.VectorStore,
	embedder embedding.Provider,
	cache *QueryCache,
	config *ServiceConfig,
) *RAGService {
	return &RAGService{
		ingestor:   NewIngestor(vectorStore, embedder, config.IngestorConfig),
		retriever:  NewRetriever(vectorStore, embedder, cache, config.RetrieverConfig),
		store:      vectorStore,
		collection: config.IngestorConfig.Collection,
	}
}

// IngestFile 摄取单个文件。
func (s *RAGService) IngestFile(ctx context.Context, path, name string) (*IngestReport, error) {
	return s.ingestor.IngestFile(ctx, path, name)
}

// IngestDirectory 摄取目录中的所有文档。
func (s *RAGService) IngestDirectory(ctx context.Context, dir string) (*BatchReport, error) {
	return s.ingestor.IngestDirectory(ctx, dir)
}

// Search 执行相似度检索。
func (s *RAGService) Search(ctx context.Context, question string, limit int) ([]*store.SearchHit, error) {
	return s.retriever.Search(ctx, question, limit)
}

// RowCount 获取集合行数。
func (s *RAGService) RowCount(ctx context.Context) (int64, error) {
	return s.store.RowCount(ctx, s.collection)
}

// Collection 返回集合名称。
func (s *RAGService) Collection() string {
	return s.collection
}

// 确保 RAGService 实现了 Service 接口。
var _ Service = (*RAGService)(nil)
