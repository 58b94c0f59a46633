package biz

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/pkg/embedding"
)

// RetrieverConfig 检索器配置。
type RetrieverConfig struct {
	// Collection 集合名称。
	Collection string
	// TopK limit 未指定时的默认返回条数。
	TopK int
}

// Retriever 负责向量检索。
type Retriever struct {
	store    store.VectorStore
	embedder embedding.Provider
	cache    *QueryCache
	config   *RetrieverConfig
}

// NewRetriever 创建检索器实例。cache 可为 nil（禁用缓存）。
func NewRetriever(vectorStore store.VectorStore, embedder embedding.Provider, cache *QueryCache, config *RetrieverConfig) *Retriever {
	return &Retriever{
		store:    vectorStore,
		embedder: embedder,
		cache:    cache,
		config:   config,
	}
}

// Search 对问题执行相似度检索，按相似度降序返回至多 limit 条结果。
// limit 非正时使用配置的默认值。缓存故障不影响检索。
func (r *Retriever) Search(ctx context.Context, question string, limit int) ([]*store.SearchHit, error) {
	if limit <= 0 {
		limit = r.config.TopK
	}

	if r.cache != nil {
		if hits, err := r.cache.Get(ctx, question, limit); err == nil && hits != nil {
			return hits, nil
		}
	}

	vector, err := r.embedder.EmbedSingle(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	hits, err := r.store.Search(ctx, r.config.Collection, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection: %w", err)
	}
	logger.Debugw("search complete", "question", question, "limit", limit, "hits", len(hits))

	if r.cache != nil {
		_ = r.cache.Set(ctx, question, limit, hits)
	}

	return hits, nil
}
