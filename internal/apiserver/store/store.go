package store

import (
	"context"
)

// Record 待写入向量库的一条记录。
type Record struct {
	// ID 调用方分配的主键。
	ID int64
	// Vector 嵌入向量。
	Vector []float32
	// Text 原始文本块。
	Text string
}

// SearchHit 一条检索结果。
type SearchHit struct {
	// Text 命中的文本块。
	Text string
	// Distance 内积相似度分数，越大越相似。
	Distance float32
}

// CollectionConfig 集合配置。
type CollectionConfig struct {
	// Name 集合名称。
	Name string
	// Description 集合描述。
	Description string
	// Dimension 向量维度。
	Dimension int
}

// VectorStore 定义向量存储接口。
type VectorStore interface {
	// EnsureCollection 创建集合（已存在则为空操作）。
	EnsureCollection(ctx context.Context, config *CollectionConfig) error

	// Insert 批量插入记录，返回实际写入条数。
	Insert(ctx context.Context, collection string, records []*Record) (int, error)

	// Search 向量相似度搜索，按相似度降序返回至多 limit 条。
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]*SearchHit, error)

	// RowCount 返回集合当前行数。
	RowCount(ctx context.Context, collection string) (int64, error)

	// Close 关闭连接。
	Close(ctx context.Context) error
}
