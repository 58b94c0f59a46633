package store

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/entity"

	"github.com/openrag/ragserver/pkg/component/milvus"
)

// textMaxLen 文本字段的 VARCHAR 上限。
const textMaxLen = 65535

// MilvusStore 实现基于 Milvus 的向量存储。
type MilvusStore struct {
	client *milvus.Client
}

// NewMilvusStore 创建 Milvus 存储实例。
func NewMilvusStore(client *milvus.Client) *MilvusStore {
	return &MilvusStore{client: client}
}

// EnsureCollection 创建 Milvus 集合（已存在则为空操作）。
func (s *MilvusStore) EnsureCollection(ctx context.Context, config *CollectionConfig) error {
	schema := &milvus.CollectionSchema{
		Name:        config.Name,
		Description: config.Description,
		Dimension:   config.Dimension,
		MetaFields: []milvus.MetaField{
			{Name: "text", DataType: entity.FieldTypeVarChar, MaxLen: textMaxLen},
		},
	}
	return s.client.EnsureCollection(ctx, schema)
}

// Insert 批量插入记录。
func (s *MilvusStore) Insert(ctx context.Context, collection string, records []*Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]int64, len(records))
	embeddings := make([][]float32, len(records))
	texts := make([]any, len(records))
	for i, r := range records {
		ids[i] = r.ID
		embeddings[i] = r.Vector
		texts[i] = r.Text
	}

	data := &milvus.InsertData{
		IDs:        ids,
		Embeddings: embeddings,
		Metadata:   map[string][]any{"text": texts},
	}

	count, err := s.client.Insert(ctx, collection, data)
	if err != nil {
		return 0, fmt.Errorf("failed to insert into milvus: %w", err)
	}
	return count, nil
}

// Search 执行向量相似度搜索。
func (s *MilvusStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]*SearchHit, error) {
	results, err := s.client.Search(ctx, collection, vector, limit, []string{"text"})
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	hits := make([]*SearchHit, len(results))
	for i, r := range results {
		text, _ := r.Metadata["text"].(string)
		hits[i] = &SearchHit{
			Text:     text,
			Distance: r.Score,
		}
	}
	return hits, nil
}

// RowCount 获取集合行数。
func (s *MilvusStore) RowCount(ctx context.Context, collection string) (int64, error) {
	return s.client.GetCollectionStats(ctx, collection)
}

// Close 关闭 Milvus 连接。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

// 确保 MilvusStore 实现了 VectorStore 接口。
var _ VectorStore = (*MilvusStore)(nil)
