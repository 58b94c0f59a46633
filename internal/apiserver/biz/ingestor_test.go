package biz_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrag/ragserver/internal/apiserver/biz"
	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/internal/pkg/document"
)

// fakeStore 记录插入的向量，支持注入错误。
type fakeStore struct {
	records      []*store.Record
	hits         []*store.SearchHit
	rowCount     int64
	rowCountErr  error
	insertErr    error
	searchErr    error
	insertCalled int
}

func (f *fakeStore) EnsureCollection(ctx context.Context, config *store.CollectionConfig) error {
	return nil
}

func (f *fakeStore) Insert(ctx context.Context, collection string, records []*store.Record) (int, error) {
	f.insertCalled++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.records = append(f.records, records...)
	return len(records), nil
}

func (f *fakeStore) Search(ctx context.Context, collection string, vector []float32, limit int) ([]*store.SearchHit, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if limit < len(f.hits) {
		return f.hits[:limit], nil
	}
	return f.hits, nil
}

func (f *fakeStore) RowCount(ctx context.Context, collection string) (int64, error) {
	if f.rowCountErr != nil {
		return 0, f.rowCountErr
	}
	return f.rowCount, nil
}

func (f *fakeStore) Close(ctx context.Context) error { return nil }

// fakeEmbedder 返回固定维度的向量，可按文本注入失败。
type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) Name() string { return "fake" }

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, err := f.EmbedSingle(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failOn != "" && text == f.failOn {
		return nil, errors.New("embedding backend unavailable")
	}
	return []float32{1, 2, 3}, nil
}

func newTestIngestor(s *fakeStore, e *fakeEmbedder) *biz.Ingestor {
	return biz.NewIngestor(s, e, &biz.IngestorConfig{
		Collection:  "test_collection",
		MaxTokens:   4,
		AllowedExts: []string{".txt", ".md"},
	})
}

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIngestFile(t *testing.T) {
	s := &fakeStore{rowCount: 10}
	e := &fakeEmbedder{}
	ingestor := newTestIngestor(s, e)

	path := writeDoc(t, t.TempDir(), "doc.txt", "a b c d e f g h i j")

	report, err := ingestor.IngestFile(context.Background(), path, "doc.txt")
	require.NoError(t, err)

	// 10 个单词、每块 4 token：3 块
	assert.Equal(t, "doc.txt", report.Filename)
	assert.Equal(t, 3, report.ChunksCount)
	assert.Equal(t, 3, report.InsertCount)

	// ID 从当前行数开始连续分配
	require.Len(t, s.records, 3)
	assert.Equal(t, int64(10), s.records[0].ID)
	assert.Equal(t, int64(11), s.records[1].ID)
	assert.Equal(t, int64(12), s.records[2].ID)
	assert.Equal(t, "a b c d", s.records[0].Text)

	// 每块一次嵌入调用，单次批量插入
	assert.Equal(t, 3, e.calls)
	assert.Equal(t, 1, s.insertCalled)
}

func TestIngestFileRejectsExtension(t *testing.T) {
	ingestor := newTestIngestor(&fakeStore{}, &fakeEmbedder{})

	_, err := ingestor.IngestFile(context.Background(), "/tmp/whatever.zip", "whatever.zip")
	assert.ErrorIs(t, err, document.ErrUnsupportedFormat)
}

func TestIngestFileNoContent(t *testing.T) {
	ingestor := newTestIngestor(&fakeStore{}, &fakeEmbedder{})

	path := writeDoc(t, t.TempDir(), "blank.txt", "   \n   ")

	_, err := ingestor.IngestFile(context.Background(), path, "blank.txt")
	assert.ErrorIs(t, err, biz.ErrNoContent)
}

func TestIngestFileRowCountFallback(t *testing.T) {
	// 行数读取失败时 ID 从 0 开始
	s := &fakeStore{rowCountErr: errors.New("collection not loaded")}
	ingestor := newTestIngestor(s, &fakeEmbedder{})

	path := writeDoc(t, t.TempDir(), "doc.txt", "hello world")

	report, err := ingestor.IngestFile(context.Background(), path, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, report.ChunksCount)
	require.Len(t, s.records, 1)
	assert.Equal(t, int64(0), s.records[0].ID)
}

func TestIngestFileEmbedFailure(t *testing.T) {
	s := &fakeStore{}
	e := &fakeEmbedder{failOn: "hello world"}
	ingestor := newTestIngestor(s, e)

	path := writeDoc(t, t.TempDir(), "doc.txt", "hello world")

	_, err := ingestor.IngestFile(context.Background(), path, "doc.txt")
	require.Error(t, err)
	// 失败时不应有任何写入
	assert.Zero(t, s.insertCalled)
}

func TestIngestDirectory(t *testing.T) {
	s := &fakeStore{rowCount: 5}
	e := &fakeEmbedder{}
	ingestor := newTestIngestor(s, e)

	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "one two three")
	writeDoc(t, dir, "b.txt", "four five")
	writeDoc(t, dir, "ignored.zip", "not a document")

	report, err := ingestor.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Files)
	assert.Equal(t, 2, report.Succeeded)
	assert.Empty(t, report.Failed)
	assert.Equal(t, 2, report.ChunksCount)
	assert.Equal(t, 2, report.InsertCount)

	// 文件按字典序处理，ID 连续
	require.Len(t, s.records, 2)
	assert.Equal(t, int64(5), s.records[0].ID)
	assert.Equal(t, "one two three", s.records[0].Text)
	assert.Equal(t, int64(6), s.records[1].ID)
	assert.Equal(t, "four five", s.records[1].Text)

	// 所有文件合并为一次批量插入
	assert.Equal(t, 1, s.insertCalled)
}

func TestIngestDirectoryContinuesAfterFailure(t *testing.T) {
	s := &fakeStore{}
	e := &fakeEmbedder{failOn: "bad chunk"}
	ingestor := newTestIngestor(s, e)

	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "bad chunk")
	writeDoc(t, dir, "b.txt", "   ")
	writeDoc(t, dir, "c.txt", "good content")

	report, err := ingestor.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Files)
	assert.Equal(t, 1, report.Succeeded)
	require.Len(t, report.Failed, 2)
	assert.Equal(t, 1, report.InsertCount)

	// ID 计数只为成功文件推进
	require.Len(t, s.records, 1)
	assert.Equal(t, int64(0), s.records[0].ID)
	assert.Equal(t, "good content", s.records[0].Text)
}

func TestIngestDirectoryEmpty(t *testing.T) {
	s := &fakeStore{}
	ingestor := newTestIngestor(s, &fakeEmbedder{})

	report, err := ingestor.IngestDirectory(context.Background(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Files)
	assert.Zero(t, s.insertCalled)
}

func TestIngestDirectoryInsertError(t *testing.T) {
	s := &fakeStore{insertErr: errors.New("milvus unavailable")}
	ingestor := newTestIngestor(s, &fakeEmbedder{})

	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "some words here")

	_, err := ingestor.IngestDirectory(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "milvus unavailable")
}

func TestIngestDirectoryManyFiles(t *testing.T) {
	s := &fakeStore{rowCount: 100}
	ingestor := newTestIngestor(s, &fakeEmbedder{})

	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeDoc(t, dir, fmt.Sprintf("f%02d.txt", i), fmt.Sprintf("content %d", i))
	}

	report, err := ingestor.IngestDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 10, report.Succeeded)

	// ID 全局连续且无重复
	require.Len(t, s.records, 10)
	for i, record := range s.records {
		assert.Equal(t, int64(100+i), record.ID)
	}
}
