package biz

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kart-io/logger"

	"github.com/openrag/ragserver/internal/apiserver/store"
	"github.com/openrag/ragserver/internal/pkg/chunker"
	"github.com/openrag/ragserver/internal/pkg/document"
	"github.com/openrag/ragserver/pkg/embedding"
)

// IngestorConfig 摄取管线配置。
type IngestorConfig struct {
	// Collection 集合名称。
	Collection string
	// MaxTokens 每块最大 token 数。
	MaxTokens int
	// AllowedExts 允许摄取的扩展名（含点号，小写）。
	AllowedExts []string
}

// IngestReport 单文件摄取结果。
type IngestReport struct {
	// Filename 原始文件名。
	Filename string `json:"filename"`
	// ChunksCount 生成的文本块数。
	ChunksCount int `json:"chunks_count"`
	// InsertCount 实际写入向量库的条数。
	InsertCount int `json:"insert_count"`
}

// FileError 批量摄取中单个文件的失败记录。
type FileError struct {
	// File 文件路径。
	File string `json:"file"`
	// Err 失败原因。
	Err string `json:"error"`
}

// BatchReport 目录批量摄取结果。
type BatchReport struct {
	// Files 发现的候选文件总数。
	Files int `json:"files"`
	// Succeeded 成功处理的文件数。
	Succeeded int `json:"succeeded"`
	// Failed 失败文件及原因。
	Failed []FileError `json:"failed,omitempty"`
	// ChunksCount 所有成功文件的文本块总数。
	ChunksCount int `json:"chunks_count"`
	// InsertCount 实际写入向量库的条数。
	InsertCount int `json:"insert_count"`
}

// Ingestor 负责文档摄取：解析、分块、嵌入、入库。
type Ingestor struct {
	store     store.VectorStore
	embedder  embedding.Provider
	converter *document.Converter
	chunker   *chunker.Chunker
	config    *IngestorConfig
}

// NewIngestor 创建摄取器实例。
func NewIngestor(vectorStore store.VectorStore, embedder embedding.Provider, config *IngestorConfig) *Ingestor {
	return &Ingestor{
		store:     vectorStore,
		embedder:  embedder,
		converter: document.NewConverter(),
		chunker:   chunker.New(config.MaxTokens),
		config:    config,
	}
}

// allowed 检查文件名扩展是否在允许列表中。
func (i *Ingestor) allowed(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range i.config.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

// IngestFile 摄取单个文件。name 为对外展示的文件名（上传场景下 path
// 指向临时文件）。块 ID 从当前行数开始连续分配；行数读取失败时从 0
// 开始，可能覆盖已有 ID，属于接受的尽力而为行为。
func (i *Ingestor) IngestFile(ctx context.Context, path, name string) (*IngestReport, error) {
	if !i.allowed(name) {
		return nil, fmt.Errorf("%w: %q (allowed: %v)",
			document.ErrUnsupportedFormat, filepath.Ext(name), i.config.AllowedExts)
	}

	doc, err := i.converter.Convert(path, name)
	if err != nil {
		return nil, err
	}

	chunks := i.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, name)
	}
	logger.Infow("document chunked", "file", name, "chunks", len(chunks))

	base := i.baseID(ctx)

	records := make([]*store.Record, 0, len(chunks))
	for pos, chunk := range chunks {
		vector, err := i.embedder.EmbedSingle(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk %d of %s: %w", pos, name, err)
		}
		records = append(records, &store.Record{
			ID:     base + int64(pos),
			Vector: vector,
			Text:   chunk,
		})
	}

	inserted, err := i.store.Insert(ctx, i.config.Collection, records)
	if err != nil {
		return nil, fmt.Errorf("failed to insert records: %w", err)
	}

	logger.Infow("document ingested",
		"file", name,
		"chunks", len(chunks),
		"inserted", inserted,
		"base_id", base,
	)

	return &IngestReport{
		Filename:    name,
		ChunksCount: len(chunks),
		InsertCount: inserted,
	}, nil
}

// IngestDirectory 摄取目录下所有允许的文件。单个文件失败记录后继续，
// ID 计数只为成功文件的块推进。所有文件处理完后一次性批量写入。
func (i *Ingestor) IngestDirectory(ctx context.Context, dir string) (*BatchReport, error) {
	files, err := i.findFiles(dir)
	if err != nil {
		return nil, err
	}
	logger.Infow("directory scan complete", "dir", dir, "files", len(files))

	report := &BatchReport{Files: len(files)}
	if len(files) == 0 {
		return report, nil
	}

	base := i.baseID(ctx)

	var records []*store.Record
	next := base
	for _, file := range files {
		chunks, err := i.convertAndChunk(file)
		if err != nil {
			logger.Warnw("skipping file", "file", file, "error", err.Error())
			report.Failed = append(report.Failed, FileError{File: file, Err: err.Error()})
			continue
		}

		fileRecords := make([]*store.Record, 0, len(chunks))
		embedFailed := false
		for pos, chunk := range chunks {
			vector, err := i.embedder.EmbedSingle(ctx, chunk)
			if err != nil {
				logger.Warnw("skipping file after embed failure",
					"file", file, "chunk", pos, "error", err.Error())
				report.Failed = append(report.Failed, FileError{File: file, Err: err.Error()})
				embedFailed = true
				break
			}
			fileRecords = append(fileRecords, &store.Record{
				ID:     next + int64(pos),
				Vector: vector,
				Text:   chunk,
			})
		}
		if embedFailed {
			continue
		}

		records = append(records, fileRecords...)
		next += int64(len(fileRecords))
		report.Succeeded++
		report.ChunksCount += len(chunks)
	}

	if len(records) > 0 {
		inserted, err := i.store.Insert(ctx, i.config.Collection, records)
		if err != nil {
			return nil, fmt.Errorf("failed to insert records: %w", err)
		}
		report.InsertCount = inserted
	}

	logger.Infow("directory ingested",
		"dir", dir,
		"files", report.Files,
		"succeeded", report.Succeeded,
		"failed", len(report.Failed),
		"inserted", report.InsertCount,
	)
	return report, nil
}

// convertAndChunk 解析并分块单个文件。
func (i *Ingestor) convertAndChunk(path string) ([]string, error) {
	doc, err := i.converter.Convert(path, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	chunks := i.chunker.Chunk(doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, filepath.Base(path))
	}
	return chunks, nil
}

// findFiles 查找目录下扩展名允许的文件，按路径排序保证确定性。
func (i *Ingestor) findFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if i.allowed(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// baseID 读取当前行数作为起始 ID，失败时退回 0。
func (i *Ingestor) baseID(ctx context.Context) int64 {
	base, err := i.store.RowCount(ctx, i.config.Collection)
	if err != nil {
		logger.Warnw("failed to read row count, starting ids from 0", "error", err.Error())
		return 0
	}
	return base
}
