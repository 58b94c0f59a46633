package docexport

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"

	"github.com/openrag/ragserver/internal/pkg/chunker"
	"github.com/openrag/ragserver/internal/pkg/document"
)

// Exporter converts every supported document under an input directory
// and writes the converted forms to an output directory.
type Exporter struct {
	opts      *Options
	converter *document.Converter
	chunker   *chunker.Chunker
}

// NewExporter creates an Exporter from the given options.
func NewExporter(opts *Options) *Exporter {
	return &Exporter{
		opts:      opts,
		converter: document.NewConverter(),
		chunker:   chunker.New(opts.MaxTokens),
	}
}

// Run scans the input directory and converts each supported file
// concurrently. Per-file failures are logged and skipped; Run only
// fails when the directory scan or worker pool cannot be set up.
func (e *Exporter) Run() error {
	files, err := e.findFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warnw("No supported documents found", "input", e.opts.Input)
		return nil
	}

	if err := os.MkdirAll(e.opts.Output, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	pool, err := ants.NewPool(e.opts.Workers)
	if err != nil {
		return fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	start := time.Now()
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, file := range files {
		file := file
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			if err := e.exportFile(file); err != nil {
				logger.Errorw("Failed to export document", "file", file, "error", err.Error())
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			logger.Infow("Exported document", "file", file)
		}); err != nil {
			wg.Done()
			logger.Errorw("Failed to submit conversion task", "file", file, "error", err.Error())
			mu.Lock()
			failed++
			mu.Unlock()
		}
	}
	wg.Wait()

	logger.Infow("Export finished",
		"total", len(files),
		"succeeded", len(files)-failed,
		"failed", failed,
		"elapsed", time.Since(start).String(),
	)
	return nil
}

// findFiles 扫描输入目录，返回所有受支持的文档路径（按字典序）。
func (e *Exporter) findFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(e.opts.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := document.FormatOf(d.Name()); err == nil {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// exportFile converts one document and writes its markdown, JSON, YAML,
// and chunk outputs next to each other under the output directory.
func (e *Exporter) exportFile(path string) error {
	name := filepath.Base(path)
	doc, err := e.converter.Convert(path, name)
	if err != nil {
		return err
	}

	stem := strings.TrimSuffix(name, filepath.Ext(name))

	if err := e.writeOutput(stem+".md", func(f *os.File) error {
		return document.ExportMarkdown(f, doc)
	}); err != nil {
		return err
	}
	if err := e.writeOutput(stem+".json", func(f *os.File) error {
		return document.ExportJSON(f, doc)
	}); err != nil {
		return err
	}
	if err := e.writeOutput(stem+".yaml", func(f *os.File) error {
		return document.ExportYAML(f, doc)
	}); err != nil {
		return err
	}

	chunks := e.chunker.Chunk(doc)
	return e.writeOutput(stem+"_chunks.txt", func(f *os.File) error {
		return document.ExportChunks(f, chunks)
	})
}

func (e *Exporter) writeOutput(name string, write func(*os.File) error) error {
	path := filepath.Join(e.opts.Output, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
