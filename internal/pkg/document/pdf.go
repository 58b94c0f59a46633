package document

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// parsePDF 解析 PDF 文件，每页作为一个章节。
// 无法解析的页面跳过，不中断整个文档。
func parsePDF(path string) ([]Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// 整体读入内存，避免解析期间依赖文件句柄
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf file: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pdf: %w", err)
	}

	pageCount := reader.NumPage()
	sections := make([]Section, 0, pageCount)

	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// 跳过无法解析的页面
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		sections = append(sections, Section{
			Heading: fmt.Sprintf("Page %d", i),
			Text:    text,
		})
	}

	return sections, nil
}
