// Package document 提供文档解析与导出能力。
// 支持 PDF、DOCX、Markdown、HTML、CSV 和纯文本格式，统一抽取为分节文本。
package document

import (
	"errors"
	"strings"
)

// ErrUnsupportedFormat 表示文件扩展名不在支持列表中。
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Format 文档格式。
type Format string

// 支持的文档格式。
const (
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatText     Format = "text"
)

// Section 文档中的一个章节。
type Section struct {
	// Heading 章节标题，可为空。
	Heading string `json:"heading,omitempty" yaml:"heading,omitempty"`
	// Text 章节正文。
	Text string `json:"text" yaml:"text"`
}

// Document 解析后的文档。
type Document struct {
	// Name 文档名称（通常为原始文件名）。
	Name string `json:"name" yaml:"name"`
	// Format 文档格式。
	Format Format `json:"format" yaml:"format"`
	// Sections 按原文顺序排列的章节。
	Sections []Section `json:"sections" yaml:"sections"`
}

// Text 返回文档全部正文，章节之间以空行分隔。
func (d *Document) Text() string {
	var b strings.Builder
	for _, s := range d.Sections {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(text)
	}
	return b.String()
}

// IsEmpty 判断文档是否没有任何正文内容。
func (d *Document) IsEmpty() bool {
	for _, s := range d.Sections {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}
