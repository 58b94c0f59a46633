package document

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// formatByExt 扩展名到格式的映射。
var formatByExt = map[string]Format{
	".pdf":  FormatPDF,
	".docx": FormatDOCX,
	".md":   FormatMarkdown,
	".html": FormatHTML,
	".htm":  FormatHTML,
	".csv":  FormatCSV,
	".txt":  FormatText,
}

// SupportedExts 返回支持的扩展名列表（含点号，按字典序）。
func SupportedExts() []string {
	exts := make([]string, 0, len(formatByExt))
	for ext := range formatByExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FormatOf 根据文件名判断格式。不支持的扩展名返回 ErrUnsupportedFormat。
func FormatOf(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	format, ok := formatByExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Converter 将磁盘上的文件解析为 Document。
type Converter struct{}

// NewConverter 创建转换器。
func NewConverter() *Converter {
	return &Converter{}
}

// Convert 解析文件。name 用作文档名称（上传场景下为原始文件名，
// 此时 path 可能指向临时文件）。扩展名检查先于任何解析。
func (c *Converter) Convert(path, name string) (*Document, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	var sections []Section
	switch format {
	case FormatPDF:
		sections, err = parsePDF(path)
	case FormatDOCX:
		sections, err = parseDOCX(path)
	case FormatMarkdown:
		sections, err = parseMarkdown(path)
	case FormatHTML:
		sections, err = parseHTML(path)
	case FormatCSV:
		sections, err = parseCSV(path)
	case FormatText:
		sections, err = parseText(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s as %s: %w", name, format, err)
	}

	return &Document{
		Name:     name,
		Format:   format,
		Sections: sections,
	}, nil
}
