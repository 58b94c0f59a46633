package document

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openrag/ragserver/pkg/utils/json"
)

// ExportMarkdown 将文档写出为 Markdown，章节标题映射为二级标题。
func ExportMarkdown(w io.Writer, doc *Document) error {
	var b strings.Builder
	b.WriteString("# " + doc.Name + "\n")

	for _, s := range doc.Sections {
		if s.Heading != "" {
			b.WriteString("\n## " + s.Heading + "\n")
		}
		text := strings.TrimSpace(s.Text)
		if text != "" {
			b.WriteString("\n" + text + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write markdown: %w", err)
	}
	return nil
}

// ExportJSON 将文档写出为缩进 JSON。
func ExportJSON(w io.Writer, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}

// ExportYAML 将文档写出为 YAML。
func ExportYAML(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

// ExportChunks 将文本块写出为分隔文本，每块以 "---" 行结尾。
func ExportChunks(w io.Writer, chunks []string) error {
	for _, chunk := range chunks {
		if _, err := fmt.Fprintf(w, "%s\n---\n", chunk); err != nil {
			return fmt.Errorf("failed to write chunk: %w", err)
		}
	}
	return nil
}
