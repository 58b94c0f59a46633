// Package chunker 将文档切分为适合嵌入的文本块。
// token 计数采用空白分词的简化实现，与常见 tokenizer 的数量级一致。
package chunker

import (
	"strings"

	"github.com/openrag/ragserver/internal/pkg/document"
)

// DefaultMaxTokens 默认块大小。
const DefaultMaxTokens = 256

// Chunker 文本分块器。
type Chunker struct {
	// MaxTokens 每块最大 token（按空白分词计数）。
	MaxTokens int
}

// New 创建分块器。maxTokens 非正时使用默认值。
func New(maxTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &Chunker{MaxTokens: maxTokens}
}

// Chunk 按章节顺序切分文档。章节标题会作为上下文前缀写入该章节的
// 每个块。空章节跳过；全空文档返回空切片。相同输入产生相同输出。
func (c *Chunker) Chunk(doc *document.Document) []string {
	var chunks []string
	for _, section := range doc.Sections {
		text := strings.TrimSpace(section.Text)
		if text == "" {
			continue
		}

		prefix := ""
		if section.Heading != "" {
			prefix = section.Heading + "\n"
		}

		for _, part := range c.SplitText(text) {
			chunks = append(chunks, prefix+part)
		}
	}
	return chunks
}

// SplitText 将一段文本按 token 预算切分。单词永不跨块拆分；
// 超长单词独占一个块。
func (c *Chunker) SplitText(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+c.MaxTokens-1)/c.MaxTokens)
	for start := 0; start < len(words); start += c.MaxTokens {
		end := start + c.MaxTokens
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

// CountTokens 返回文本的 token 数（空白分词）。
func CountTokens(text string) int {
	return len(strings.Fields(text))
}
