package chunker_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrag/ragserver/internal/pkg/chunker"
	"github.com/openrag/ragserver/internal/pkg/document"
)

func TestNew(t *testing.T) {
	// 非正值回退到默认值
	assert.Equal(t, chunker.DefaultMaxTokens, chunker.New(0).MaxTokens)
	assert.Equal(t, chunker.DefaultMaxTokens, chunker.New(-5).MaxTokens)
	assert.Equal(t, 64, chunker.New(64).MaxTokens)
}

func TestSplitText(t *testing.T) {
	c := chunker.New(4)

	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "empty text",
			text:     "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			text:     "   \n\t  ",
			expected: nil,
		},
		{
			name:     "fits in one chunk",
			text:     "one two three",
			expected: []string{"one two three"},
		},
		{
			name:     "exact boundary",
			text:     "a b c d",
			expected: []string{"a b c d"},
		},
		{
			name:     "splits across chunks",
			text:     "a b c d e f g h i j",
			expected: []string{"a b c d", "e f g h", "i j"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, c.SplitText(tt.text))
		})
	}
}

func TestSplitTextBudget(t *testing.T) {
	c := chunker.New(8)

	words := make([]string, 100)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	chunks := c.SplitText(strings.Join(words, " "))

	// 每块 token 数都不超过预算
	total := 0
	for _, chunk := range chunks {
		n := chunker.CountTokens(chunk)
		assert.LessOrEqual(t, n, 8)
		total += n
	}
	// 没有单词丢失
	assert.Equal(t, 100, total)
}

func TestChunkHeadingPrefix(t *testing.T) {
	c := chunker.New(4)

	doc := &document.Document{
		Name:   "test.md",
		Format: document.FormatMarkdown,
		Sections: []document.Section{
			{Heading: "Introduction", Text: "a b c d e f"},
			{Heading: "", Text: "plain body"},
			{Heading: "Empty", Text: "   "},
		},
	}

	chunks := c.Chunk(doc)
	require.Len(t, chunks, 3)

	// 有标题的章节每个块都带标题前缀
	assert.Equal(t, "Introduction\na b c d", chunks[0])
	assert.Equal(t, "Introduction\ne f", chunks[1])
	// 无标题章节不加前缀
	assert.Equal(t, "plain body", chunks[2])
}

func TestChunkEmptyDocument(t *testing.T) {
	c := chunker.New(16)

	assert.Empty(t, c.Chunk(&document.Document{Name: "empty.txt"}))
	assert.Empty(t, c.Chunk(&document.Document{
		Name:     "blank.txt",
		Sections: []document.Section{{Text: "  \n  "}},
	}))
}

func TestChunkDeterministic(t *testing.T) {
	c := chunker.New(8)

	doc := &document.Document{
		Name: "doc.txt",
		Sections: []document.Section{
			{Heading: "A", Text: strings.Repeat("word ", 30)},
			{Heading: "B", Text: strings.Repeat("token ", 20)},
		},
	}

	first := c.Chunk(doc)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.Chunk(doc))
	}
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, chunker.CountTokens(""))
	assert.Equal(t, 0, chunker.CountTokens("  \t\n"))
	assert.Equal(t, 3, chunker.CountTokens("one two three"))
	assert.Equal(t, 2, chunker.CountTokens("  spaced \n out  "))
}
