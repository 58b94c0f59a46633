package document

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// parseMarkdown 解析 Markdown 文件，以 ATX 标题（# 开头的行）划分章节。
// 标题前的内容落入无标题章节。代码块中的 # 不视为标题。
func parseMarkdown(path string) ([]Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open markdown file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var sections []Section
	var heading string
	var body []string
	inCodeBlock := false

	flush := func() {
		text := strings.TrimSpace(strings.Join(body, "\n"))
		if heading != "" || text != "" {
			sections = append(sections, Section{Heading: heading, Text: text})
		}
		heading = ""
		body = body[:0]
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			inCodeBlock = !inCodeBlock
			body = append(body, line)
			continue
		}

		if !inCodeBlock && strings.HasPrefix(line, "#") {
			trimmed := strings.TrimLeft(line, "#")
			if strings.HasPrefix(trimmed, " ") || trimmed == "" {
				flush()
				heading = strings.TrimSpace(trimmed)
				continue
			}
		}

		body = append(body, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read markdown file: %w", err)
	}

	flush()
	return sections, nil
}

// parseText 将纯文本文件作为单一无标题章节。
func parseText(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read text file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, nil
	}
	return []Section{{Text: text}}, nil
}
