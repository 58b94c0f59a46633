package document

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// headingTags h1-h6 标签集合。
var headingTags = map[string]bool{
	"h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true,
}

// skippedTags 不参与正文抽取的标签。
var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true,
	"head": true, "template": true,
}

// blockTags 视为换行边界的块级标签。
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true,
	"br": true, "section": true, "article": true,
	"blockquote": true, "pre": true, "td": true, "th": true,
}

// parseHTML 解析 HTML 文件，h1-h6 作为章节标题，其余文本按块级元素换行。
func parseHTML(path string) ([]Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open html file: %w", err)
	}
	defer func() { _ = file.Close() }()

	tokenizer := html.NewTokenizer(file)

	var sections []Section
	var heading string
	var body strings.Builder
	var headingBuf strings.Builder
	inHeading := false
	skipDepth := 0

	flush := func() {
		text := normalizeWhitespace(body.String())
		if heading != "" || text != "" {
			sections = append(sections, Section{Heading: heading, Text: text})
		}
		heading = ""
		body.Reset()
	}

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)

			if skippedTags[tag] {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if skipDepth > 0 {
				continue
			}

			if headingTags[tag] {
				flush()
				inHeading = true
				headingBuf.Reset()
				continue
			}
			if blockTags[tag] {
				body.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)

			if skippedTags[tag] && skipDepth > 0 {
				skipDepth--
				continue
			}
			if headingTags[tag] && inHeading {
				inHeading = false
				heading = normalizeWhitespace(headingBuf.String())
				continue
			}
			if blockTags[tag] {
				body.WriteString("\n")
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			text := string(tokenizer.Text())
			if inHeading {
				headingBuf.WriteString(text)
			} else {
				body.WriteString(text)
			}
		}
	}

	flush()
	return sections, nil
}

// normalizeWhitespace 折叠行内空白并去除空行。
func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
