package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// parseDOCX 解析 DOCX 文件。DOCX 是一个 zip 包，正文位于 word/document.xml。
// 按段落抽取文本，Heading 样式的段落作为章节标题。
func parseDOCX(path string) ([]Section, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open docx archive: %w", err)
	}
	defer func() { _ = archive.Close() }()

	var docFile *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("word/document.xml not found in archive")
	}

	reader, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open word/document.xml: %w", err)
	}
	defer func() { _ = reader.Close() }()

	paragraphs, err := extractParagraphs(reader)
	if err != nil {
		return nil, err
	}

	return buildSections(paragraphs), nil
}

// paragraph 一个 DOCX 段落。
type paragraph struct {
	text    string
	heading bool
}

// extractParagraphs 流式解析 document.xml，抽取段落文本和样式。
func extractParagraphs(r io.Reader) ([]paragraph, error) {
	decoder := xml.NewDecoder(r)

	var paragraphs []paragraph
	var current strings.Builder
	inParagraph := false
	isHeading := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inParagraph = true
				isHeading = false
				current.Reset()
			case "pStyle":
				for _, attr := range t.Attr {
					if attr.Name.Local == "val" && strings.HasPrefix(attr.Value, "Heading") {
						isHeading = true
					}
				}
			case "t":
				if inParagraph {
					var text string
					if err := decoder.DecodeElement(&text, &t); err != nil {
						return nil, fmt.Errorf("failed to decode text run: %w", err)
					}
					current.WriteString(text)
				}
			case "tab":
				if inParagraph {
					current.WriteString("\t")
				}
			case "br":
				if inParagraph {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			if t.Name.Local == "p" && inParagraph {
				inParagraph = false
				text := strings.TrimSpace(current.String())
				if text != "" {
					paragraphs = append(paragraphs, paragraph{text: text, heading: isHeading})
				}
			}
		}
	}

	return paragraphs, nil
}

// buildSections 将段落序列组装为章节。标题段落开启新章节，
// 文档开头没有标题时落入无标题章节。
func buildSections(paragraphs []paragraph) []Section {
	var sections []Section
	var current *Section
	var body []string

	flush := func() {
		if current == nil && len(body) == 0 {
			return
		}
		section := Section{Text: strings.Join(body, "\n")}
		if current != nil {
			section.Heading = current.Heading
		}
		if section.Heading != "" || strings.TrimSpace(section.Text) != "" {
			sections = append(sections, section)
		}
		current = nil
		body = body[:0]
	}

	for _, p := range paragraphs {
		if p.heading {
			flush()
			current = &Section{Heading: p.text}
			continue
		}
		body = append(body, p.text)
	}
	flush()

	return sections
}
