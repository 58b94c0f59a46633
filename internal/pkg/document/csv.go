package document

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// parseCSV 解析 CSV 文件。首行作为章节标题，每条记录折叠为一行文本。
func parseCSV(path string) ([]Section, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %w", err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // 宽容处理列数不一致的行

	var heading string
	var rows []string
	first := true

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		line := strings.TrimSpace(strings.Join(record, ", "))
		if line == "" {
			continue
		}

		if first {
			heading = line
			first = false
			continue
		}
		rows = append(rows, line)
	}

	if heading == "" && len(rows) == 0 {
		return nil, nil
	}

	return []Section{{
		Heading: heading,
		Text:    strings.Join(rows, "\n"),
	}}, nil
}
