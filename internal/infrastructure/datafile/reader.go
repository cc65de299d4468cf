package datafile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/cellbyte/backend/internal/domain/dataset"
)

// candidateDelimiters 分隔符探测候选集，按优先级排列
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// FileInfo 读取文件时识别出的格式信息
type FileInfo struct {
	Type      string
	Delimiter string
}

// DetectDelimiter 根据首行探测分隔符
// 选取在首行中出现次数最多的候选分隔符，无法判定时回退为逗号
func DetectDelimiter(firstLine string) rune {
	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		count := strings.Count(firstLine, string(d))
		if count > bestCount {
			best = d
			bestCount = count
		}
	}
	return best
}

// ReadTabular 读取表格文件并构建数据集
func ReadTabular(path string) (*dataset.Frame, *FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read file: %w", err)
	}

	name := baseName(path)
	return ParseTabular(name, data)
}

// ParseTabular 从原始字节解析表格数据
func ParseTabular(name string, data []byte) (*dataset.Frame, *FileInfo, error) {
	content := strings.TrimPrefix(string(data), "\uFEFF")
	if strings.TrimSpace(content) == "" {
		return nil, nil, dataset.ErrEmptyFile
	}

	firstLine := content
	if idx := strings.IndexAny(content, "\r\n"); idx >= 0 {
		firstLine = content[:idx]
	}
	delimiter := DetectDelimiter(firstLine)

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse tabular data: %w", err)
	}

	if len(records) == 0 {
		return nil, nil, dataset.ErrEmptyFile
	}

	header := records[0]
	rows := records[1:]

	// 列数不齐的行补齐或截断到表头宽度
	normalized := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == len(header) {
			normalized = append(normalized, row)
			continue
		}
		fixed := make([]string, len(header))
		copy(fixed, row)
		normalized = append(normalized, fixed)
	}

	frame := dataset.NewFrame(name, header, normalized)

	info := &FileInfo{
		Type:      fileTypeFor(delimiter),
		Delimiter: string(delimiter),
	}
	return frame, info, nil
}

// fileTypeFor 根据分隔符得到文件类型标签
func fileTypeFor(delimiter rune) string {
	if delimiter == '\t' {
		return "TSV"
	}
	return "CSV"
}

// baseName 提取路径中的文件名
func baseName(path string) string {
	if idx := strings.LastIndexAny(path, "/\\"); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
