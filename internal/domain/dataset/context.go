package dataset

import (
	"fmt"
	"strings"
)

const (
	// contextSampleValues 每列采样值数量
	contextSampleValues = 3
	// contextHeadRows 上下文中渲染的前置行数
	contextHeadRows = 5
	// contextCellWidth 表格单元格最大宽度
	contextCellWidth = 20
)

// ColumnInfo 用于 LLM 提示词的列描述
type ColumnInfo struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	DistinctCount int    `json:"distinct_count"`
	Samples       []any  `json:"samples"`
}

// Context 用于 LLM 提示词的数据集上下文
//
// 所有内容严格来自数据集当前的列集合，避免模型引用不存在的列。
type Context struct {
	Filename  string           `json:"filename"`
	FileType  string           `json:"file_type,omitempty"`
	Delimiter string           `json:"delimiter,omitempty"`
	RowCount  int              `json:"row_count"`
	ColCount  int              `json:"column_count"`
	Columns   []ColumnInfo     `json:"columns"`
	Head      []map[string]any `json:"head"`
}

// BuildContext 从 Frame 构建提示词上下文
func BuildContext(f *Frame) *Context {
	columns := make([]ColumnInfo, 0, f.ColumnCount())
	for _, c := range f.Columns() {
		columns = append(columns, ColumnInfo{
			Name:          c.Name,
			Type:          string(c.Type),
			DistinctCount: f.DistinctCount(c.Name),
			Samples:       f.SampleValues(c.Name, contextSampleValues),
		})
	}

	return &Context{
		Filename: f.Name(),
		RowCount: f.RowCount(),
		ColCount: f.ColumnCount(),
		Columns:  columns,
		Head:     f.Head(contextHeadRows),
	}
}

// FormatForPrompt 渲染为可直接嵌入提示词的文本
func (c *Context) FormatForPrompt() string {
	var sb strings.Builder

	sb.WriteString("DATASET INFO:\n")
	fmt.Fprintf(&sb, "- File: %s\n", c.Filename)
	if c.FileType != "" {
		fmt.Fprintf(&sb, "- Format: %s\n", c.formatFileType())
	}
	fmt.Fprintf(&sb, "- Shape: %d rows x %d columns\n", c.RowCount, c.ColCount)
	sb.WriteString("- Columns:\n")
	for _, col := range c.Columns {
		samples := make([]string, len(col.Samples))
		for i, s := range col.Samples {
			samples[i] = fmt.Sprint(s)
		}
		fmt.Fprintf(&sb, "  - %s (%s): %d unique, samples: [%s]\n",
			col.Name, col.Type, col.DistinctCount, strings.Join(samples, ", "))
	}

	sb.WriteString("\n")
	sb.WriteString(c.formatHead())

	return sb.String()
}

// formatFileType 渲染文件格式描述
func (c *Context) formatFileType() string {
	switch strings.ToLower(c.FileType) {
	case "tsv":
		return "TSV (tab-separated)"
	case "csv":
		if c.Delimiter != "" {
			return fmt.Sprintf("CSV (delimiter: %q)", c.Delimiter)
		}
		return "CSV"
	default:
		return c.FileType
	}
}

// formatHead 渲染前 N 行的分隔表格
func (c *Context) formatHead() string {
	if len(c.Head) == 0 {
		return "No sample data available\n"
	}

	headers := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		headers = append(headers, col.Name)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Sample data (first %d rows):\n", len(c.Head))
	sb.WriteString(strings.Join(headers, " | "))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 50))
	sb.WriteString("\n")
	for _, row := range c.Head {
		cells := make([]string, len(headers))
		for i, h := range headers {
			cell := ""
			if v, ok := row[h]; ok && v != nil {
				cell = fmt.Sprint(v)
			}
			if len(cell) > contextCellWidth {
				cell = cell[:contextCellWidth]
			}
			cells[i] = cell
		}
		sb.WriteString(strings.Join(cells, " | "))
		sb.WriteString("\n")
	}
	return sb.String()
}
