package dataset

import (
	"strconv"
	"strings"
)

// ColumnType 列的推断类型
type ColumnType string

const (
	// ColumnInteger 整数列
	ColumnInteger ColumnType = "integer"
	// ColumnFloat 浮点数列
	ColumnFloat ColumnType = "float"
	// ColumnBool 布尔列
	ColumnBool ColumnType = "boolean"
	// ColumnString 字符串列
	ColumnString ColumnType = "string"
)

// Column 列定义
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Frame 内存中的表格数据集
//
// 单元格的运行时类型由列类型决定：int64 / float64 / bool / string，
// 缺失值（空单元格）统一为 nil。
type Frame struct {
	name    string
	columns []Column
	rows    [][]any
}

// NewFrame 从表头和字符串记录构建 Frame，并按列推断类型
func NewFrame(name string, header []string, records [][]string) *Frame {
	columns := make([]Column, len(header))
	for i, h := range header {
		columns[i] = Column{
			Name: strings.TrimSpace(h),
			Type: inferColumnType(records, i),
		}
	}

	rows := make([][]any, len(records))
	for r, record := range records {
		row := make([]any, len(columns))
		for c := range columns {
			var cell string
			if c < len(record) {
				cell = strings.TrimSpace(record[c])
			}
			row[c] = parseCell(cell, columns[c].Type)
		}
		rows[r] = row
	}

	return &Frame{name: name, columns: columns, rows: rows}
}

// inferColumnType 推断某列的类型：所有非空值可解析为整数则为 integer，
// 可解析为浮点数则为 float，可解析为布尔则为 boolean，否则为 string
func inferColumnType(records [][]string, col int) ColumnType {
	isInt, isFloat, isBool := true, true, true
	seen := false

	for _, record := range records {
		if col >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[col])
		if cell == "" {
			continue
		}
		seen = true
		if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			isFloat = false
		}
		if _, err := strconv.ParseBool(cell); err != nil {
			isBool = false
		}
		if !isInt && !isFloat && !isBool {
			return ColumnString
		}
	}

	// 全空列按字符串处理
	if !seen {
		return ColumnString
	}

	switch {
	case isInt:
		return ColumnInteger
	case isFloat:
		return ColumnFloat
	case isBool:
		return ColumnBool
	default:
		return ColumnString
	}
}

// parseCell 按列类型解析单元格，空单元格为 nil
func parseCell(cell string, typ ColumnType) any {
	if cell == "" {
		return nil
	}
	switch typ {
	case ColumnInteger:
		v, _ := strconv.ParseInt(cell, 10, 64)
		return v
	case ColumnFloat:
		v, _ := strconv.ParseFloat(cell, 64)
		return v
	case ColumnBool:
		v, _ := strconv.ParseBool(cell)
		return v
	default:
		return cell
	}
}

// Name 数据集名称（即来源文件名）
func (f *Frame) Name() string { return f.name }

// RowCount 行数
func (f *Frame) RowCount() int { return len(f.rows) }

// ColumnCount 列数
func (f *Frame) ColumnCount() int { return len(f.columns) }

// Columns 列定义列表
func (f *Frame) Columns() []Column { return f.columns }

// ColumnNames 列名列表
func (f *Frame) ColumnNames() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// columnIndex 按名称查找列下标
func (f *Frame) columnIndex(name string) int {
	for i, c := range f.columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn 列是否存在
func (f *Frame) HasColumn(name string) bool {
	return f.columnIndex(name) >= 0
}

// Values 某列的全部值（含 nil 缺失值）
func (f *Frame) Values(name string) ([]any, error) {
	idx := f.columnIndex(name)
	if idx < 0 {
		return nil, &ColumnNotFoundError{Column: name}
	}
	values := make([]any, len(f.rows))
	for r, row := range f.rows {
		values[r] = row[idx]
	}
	return values, nil
}

// Numbers 某列的数值序列，缺失值与非数值被跳过
func (f *Frame) Numbers(name string) ([]float64, error) {
	values, err := f.Values(name)
	if err != nil {
		return nil, err
	}
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		switch n := v.(type) {
		case int64:
			nums = append(nums, float64(n))
		case float64:
			nums = append(nums, n)
		}
	}
	return nums, nil
}

// NumericColumns 所有数值列的列名
func (f *Frame) NumericColumns() []string {
	names := make([]string, 0, len(f.columns))
	for _, c := range f.columns {
		if c.Type == ColumnInteger || c.Type == ColumnFloat {
			names = append(names, c.Name)
		}
	}
	return names
}

// Records 所有行的 map 表示，供表达式求值环境使用
func (f *Frame) Records() []map[string]any {
	records := make([]map[string]any, len(f.rows))
	for r, row := range f.rows {
		record := make(map[string]any, len(f.columns))
		for c, col := range f.columns {
			record[col.Name] = row[c]
		}
		records[r] = record
	}
	return records
}

// Head 前 n 行的 map 表示
func (f *Frame) Head(n int) []map[string]any {
	if n > len(f.rows) {
		n = len(f.rows)
	}
	return f.Records()[:n]
}

// DistinctCount 某列的不同非缺失值数量
func (f *Frame) DistinctCount(name string) int {
	idx := f.columnIndex(name)
	if idx < 0 {
		return 0
	}
	seen := make(map[any]bool)
	for _, row := range f.rows {
		if row[idx] != nil {
			seen[row[idx]] = true
		}
	}
	return len(seen)
}

// SampleValues 某列的前 n 个非缺失样本值
func (f *Frame) SampleValues(name string, n int) []any {
	idx := f.columnIndex(name)
	if idx < 0 {
		return nil
	}
	samples := make([]any, 0, n)
	for _, row := range f.rows {
		if row[idx] == nil {
			continue
		}
		samples = append(samples, row[idx])
		if len(samples) == n {
			break
		}
	}
	return samples
}
