package dataset

import (
	"errors"
	"fmt"
)

// 数据集相关错误
var (
	// ErrEmptyFile 文件没有表头行
	ErrEmptyFile = errors.New("tabular file has no header row")
	// ErrUnsupportedFormat 不支持的文件格式
	ErrUnsupportedFormat = errors.New("unsupported file format")
)

// ColumnNotFoundError 引用了不存在的列
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found in dataset", e.Column)
}
