package catalog

import "time"

// FileMetadata 一个已摄取文件的元数据
//
// Columns 与 SampleRows 被对话提示词与代码生成上下文原样消费，
// 必须与摄取时数据集的真实列集合一致。
type FileMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	RowCount    int              `json:"row_count"`
	ColumnCount int              `json:"column_count"`
	Columns     []string         `json:"columns"`
	FileType    string           `json:"file_type,omitempty"`
	Delimiter   string           `json:"delimiter,omitempty"`
	SampleRows  []map[string]any `json:"sample_rows,omitempty"`
	IngestedAt  time.Time        `json:"ingested_at"`
}

// Repository 文件元数据仓储
type Repository interface {
	// List 按摄取时间顺序返回全部元数据
	List() ([]*FileMetadata, error)
	// Get 按名称查询，不存在返回 ErrFileNotFound
	Get(name string) (*FileMetadata, error)
	// Upsert 新增或覆盖同名元数据
	Upsert(meta *FileMetadata) error
	// Delete 删除元数据，不存在返回 ErrFileNotFound；无部分效果
	Delete(name string) error
	// Count 当前注册的文件数
	Count() (int, error)
}
