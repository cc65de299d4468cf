package events

import "time"

// DatasetFileEvent 数据目录文件变更事件
// 当数据目录下的表格文件发生变更时触发
type DatasetFileEvent struct {
	// EventType 事件类型（created/modified/deleted）
	EventType EventType
	// FileName 文件名
	FileName string
	// FilePath 文件完整路径
	FilePath string
	// ModTime 文件最后修改时间
	ModTime time.Time
	// FileSize 文件大小（字节）
	FileSize int64
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *DatasetFileEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *DatasetFileEvent) Timestamp() time.Time {
	return e.EventTime
}
