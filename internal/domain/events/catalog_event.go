package events

import "time"

// CatalogEvent 目录变更事件
// 当文件完成摄取或被删除时触发，用于向前端推送状态更新
type CatalogEvent struct {
	// EventType 事件类型（ingested/deleted）
	EventType EventType
	// FileName 文件名
	FileName string
	// RemainingFiles 事件发生后目录中剩余的文件数
	RemainingFiles int
	// EventTime 事件发生时间
	EventTime time.Time
}

// Type 实现 Event 接口
func (e *CatalogEvent) Type() EventType {
	return e.EventType
}

// Timestamp 实现 Event 接口
func (e *CatalogEvent) Timestamp() time.Time {
	return e.EventTime
}
