// Package events 定义领域事件类型和接口
// 用于系统内部的事件驱动通信
package events

import "time"

// EventType 事件类型标识
type EventType string

// 数据集文件相关事件类型
const (
	// DatasetFileCreated 数据目录中出现新文件
	DatasetFileCreated EventType = "dataset.file.created"
	// DatasetFileModified 数据目录中的文件被修改
	DatasetFileModified EventType = "dataset.file.modified"
	// DatasetFileDeleted 数据目录中的文件被删除
	DatasetFileDeleted EventType = "dataset.file.deleted"
)

// 目录（catalog）相关事件类型
const (
	// CatalogFileIngested 文件完成摄取并注册
	CatalogFileIngested EventType = "catalog.file.ingested"
	// CatalogFileDeleted 文件从目录中删除
	CatalogFileDeleted EventType = "catalog.file.deleted"
)

// Event 领域事件接口
// 所有事件类型都必须实现此接口
type Event interface {
	// Type 返回事件类型
	Type() EventType
	// Timestamp 返回事件发生时间
	Timestamp() time.Time
}
