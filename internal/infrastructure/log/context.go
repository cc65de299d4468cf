package log

import (
	"context"
	"log/slog"
)

// 上下文键定义
const (
	// RequestContextID HTTP 请求 ID
	RequestContextID = "request_id"

	// DatasetContextID 数据集（文件）名
	DatasetContextID = "dataset"

	// ToolContextID 智能体工具名
	ToolContextID = "tool"
)

// WithRequestID 在上下文中添加请求 ID
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestContextID, requestID)
}

// WithDataset 在上下文中添加数据集名
func WithDataset(ctx context.Context, dataset string) context.Context {
	return context.WithValue(ctx, DatasetContextID, dataset)
}

// WithTool 在上下文中添加工具名
func WithTool(ctx context.Context, tool string) context.Context {
	return context.WithValue(ctx, ToolContextID, tool)
}

// LogCtxFromContext 从上下文中提取日志字段
func LogCtxFromContext(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if requestID := ctx.Value(RequestContextID); requestID != nil {
		attrs = append(attrs, slog.String("request_id", requestID.(string)))
	}
	if dataset := ctx.Value(DatasetContextID); dataset != nil {
		attrs = append(attrs, slog.String("dataset", dataset.(string)))
	}
	if tool := ctx.Value(ToolContextID); tool != nil {
		attrs = append(attrs, slog.String("tool", tool.(string)))
	}

	return attrs
}
