package chat

import "errors"

// 对话历史相关错误
var (
	// ErrUnknownRole 未知角色
	ErrUnknownRole = errors.New("unknown turn role")
	// ErrInvalidTurnFields 角色携带了不合法的字段
	ErrInvalidTurnFields = errors.New("turn carries fields not valid for its role")
	// ErrInvalidToolCall 工具调用缺少 ID 或名称
	ErrInvalidToolCall = errors.New("tool call requires id and name")
	// ErrToolCallIDRequired tool 消息缺少回引 ID
	ErrToolCallIDRequired = errors.New("tool turn requires tool_call_id")
	// ErrOrphanToolTurn tool 消息没有对应的助手工具调用
	ErrOrphanToolTurn = errors.New("tool turn references no preceding assistant tool call")
	// ErrDuplicateToolCallID 同一工具调用 ID 重复出现
	ErrDuplicateToolCallID = errors.New("duplicate tool call id in history")
)
