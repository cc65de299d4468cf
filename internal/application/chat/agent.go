package chat

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cellbyte/backend/internal/infrastructure/llm"
)

// maxAgentRounds 单次对话允许的最大工具调用轮数
const maxAgentRounds = 6

// ChatClient 带工具定义的对话补全客户端
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []llm.Message, tools []llm.ToolDef) (*llm.Message, error)
}

// runAgent 执行有界的工具调用循环
// 返回追加了助手/工具消息的完整消息序列；上游补全错误原样传播。
func runAgent(ctx context.Context, client ChatClient, messages []llm.Message, tools []*Tool, logger *slog.Logger) ([]llm.Message, error) {
	defs := make([]llm.ToolDef, len(tools))
	registry := make(map[string]*Tool, len(tools))
	for i, tool := range tools {
		defs[i] = tool.Def
		registry[tool.Def.Function.Name] = tool
	}

	// 同一 tool_call ID 至多执行一次
	seenCallIDs := make(map[string]bool)

	for round := 0; round < maxAgentRounds; round++ {
		msg, err := client.ChatCompletion(ctx, messages, defs)
		if err != nil {
			return nil, err
		}

		messages = append(messages, *msg)

		if len(msg.ToolCalls) == 0 {
			return messages, nil
		}

		for _, call := range msg.ToolCalls {
			if seenCallIDs[call.ID] {
				logger.Warn("Duplicate tool call ID skipped",
					"call_id", call.ID,
					"tool", call.Function.Name,
				)
				continue
			}
			seenCallIDs[call.ID] = true

			messages = append(messages, llm.Message{
				Role:       "tool",
				Content:    executeTool(ctx, registry, call, logger),
				ToolCallID: call.ID,
			})
		}
	}

	// 轮数耗尽后不再提供工具，强制模型给出最终回答
	msg, err := client.ChatCompletion(ctx, messages, nil)
	if err != nil {
		return nil, err
	}
	return append(messages, *msg), nil
}

// executeTool 执行单个工具调用，任何错误都转换为可读的工具结果文本
func executeTool(ctx context.Context, registry map[string]*Tool, call llm.ToolCall, logger *slog.Logger) string {
	tool, ok := registry[call.Function.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Function.Name)
	}

	logger.Debug("Executing tool",
		"tool", call.Function.Name,
		"call_id", call.ID,
	)

	result, err := tool.Run(ctx, call.Function.Arguments)
	if err != nil {
		logger.Warn("Tool execution failed",
			"tool", call.Function.Name,
			"error", err,
		)
		return fmt.Sprintf("Error: %s", err.Error())
	}
	return result
}
