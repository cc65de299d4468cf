package chat

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/cellbyte/backend/internal/domain/catalog"
	domainchat "github.com/cellbyte/backend/internal/domain/chat"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// Service 对话服务
//
// 持久化历史是唯一的会话事实来源：每次请求从扁平历史重建原生消息，
// 运行智能体后只把新增消息展平回历史，已有前缀逐字节保持不变。
type Service struct {
	client    ChatClient
	catalog   catalog.Repository
	searcher  Searcher
	analytics AnalyticsRunner
	plots     PlotRunner

	// prompt 当前系统提示词状态，仅 Refresh 重建
	prompt atomic.Pointer[PromptState]

	// tools 当前工具绑定，与提示词状态同步重建
	toolsMu sync.RWMutex
	tools   []*Tool

	logger *slog.Logger
}

// NewService 创建对话服务并完成首次提示词构建
func NewService(client ChatClient, repo catalog.Repository, searcher Searcher, analytics AnalyticsRunner, plots PlotRunner) *Service {
	s := &Service{
		client:    client,
		catalog:   repo,
		searcher:  searcher,
		analytics: analytics,
		plots:     plots,
		logger:    log.NewModuleLogger("chat", "service"),
	}
	s.prompt.Store(&PromptState{})
	s.Refresh()
	return s
}

// Chat 处理一轮用户消息
//
// 返回助手回复文本与更新后的完整历史。任何失败都不产生部分更新，
// 调用方持有的原历史保持原样可重放。
func (s *Service) Chat(ctx context.Context, message string, history []domainchat.Turn) (string, []domainchat.Turn, error) {
	if err := domainchat.ValidateHistory(history); err != nil {
		return "", nil, fmt.Errorf("invalid conversation history: %w", err)
	}

	prompt := s.prompt.Load()
	native := make([]llm.Message, 0, len(history)+2)
	native = append(native, llm.Message{Role: "system", Content: prompt.Text})
	for i := range history {
		native = append(native, turnToMessage(&history[i]))
	}
	native = append(native, llm.Message{Role: "user", Content: message})

	// 新增消息从该下标开始展平回持久化历史
	newStart := len(native)

	s.toolsMu.RLock()
	tools := s.tools
	s.toolsMu.RUnlock()

	messages, err := runAgent(ctx, s.client, native, tools, s.logger)
	if err != nil {
		return "", nil, err
	}

	updated := make([]domainchat.Turn, 0, len(history)+1+len(messages)-newStart)
	updated = append(updated, history...)
	updated = append(updated, domainchat.Turn{Role: domainchat.RoleUser, Content: message})
	for i := newStart; i < len(messages); i++ {
		updated = append(updated, messageToTurn(&messages[i]))
	}

	response := ""
	if len(messages) > 0 {
		response = messages[len(messages)-1].Content
	}

	s.logger.Info("Chat turn completed",
		"history_turns", len(history),
		"new_turns", len(updated)-len(history),
		"prompt_generation", prompt.Generation,
	)

	return response, updated, nil
}

// Refresh 重建系统提示词并重新绑定工具
//
// 摄取、删除与外部文件变更都通过这里使提示词状态失效；
// 对话路径本身从不重建提示词。
func (s *Service) Refresh() {
	metas, err := s.catalog.List()
	if err != nil {
		s.logger.Error("Failed to list catalog for prompt refresh", "error", err)
		metas = nil
	}

	old := s.prompt.Load()
	next := &PromptState{
		Text:       buildSystemPrompt(metas),
		Generation: old.Generation + 1,
	}
	s.prompt.Store(next)

	s.toolsMu.Lock()
	s.tools = buildTools(s.searcher, s.analytics, s.plots, s.catalog)
	s.toolsMu.Unlock()

	s.logger.Info("Prompt state refreshed",
		"generation", next.Generation,
		"files", len(metas),
	)
}

// PromptGeneration 当前提示词代数
func (s *Service) PromptGeneration() uint64 {
	return s.prompt.Load().Generation
}

// Search 直接语义检索（HTTP /search 与 MCP search_data 共用）
func (s *Service) Search(ctx context.Context, query string, topK int) (string, error) {
	s.toolsMu.RLock()
	tools := s.tools
	s.toolsMu.RUnlock()

	for _, tool := range tools {
		if tool.Def.Function.Name == "search_data" {
			args := fmt.Sprintf(`{"query": %q, "top_k": %d}`, query, topK)
			return tool.Run(ctx, args)
		}
	}
	return "", fmt.Errorf("search tool not bound")
}

// turnToMessage 持久化消息转原生消息
func turnToMessage(t *domainchat.Turn) llm.Message {
	msg := llm.Message{
		Role:       string(t.Role),
		Content:    t.Content,
		ToolCallID: t.ToolCallID,
	}
	for _, tc := range t.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: llm.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return msg
}

// messageToTurn 原生消息转持久化消息
func messageToTurn(m *llm.Message) domainchat.Turn {
	turn := domainchat.Turn{
		Role:       domainchat.Role(m.Role),
		Content:    m.Content,
		ToolCallID: m.ToolCallID,
	}
	for _, tc := range m.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, domainchat.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return turn
}
