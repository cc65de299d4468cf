package handler

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cellbyte/backend/internal/application/chat"
	domainchat "github.com/cellbyte/backend/internal/domain/chat"
	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/interfaces/http/response"
)

// ChatHandler 对话处理器
type ChatHandler struct {
	chatService *chat.Service
	logger      *slog.Logger
}

// NewChatHandler 创建对话处理器
func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      log.NewModuleLogger("chat", "handler"),
	}
}

// ChatRequest 对话请求
type ChatRequest struct {
	Message string            `json:"message" binding:"required"`
	History []domainchat.Turn `json:"history,omitempty"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	Response         string            `json:"response"`
	History          []domainchat.Turn `json:"history"`
	PromptGeneration uint64            `json:"prompt_generation"`
}

// Chat 处理一轮对话
// POST /api/v1/chat
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}

	answer, history, err := h.chatService.Chat(c.Request.Context(), req.Message, req.History)
	if err != nil {
		h.logger.Error("Chat turn failed",
			"history_len", len(req.History),
			"error", err,
		)
		writeError(c, err)
		return
	}

	response.Success(c, ChatResponse{
		Response:         answer,
		History:          history,
		PromptGeneration: h.chatService.PromptGeneration(),
	})
}

// SearchRequest 检索请求
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k,omitempty"`
}

// Search 对向量索引执行一次检索，返回格式化文本
// POST /api/v1/search
func (h *ChatHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.chatService.Search(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{"result": result})
}

// RefreshPrompt 重建系统提示词并重绑定工具
// POST /api/v1/chat/refresh
func (h *ChatHandler) RefreshPrompt(c *gin.Context) {
	h.chatService.Refresh()
	response.Success(c, gin.H{"prompt_generation": h.chatService.PromptGeneration()})
}
