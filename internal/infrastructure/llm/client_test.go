package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/infrastructure/config"
)

// newTestClient 创建指向测试服务器的客户端
func newTestClient(serverURL string) *Client {
	return NewClient(&config.AIConfig{
		ChatBaseURL: serverURL,
		ChatAPIKey:  "test-key",
		ChatModel:   "test-model",
	})
}

func TestComplete(t *testing.T) {
	// 模拟 OpenAI 兼容 API
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		resp := ChatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Index        int     `json:"index"`
			Message      Message `json:"message"`
			FinishReason string  `json:"finish_reason"`
		}{
			Message:      Message{Role: "assistant", Content: "hello back"},
			FinishReason: "stop",
		})
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	content, err := client.Complete(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello back", content)
}

func TestChatCompletionWithToolCalls(t *testing.T) {
	// 模型返回工具调用而非文本回复
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "search_data", req.Tools[0].Function.Name)

		resp := ChatResponse{}
		resp.Choices = append(resp.Choices, struct {
			Index        int     `json:"index"`
			Message      Message `json:"message"`
			FinishReason string  `json:"finish_reason"`
		}{
			Message: Message{
				Role: "assistant",
				ToolCalls: []ToolCall{
					{
						ID:   "call_1",
						Type: "function",
						Function: FunctionCall{
							Name:      "search_data",
							Arguments: `{"query":"revenue"}`,
						},
					},
				},
			},
			FinishReason: "tool_calls",
		})
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	tools := []ToolDef{
		{
			Type: "function",
			Function: FunctionDef{
				Name:        "search_data",
				Description: "Search ingested datasets",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{"type": "string"},
					},
					"required": []string{"query"},
				},
			},
		},
	}

	msg, err := client.ChatCompletion(context.Background(), []Message{
		{Role: "user", Content: "what is the revenue"},
	}, tools)
	require.NoError(t, err)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "call_1", msg.ToolCalls[0].ID)
	assert.Equal(t, "search_data", msg.ToolCalls[0].Function.Name)
}

func TestCompleteAPIError(t *testing.T) {
	// API 返回非 200 状态码时应返回错误
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limit exceeded")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), []Message{
		{Role: "user", Content: "hello"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "no choices")
}

func TestNewClientDefaultBaseURL(t *testing.T) {
	client := NewClient(&config.AIConfig{
		ChatAPIKey: "key",
		ChatModel:  "gpt-4o-mini",
	})
	assert.Equal(t, "https://api.openai.com/v1", client.baseURL)
}
