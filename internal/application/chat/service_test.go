package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/domain/catalog"
	domainchat "github.com/cellbyte/backend/internal/domain/chat"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
)

// fakeChatClient 按脚本依次返回助手消息
type fakeChatClient struct {
	responses []*llm.Message
	err       error
	calls     int
	seen      [][]llm.Message
}

func (c *fakeChatClient) ChatCompletion(_ context.Context, messages []llm.Message, _ []llm.ToolDef) (*llm.Message, error) {
	c.seen = append(c.seen, append([]llm.Message(nil), messages...))
	if c.err != nil {
		return nil, c.err
	}
	idx := c.calls
	c.calls++
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	return c.responses[idx], nil
}

// memRepo 内存目录仓储
type memRepo struct {
	metas map[string]*catalog.FileMetadata
}

func newMemRepo() *memRepo {
	return &memRepo{metas: make(map[string]*catalog.FileMetadata)}
}

func (r *memRepo) List() ([]*catalog.FileMetadata, error) {
	var out []*catalog.FileMetadata
	for _, m := range r.metas {
		out = append(out, m)
	}
	return out, nil
}

func (r *memRepo) Get(name string) (*catalog.FileMetadata, error) {
	if m, ok := r.metas[name]; ok {
		return m, nil
	}
	return nil, catalog.ErrFileNotFound
}

func (r *memRepo) Upsert(meta *catalog.FileMetadata) error {
	r.metas[meta.Name] = meta
	return nil
}

func (r *memRepo) Delete(name string) error {
	if _, ok := r.metas[name]; !ok {
		return catalog.ErrFileNotFound
	}
	delete(r.metas, name)
	return nil
}

func (r *memRepo) Count() (int, error) { return len(r.metas), nil }

// fakeSearcher 固定结果的检索器
type fakeSearcher struct {
	exists  bool
	results []vectorstore.Result
	err     error
}

func (s *fakeSearcher) Exists() bool { return s.exists }

func (s *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]vectorstore.Result, error) {
	return s.results, s.err
}

// fakeAnalytics 固定结果的分析器
type fakeAnalytics struct {
	result *synthesis.AnalysisResult
	err    error
}

func (a *fakeAnalytics) Run(_ context.Context, _, _ string) (*synthesis.AnalysisResult, error) {
	return a.result, a.err
}

// fakePlots 固定结果的绘图器
type fakePlots struct {
	result *synthesis.PlotResult
	err    error
}

func (p *fakePlots) Run(_ context.Context, _, _ string) (*synthesis.PlotResult, error) {
	return p.result, p.err
}

func newTestService(client ChatClient, repo catalog.Repository, searcher Searcher) *Service {
	return NewService(client, repo,
		searcher,
		&fakeAnalytics{result: &synthesis.AnalysisResult{Summary: "mean is 125"}},
		&fakePlots{result: &synthesis.PlotResult{Chart: &synthesis.Chart{Kind: "bar", Title: "t"}}},
	)
}

func assistantMsg(content string) *llm.Message {
	return &llm.Message{Role: "assistant", Content: content}
}

func toolCallMsg(id, name, args string) *llm.Message {
	return &llm.Message{
		Role: "assistant",
		ToolCalls: []llm.ToolCall{
			{ID: id, Type: "function", Function: llm.FunctionCall{Name: name, Arguments: args}},
		},
	}
}

func TestChatSimpleAnswer(t *testing.T) {
	client := &fakeChatClient{responses: []*llm.Message{assistantMsg("hello there")}}
	service := newTestService(client, newMemRepo(), &fakeSearcher{})

	history := []domainchat.Turn{
		{Role: domainchat.RoleUser, Content: "hi"},
		{Role: domainchat.RoleAssistant, Content: "hello"},
	}

	response, updated, err := service.Chat(context.Background(), "how are you", history)
	require.NoError(t, err)
	assert.Equal(t, "hello there", response)

	// 前缀逐字节保持不变
	require.Len(t, updated, 4)
	assert.Equal(t, history[0], updated[0])
	assert.Equal(t, history[1], updated[1])
	assert.Equal(t, domainchat.Turn{Role: domainchat.RoleUser, Content: "how are you"}, updated[2])
	assert.Equal(t, domainchat.RoleAssistant, updated[3].Role)

	// 发送的消息以系统提示词开头
	first := client.seen[0]
	assert.Equal(t, "system", first[0].Role)
	assert.Contains(t, first[0].Content, "CellByte")
}

func TestChatWithToolCall(t *testing.T) {
	client := &fakeChatClient{responses: []*llm.Message{
		toolCallMsg("call_1", "run_analytics", `{"filename":"sales.csv","query":"mean revenue"}`),
		assistantMsg("The mean revenue is 125."),
	}}
	service := newTestService(client, newMemRepo(), &fakeSearcher{})

	response, updated, err := service.Chat(context.Background(), "what is the mean revenue", nil)
	require.NoError(t, err)
	assert.Equal(t, "The mean revenue is 125.", response)

	// user, assistant(tool_calls), tool, assistant
	require.Len(t, updated, 4)
	assert.Equal(t, domainchat.RoleUser, updated[0].Role)
	require.Len(t, updated[1].ToolCalls, 1)
	assert.Equal(t, "call_1", updated[1].ToolCalls[0].ID)
	assert.Equal(t, "run_analytics", updated[1].ToolCalls[0].Name)
	assert.Equal(t, domainchat.RoleTool, updated[2].Role)
	assert.Equal(t, "call_1", updated[2].ToolCallID)
	assert.Contains(t, updated[2].Content, "mean is 125")
	assert.Equal(t, domainchat.RoleAssistant, updated[3].Role)

	// 更新后的历史可以原样通过校验并重放
	require.NoError(t, domainchat.ValidateHistory(updated))
}

func TestChatToolErrorBecomesText(t *testing.T) {
	client := &fakeChatClient{responses: []*llm.Message{
		toolCallMsg("call_1", "search_data", `{"query":"revenue"}`),
		assistantMsg("done"),
	}}
	searcher := &fakeSearcher{exists: true, err: errors.New("index corrupted")}
	service := newTestService(client, newMemRepo(), searcher)

	_, updated, err := service.Chat(context.Background(), "find revenue", nil)
	require.NoError(t, err)

	require.Len(t, updated, 4)
	assert.Equal(t, domainchat.RoleTool, updated[2].Role)
	assert.Contains(t, updated[2].Content, "Error: index corrupted")
}

func TestChatInvalidHistoryRejected(t *testing.T) {
	client := &fakeChatClient{responses: []*llm.Message{assistantMsg("x")}}
	service := newTestService(client, newMemRepo(), &fakeSearcher{})

	// 孤立的 tool 消息
	history := []domainchat.Turn{
		{Role: domainchat.RoleTool, Content: "orphan", ToolCallID: "ghost"},
	}

	_, updated, err := service.Chat(context.Background(), "hi", history)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainchat.ErrOrphanToolTurn)
	assert.Nil(t, updated)
	assert.Zero(t, client.calls)
}

func TestChatUpstreamErrorAllOrNothing(t *testing.T) {
	upstream := errors.New("completion unavailable")
	client := &fakeChatClient{err: upstream}
	service := newTestService(client, newMemRepo(), &fakeSearcher{})

	_, updated, err := service.Chat(context.Background(), "hi", []domainchat.Turn{
		{Role: domainchat.RoleUser, Content: "earlier"},
		{Role: domainchat.RoleAssistant, Content: "reply"},
	})
	assert.ErrorIs(t, err, upstream)
	assert.Nil(t, updated)
}

func TestChatDuplicateToolCallIDSkipped(t *testing.T) {
	duplicated := &llm.Message{
		Role: "assistant",
		ToolCalls: []llm.ToolCall{
			{ID: "call_1", Type: "function", Function: llm.FunctionCall{Name: "search_data", Arguments: `{"query":"a"}`}},
			{ID: "call_1", Type: "function", Function: llm.FunctionCall{Name: "search_data", Arguments: `{"query":"a"}`}},
		},
	}
	client := &fakeChatClient{responses: []*llm.Message{duplicated, assistantMsg("done")}}
	service := newTestService(client, newMemRepo(), &fakeSearcher{exists: true})

	_, updated, err := service.Chat(context.Background(), "hi", nil)
	require.NoError(t, err)

	toolTurns := 0
	for _, turn := range updated {
		if turn.Role == domainchat.RoleTool {
			toolTurns++
		}
	}
	assert.Equal(t, 1, toolTurns)
}

func TestRefreshRebuildsPrompt(t *testing.T) {
	repo := newMemRepo()
	client := &fakeChatClient{responses: []*llm.Message{assistantMsg("ok")}}
	service := newTestService(client, repo, &fakeSearcher{})

	gen := service.PromptGeneration()
	require.GreaterOrEqual(t, gen, uint64(1))

	require.NoError(t, repo.Upsert(&catalog.FileMetadata{
		Name:        "sales.csv",
		Description: "Sales figures",
		RowCount:    4,
		ColumnCount: 3,
		Columns:     []string{"region", "product", "revenue"},
		IngestedAt:  time.Now(),
	}))
	service.Refresh()

	// 代数单调递增
	assert.Equal(t, gen+1, service.PromptGeneration())

	// 新提示词包含新文件
	_, _, err := service.Chat(context.Background(), "hi", nil)
	require.NoError(t, err)
	system := client.seen[0][0]
	assert.Contains(t, system.Content, "sales.csv")
	assert.Contains(t, system.Content, "Sales figures")
}

func TestSearchFormatting(t *testing.T) {
	tests := []struct {
		name     string
		searcher *fakeSearcher
		expected string
	}{
		{
			"无索引",
			&fakeSearcher{exists: false},
			"No data has been ingested yet. Please upload CSV files first.",
		},
		{
			"无结果",
			&fakeSearcher{exists: true},
			"No relevant data found for your query.",
		},
		{
			"格式化结果",
			&fakeSearcher{exists: true, results: []vectorstore.Result{
				{Source: "sales.csv", Content: "region: North | revenue: 100"},
				{Source: "sales.csv", Content: "region: South | revenue: 50"},
			}},
			"[From sales.csv]: region: North | revenue: 100\n\n[From sales.csv]: region: South | revenue: 50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := newTestService(&fakeChatClient{responses: []*llm.Message{assistantMsg("x")}}, newMemRepo(), tt.searcher)
			text, err := service.Search(context.Background(), "revenue", 5)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestAnalyticsToolFileNotFoundListsAvailable(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, repo.Upsert(&catalog.FileMetadata{Name: "people.csv", IngestedAt: time.Now()}))

	client := &fakeChatClient{responses: []*llm.Message{
		toolCallMsg("call_1", "run_analytics", `{"filename":"missing.csv","query":"mean"}`),
		assistantMsg("done"),
	}}
	service := NewService(client, repo, &fakeSearcher{},
		&fakeAnalytics{err: fmt.Errorf("dataset: %w", catalog.ErrFileNotFound)},
		&fakePlots{},
	)

	_, updated, err := service.Chat(context.Background(), "analyze missing.csv", nil)
	require.NoError(t, err)
	assert.Contains(t, updated[2].Content, `"missing.csv" not found`)
	assert.Contains(t, updated[2].Content, "people.csv")
}
