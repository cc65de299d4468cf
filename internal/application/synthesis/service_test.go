package synthesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/domain/catalog"
	"github.com/cellbyte/backend/internal/infrastructure/datafile"
)

func newTestFiles(t *testing.T) *datafile.Store {
	t.Helper()
	store, err := datafile.NewStoreAt(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save("sales.csv",
		[]byte("region,product,revenue\nNorth,Widget,100\nNorth,Gadget,200\nSouth,Widget,50\nSouth,Gadget,150\n")))
	return store
}

func TestAnalyticsRunGroupMeanScenario(t *testing.T) {
	files := newTestFiles(t)

	// 第一次补全引用不存在的列，第二次给出正确表达式
	client := &scriptedClient{completions: []string{
		"```\ngroup_mean(\"area\", \"revenue\")\n```",
		"```\ngroup_mean(\"region\", \"revenue\")\n```",
	}}

	service := NewAnalyticsService(NewLoop(client), files)

	result, err := service.Run(context.Background(), "sales.csv", "average revenue by region")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, `group_mean("region", "revenue")`, result.Program)

	data := result.Data.(map[string]any)
	assert.Equal(t, float64(150), data["North"])
	assert.Equal(t, float64(100), data["South"])

	// 种子消息包含数据集上下文
	seed := client.transcripts[0][0].Content
	assert.Contains(t, seed, "DATASET INFO:")
	assert.Contains(t, seed, "sales.csv")
	assert.Contains(t, seed, "average revenue by region")
}

func TestAnalyticsRunFileNotFound(t *testing.T) {
	files := newTestFiles(t)
	service := NewAnalyticsService(NewLoop(&scriptedClient{completions: []string{"x"}}), files)

	_, err := service.Run(context.Background(), "missing.csv", "anything")
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)
}

func TestAnalyticsQuickOperations(t *testing.T) {
	files := newTestFiles(t)
	service := NewAnalyticsService(NewLoop(&scriptedClient{completions: []string{"x"}}), files)

	desc, err := service.Describe("sales.csv")
	require.NoError(t, err)
	assert.Contains(t, desc, "revenue")

	counts, err := service.ValueCounts("sales.csv", "region")
	require.NoError(t, err)
	assert.Equal(t, 2, counts["North"])

	corr, err := service.Correlation("sales.csv")
	require.NoError(t, err)
	assert.Contains(t, corr, "revenue")
}

func TestPlotRun(t *testing.T) {
	files := newTestFiles(t)

	client := &scriptedClient{completions: []string{
		`{"kind": "bar", "title": "Revenue", "x": ["North", "South"], "series": {"revenue": [150.0, 100.0]}}`,
	}}
	service := NewPlotService(NewLoop(client), files)

	result, err := service.Run(context.Background(), "sales.csv", "bar chart of revenue by region")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "bar", result.Chart.Kind)
	assert.NotEmpty(t, result.Chart.HTML)
}
