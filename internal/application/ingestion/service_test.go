package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/domain/catalog"
	"github.com/cellbyte/backend/internal/domain/dataset"
	"github.com/cellbyte/backend/internal/domain/events"
	"github.com/cellbyte/backend/internal/infrastructure/datafile"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
)

// fakeIndex 记录写入与重建调用的内存索引
type fakeIndex struct {
	mu       sync.Mutex
	docs     []vectorstore.Document
	rebuilds [][]vectorstore.Document
	exists   bool
	addErr   error
}

func (f *fakeIndex) Add(_ context.Context, docs []vectorstore.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.docs = append(f.docs, docs...)
	f.exists = true
	return nil
}

func (f *fakeIndex) Rebuild(_ context.Context, retained []vectorstore.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds = append(f.rebuilds, retained)
	f.docs = retained
	f.exists = len(retained) > 0
	return nil
}

func (f *fakeIndex) Exists() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.exists
}

// fakeDescriber 返回固定描述或错误
type fakeDescriber struct {
	description string
	err         error
	prompts     []string
}

func (f *fakeDescriber) Complete(_ context.Context, messages []llm.Message) (string, error) {
	f.prompts = append(f.prompts, messages[len(messages)-1].Content)
	if f.err != nil {
		return "", f.err
	}
	return f.description, nil
}

// memRepo 内存目录仓储
type memRepo struct {
	mu    sync.Mutex
	metas []*catalog.FileMetadata
}

func (r *memRepo) List() ([]*catalog.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*catalog.FileMetadata, len(r.metas))
	copy(out, r.metas)
	return out, nil
}

func (r *memRepo) Get(name string) (*catalog.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.metas {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, catalog.ErrFileNotFound
}

func (r *memRepo) Upsert(meta *catalog.FileMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.metas {
		if m.Name == meta.Name {
			r.metas[i] = meta
			return nil
		}
	}
	r.metas = append(r.metas, meta)
	return nil
}

func (r *memRepo) Delete(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, m := range r.metas {
		if m.Name == name {
			r.metas = append(r.metas[:i], r.metas[i+1:]...)
			return nil
		}
	}
	return catalog.ErrFileNotFound
}

func (r *memRepo) Count() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.metas), nil
}

// recordingBus 记录发布事件的总线
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Subscribe(events.EventType, events.Handler) func()           { return func() {} }
func (b *recordingBus) SubscribeMultiple([]events.EventType, events.Handler) func() { return func() {} }
func (b *recordingBus) Publish(event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}
func (b *recordingBus) Close() {}

type countingRefresher struct {
	mu    sync.Mutex
	count int
}

func (r *countingRefresher) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
}

func (r *countingRefresher) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func newTestService(t *testing.T, describer Describer) (*Service, *memRepo, *fakeIndex, *recordingBus, *countingRefresher) {
	t.Helper()
	files, err := datafile.NewStoreAt(t.TempDir())
	require.NoError(t, err)

	repo := &memRepo{}
	index := &fakeIndex{}
	bus := &recordingBus{}
	refresher := &countingRefresher{}
	svc := NewService(files, repo, index, describer, bus, refresher)
	return svc, repo, index, bus, refresher
}

const salesCSV = "region,revenue\nNorth,100\nSouth,200\n"

func TestIngest(t *testing.T) {
	describer := &fakeDescriber{description: "Regional sales revenue figures."}
	svc, repo, index, bus, refresher := newTestService(t, describer)

	result, err := svc.Ingest(context.Background(), "sales.csv", []byte(salesCSV))
	require.NoError(t, err)

	// 摄取结果
	assert.Equal(t, 2, result.RowsIndexed)
	assert.Equal(t, "sales.csv", result.File.Name)
	assert.Equal(t, "Regional sales revenue figures.", result.File.Description)
	assert.Equal(t, 2, result.File.RowCount)
	assert.Equal(t, []string{"region", "revenue"}, result.File.Columns)
	assert.Equal(t, "CSV", result.File.FileType)

	// 目录已注册
	meta, err := repo.Get("sales.csv")
	require.NoError(t, err)
	assert.Len(t, meta.SampleRows, 2)

	// 行被展平后写入索引
	require.Len(t, index.docs, 2)
	assert.Equal(t, "region: North | revenue: 100", index.docs[0].Content)
	assert.Equal(t, "sales.csv", index.docs[0].Source)
	assert.Equal(t, 1, index.docs[1].RowIndex)

	// 事件与提示词刷新
	require.Len(t, bus.events, 1)
	catalogEvent := bus.events[0].(*events.CatalogEvent)
	assert.Equal(t, events.CatalogFileIngested, catalogEvent.EventType)
	assert.Equal(t, 1, catalogEvent.RemainingFiles)
	assert.Equal(t, 1, refresher.Count())

	// 描述提示词包含数据集上下文
	require.Len(t, describer.prompts, 1)
	assert.Contains(t, describer.prompts[0], "DATASET INFO:")
}

func TestIngestDescriptionFallback(t *testing.T) {
	describer := &fakeDescriber{err: errors.New("model overloaded")}
	svc, _, _, _, _ := newTestService(t, describer)

	result, err := svc.Ingest(context.Background(), "sales.csv", []byte(salesCSV))
	require.NoError(t, err)

	// 描述失败不阻断摄取，使用降级文本
	assert.Contains(t, result.File.Description, "[Auto-generated description failed: model overloaded]")
	assert.Contains(t, result.File.Description, "File contains 2 rows and 2 columns: region, revenue")
}

func TestIngestIndexFailure(t *testing.T) {
	svc, repo, index, _, _ := newTestService(t, &fakeDescriber{description: "ok"})
	index.addErr = errors.New("disk full")

	_, err := svc.Ingest(context.Background(), "sales.csv", []byte(salesCSV))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// 索引失败时文件不进入目录
	count, _ := repo.Count()
	assert.Equal(t, 0, count)
}

func TestIngestEmptyFile(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, &fakeDescriber{description: "ok"})

	_, err := svc.Ingest(context.Background(), "empty.csv", []byte(""))
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrEmptyFile)
}

func TestDeleteRebuildsFromRetained(t *testing.T) {
	svc, _, index, bus, refresher := newTestService(t, &fakeDescriber{description: "ok"})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "sales.csv", []byte(salesCSV))
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, "costs.csv", []byte("item,cost\nrent,50\n"))
	require.NoError(t, err)

	remaining, err := svc.Delete(ctx, "sales.csv")
	require.NoError(t, err)
	assert.Equal(t, 1, remaining)

	// 索引由保留文件的文档整体重建
	require.Len(t, index.rebuilds, 1)
	require.Len(t, index.rebuilds[0], 1)
	assert.Equal(t, "item: rent | cost: 50", index.rebuilds[0][0].Content)
	assert.Equal(t, "costs.csv", index.rebuilds[0][0].Source)

	deleteEvent := bus.events[len(bus.events)-1].(*events.CatalogEvent)
	assert.Equal(t, events.CatalogFileDeleted, deleteEvent.EventType)
	assert.Equal(t, 1, deleteEvent.RemainingFiles)
	assert.Equal(t, 3, refresher.Count())
}

func TestDeleteLastFileDiscardsIndex(t *testing.T) {
	svc, _, index, _, _ := newTestService(t, &fakeDescriber{description: "ok"})
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "sales.csv", []byte(salesCSV))
	require.NoError(t, err)

	remaining, err := svc.Delete(ctx, "sales.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)

	// 最后一个文件删除后索引被丢弃且不重建
	require.Len(t, index.rebuilds, 1)
	assert.Empty(t, index.rebuilds[0])
	assert.False(t, index.Exists())
}

func TestDeleteUnknownFile(t *testing.T) {
	svc, _, index, bus, refresher := newTestService(t, &fakeDescriber{description: "ok"})

	_, err := svc.Delete(context.Background(), "missing.csv")
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)

	// 未知文件删除无任何副作用
	assert.Empty(t, index.rebuilds)
	assert.Empty(t, bus.events)
	assert.Equal(t, 0, refresher.Count())
}

func TestFrameDocumentsMissingValues(t *testing.T) {
	frame := dataset.NewFrame("gaps.csv",
		[]string{"a", "b"},
		[][]string{{"1", ""}, {"", "x"}},
	)

	docs := FrameDocuments(frame)
	require.Len(t, docs, 2)
	assert.Equal(t, "a: 1 | b: ", docs[0].Content)
	assert.Equal(t, "a:  | b: x", docs[1].Content)
	assert.True(t, strings.HasSuffix(docs[0].Content, "b: "))
}
