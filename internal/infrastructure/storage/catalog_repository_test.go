package storage

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/domain/catalog"
)

// newTestRepo 创建基于内存数据库的仓储
func newTestRepo(t *testing.T) catalog.Repository {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCatalogRepository(db)
}

func sampleMetadata(name string) *catalog.FileMetadata {
	return &catalog.FileMetadata{
		Name:        name,
		Description: "Sales data with region and revenue columns",
		RowCount:    100,
		ColumnCount: 3,
		Columns:     []string{"region", "product", "revenue"},
		FileType:    "CSV",
		Delimiter:   ",",
		SampleRows: []map[string]any{
			{"region": "North", "product": "Widget", "revenue": float64(100)},
		},
		IngestedAt: time.Now().Truncate(time.Millisecond),
	}
}

func TestUpsertAndGet(t *testing.T) {
	repo := newTestRepo(t)

	meta := sampleMetadata("sales.csv")
	require.NoError(t, repo.Upsert(meta))

	got, err := repo.Get("sales.csv")
	require.NoError(t, err)
	assert.Equal(t, meta.Name, got.Name)
	assert.Equal(t, meta.Description, got.Description)
	assert.Equal(t, meta.RowCount, got.RowCount)
	assert.Equal(t, meta.Columns, got.Columns)
	assert.Equal(t, meta.SampleRows, got.SampleRows)
	assert.Equal(t, meta.IngestedAt.UnixMilli(), got.IngestedAt.UnixMilli())
}

func TestGetNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.Get("missing.csv")
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)
}

func TestUpsertOverwrites(t *testing.T) {
	repo := newTestRepo(t)

	meta := sampleMetadata("sales.csv")
	require.NoError(t, repo.Upsert(meta))

	// 同名覆盖
	meta.RowCount = 200
	meta.Description = "updated"
	require.NoError(t, repo.Upsert(meta))

	got, err := repo.Get("sales.csv")
	require.NoError(t, err)
	assert.Equal(t, 200, got.RowCount)
	assert.Equal(t, "updated", got.Description)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListOrderedByIngestedAt(t *testing.T) {
	repo := newTestRepo(t)

	older := sampleMetadata("a.csv")
	older.IngestedAt = time.Now().Add(-time.Hour)
	newer := sampleMetadata("b.csv")
	newer.IngestedAt = time.Now()

	require.NoError(t, repo.Upsert(newer))
	require.NoError(t, repo.Upsert(older))

	metas, err := repo.List()
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "a.csv", metas[0].Name)
	assert.Equal(t, "b.csv", metas[1].Name)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Upsert(sampleMetadata("sales.csv")))
	require.NoError(t, repo.Delete("sales.csv"))

	_, err := repo.Get("sales.csv")
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)

	// 删除不存在的文件返回 ErrFileNotFound
	err = repo.Delete("sales.csv")
	assert.ErrorIs(t, err, catalog.ErrFileNotFound)
}

func TestCount(t *testing.T) {
	repo := newTestRepo(t)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.Upsert(sampleMetadata("a.csv")))
	require.NoError(t, repo.Upsert(sampleMetadata("b.csv")))

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
