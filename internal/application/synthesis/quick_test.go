package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/domain/dataset"
)

func TestQuickDescribe(t *testing.T) {
	desc := QuickDescribe(salesFrame(t))

	// 只有数值列出现在结果中
	require.Contains(t, desc, "revenue")
	assert.NotContains(t, desc, "region")

	revenue := desc["revenue"]
	assert.Equal(t, float64(4), revenue["count"])
	assert.Equal(t, float64(125), revenue["mean"])
	assert.Equal(t, float64(50), revenue["min"])
	assert.Equal(t, float64(200), revenue["max"])
}

func TestQuickCorrelation(t *testing.T) {
	frame := dataset.NewFrame("xy.csv",
		[]string{"x", "y", "label"},
		[][]string{{"1", "2", "a"}, {"2", "4", "b"}, {"3", "6", "c"}},
	)

	corr := QuickCorrelation(frame)
	require.Contains(t, corr, "x")
	assert.Equal(t, float64(1), corr["x"]["x"])
	assert.Equal(t, float64(1), corr["x"]["y"])
	assert.NotContains(t, corr, "label")
}

func TestQuickValueCounts(t *testing.T) {
	counts, err := QuickValueCounts(salesFrame(t), "region")
	require.NoError(t, err)
	assert.Equal(t, 2, counts["North"])
	assert.Equal(t, 2, counts["South"])
	assert.Equal(t, 1, counts["East"])
}

func TestQuickValueCountsUnknownColumn(t *testing.T) {
	_, err := QuickValueCounts(salesFrame(t), "missing")
	require.Error(t, err)

	var colErr *dataset.ColumnNotFoundError
	assert.ErrorAs(t, err, &colErr)
}
