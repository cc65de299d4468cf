package synthesis

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cellbyte/backend/internal/domain/dataset"
)

// QuickDescribe 数值列的描述性统计，不经过模型
func QuickDescribe(frame *dataset.Frame) map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, name := range frame.NumericColumns() {
		xs, err := frame.Numbers(name)
		if err != nil || len(xs) == 0 {
			continue
		}

		sorted := append([]float64(nil), xs...)
		sort.Float64s(sorted)

		desc := map[string]float64{
			"count": float64(len(xs)),
			"mean":  roundTo(stat.Mean(xs, nil), 4),
			"min":   sorted[0],
			"25%":   roundTo(stat.Quantile(0.25, stat.Empirical, sorted, nil), 4),
			"50%":   roundTo(stat.Quantile(0.5, stat.Empirical, sorted, nil), 4),
			"75%":   roundTo(stat.Quantile(0.75, stat.Empirical, sorted, nil), 4),
			"max":   sorted[len(sorted)-1],
		}
		if len(xs) >= 2 {
			desc["std"] = roundTo(stat.StdDev(xs, nil), 4)
		} else {
			desc["std"] = 0
		}
		out[name] = desc
	}
	return out
}

// QuickCorrelation 数值列间的皮尔逊相关系数矩阵
func QuickCorrelation(frame *dataset.Frame) map[string]map[string]float64 {
	numeric := frame.NumericColumns()
	out := make(map[string]map[string]float64, len(numeric))

	for _, a := range numeric {
		row := make(map[string]float64, len(numeric))
		for _, b := range numeric {
			if a == b {
				row[b] = 1
				continue
			}
			xs, ys, err := pairedNumbers(frame, a, b)
			if err != nil || len(xs) < 2 {
				continue
			}
			row[b] = roundTo(stat.Correlation(xs, ys, nil), 4)
		}
		out[a] = row
	}
	return out
}

// QuickValueCounts 某列各取值的出现次数
func QuickValueCounts(frame *dataset.Frame, column string) (map[string]int, error) {
	values, err := frame.Values(column)
	if err != nil {
		return nil, err
	}

	out := make(map[string]int)
	for _, v := range values {
		if v == nil {
			continue
		}
		out[fmt.Sprint(v)]++
	}
	return out, nil
}
