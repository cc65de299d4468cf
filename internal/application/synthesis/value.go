package synthesis

import (
	"encoding/json"
	"fmt"

	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// nativize 将求值结果递归转换为原生 Go 值
func nativize(val ref.Val) any {
	switch v := val.(type) {
	case traits.Mapper:
		out := make(map[string]any)
		it := v.Iterator()
		for it.HasNext() == types.True {
			key := it.Next()
			value, found := v.Find(key)
			if !found {
				continue
			}
			out[fmt.Sprint(key.Value())] = nativize(value)
		}
		return out
	case traits.Lister:
		var out []any
		it := v.Iterator()
		for it.HasNext() == types.True {
			out = append(out, nativize(it.Next()))
		}
		return out
	default:
		return val.Value()
	}
}

// toFloat 将动态值转换为 float64
func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// floatSlice 将求值列表转换为 float64 切片，缺失值被跳过
func floatSlice(arg ref.Val) ([]float64, error) {
	lister, ok := arg.(traits.Lister)
	if !ok {
		return nil, fmt.Errorf("expected a list, got %s", arg.Type().TypeName())
	}

	var out []float64
	it := lister.Iterator()
	for it.HasNext() == types.True {
		value := it.Next().Value()
		if value == nil {
			continue
		}
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("list contains non-numeric value %v", value)
		}
		out = append(out, f)
	}
	return out, nil
}

// coerceAnalysisResult 将任意求值结果规整为带 summary 的映射
func coerceAnalysisResult(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		if _, ok := v["summary"]; ok {
			return v
		}
		return map[string]any{
			"summary": formatValue(v),
			"data":    v,
		}
	default:
		return map[string]any{
			"summary": formatValue(value),
			"data":    value,
		}
	}
}

// formatValue 将值格式化为稳定的可读文本
func formatValue(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}
