package synthesis

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	chartypes "github.com/go-echarts/go-echarts/v2/types"
	"github.com/google/cel-go/cel"

	"github.com/cellbyte/backend/internal/domain/dataset"
)

// chartKinds 支持的图表类型
var chartKinds = map[string]bool{
	"bar":     true,
	"line":    true,
	"scatter": true,
	"pie":     true,
}

// ChartSpec 表达式求值得到的图表规格
type ChartSpec struct {
	Kind   string
	Title  string
	X      []any
	Series []ChartSeries
}

// ChartSeries 一条数据序列，名称按字典序排列保证渲染稳定
type ChartSeries struct {
	Name   string
	Values []float64
}

// Chart 渲染完成的图表
type Chart struct {
	Kind  string `json:"kind"`
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// ChartExecutor 在受限表达式环境中执行图表程序
// 求值结果必须是合法的图表规格映射，缺失或无效的规格按失败处理
type ChartExecutor struct {
	frame *dataset.Frame
	env   *cel.Env
}

// NewChartExecutor 为数据集创建图表执行器
func NewChartExecutor(frame *dataset.Frame) (*ChartExecutor, error) {
	env, err := newDatasetEnv(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation environment: %w", err)
	}
	return &ChartExecutor{frame: frame, env: env}, nil
}

// Execute 编译求值表达式并将图表规格渲染为 HTML
func (e *ChartExecutor) Execute(program string) (any, *ExecError) {
	value, execErr := evaluate(e.env, e.frame, program)
	if execErr != nil {
		return nil, execErr
	}

	spec, err := parseChartSpec(value)
	if err != nil {
		return nil, &ExecError{Kind: "ChartSpecError", Message: err.Error()}
	}

	html, err := renderChart(spec)
	if err != nil {
		return nil, &ExecError{Kind: "RenderError", Message: err.Error()}
	}

	return &Chart{Kind: spec.Kind, Title: spec.Title, HTML: html}, nil
}

// parseChartSpec 校验并解析图表规格映射
func parseChartSpec(value any) (*ChartSpec, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expression must evaluate to a chart spec map, got %T", value)
	}

	kind, ok := m["kind"].(string)
	if !ok || !chartKinds[kind] {
		return nil, fmt.Errorf(`"kind" must be one of bar, line, scatter, pie`)
	}

	title, _ := m["title"].(string)

	x, ok := m["x"].([]any)
	if !ok || len(x) == 0 {
		return nil, fmt.Errorf(`"x" must be a non-empty list`)
	}

	rawSeries, ok := m["series"].(map[string]any)
	if !ok || len(rawSeries) == 0 {
		return nil, fmt.Errorf(`"series" must be a non-empty map of name to value list`)
	}

	names := make([]string, 0, len(rawSeries))
	for name := range rawSeries {
		names = append(names, name)
	}
	sort.Strings(names)

	series := make([]ChartSeries, 0, len(names))
	for _, name := range names {
		rawValues, ok := rawSeries[name].([]any)
		if !ok {
			return nil, fmt.Errorf("series %q must be a list of numbers", name)
		}
		if len(rawValues) != len(x) {
			return nil, fmt.Errorf(`series %q has %d values but "x" has %d entries`,
				name, len(rawValues), len(x))
		}
		values := make([]float64, len(rawValues))
		for i, raw := range rawValues {
			f, ok := toFloat(raw)
			if !ok {
				return nil, fmt.Errorf("series %q contains non-numeric value %v", name, raw)
			}
			values[i] = f
		}
		series = append(series, ChartSeries{Name: name, Values: values})
	}

	return &ChartSpec{Kind: kind, Title: title, X: x, Series: series}, nil
}

// renderChart 将图表规格渲染为自包含 HTML（暗色主题）
func renderChart(spec *ChartSpec) (string, error) {
	var buf bytes.Buffer

	globalOpts := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Theme: chartypes.ThemeChalk}),
		charts.WithTitleOpts(opts.Title{Title: spec.Title}),
	}

	switch spec.Kind {
	case "bar":
		chart := charts.NewBar()
		chart.SetGlobalOptions(globalOpts...)
		chart.SetXAxis(spec.X)
		for _, s := range spec.Series {
			data := make([]opts.BarData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.BarData{Value: v}
			}
			chart.AddSeries(s.Name, data)
		}
		if err := chart.Render(&buf); err != nil {
			return "", err
		}

	case "line":
		chart := charts.NewLine()
		chart.SetGlobalOptions(globalOpts...)
		chart.SetXAxis(spec.X)
		for _, s := range spec.Series {
			data := make([]opts.LineData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.LineData{Value: v}
			}
			chart.AddSeries(s.Name, data)
		}
		if err := chart.Render(&buf); err != nil {
			return "", err
		}

	case "scatter":
		chart := charts.NewScatter()
		chart.SetGlobalOptions(globalOpts...)
		chart.SetXAxis(spec.X)
		for _, s := range spec.Series {
			data := make([]opts.ScatterData, len(s.Values))
			for i, v := range s.Values {
				data[i] = opts.ScatterData{Value: v}
			}
			chart.AddSeries(s.Name, data)
		}
		if err := chart.Render(&buf); err != nil {
			return "", err
		}

	case "pie":
		chart := charts.NewPie()
		chart.SetGlobalOptions(globalOpts...)
		// 饼图使用首条序列的值与 x 标签配对
		s := spec.Series[0]
		data := make([]opts.PieData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.PieData{Name: fmt.Sprint(spec.X[i]), Value: v}
		}
		chart.AddSeries(s.Name, data)
		if err := chart.Render(&buf); err != nil {
			return "", err
		}

	default:
		return "", fmt.Errorf("unsupported chart kind %q", spec.Kind)
	}

	return buf.String(), nil
}
