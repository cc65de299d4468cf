package synthesis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"gonum.org/v1/gonum/stat"

	"github.com/cellbyte/backend/internal/domain/dataset"
)

// AnalysisExecutor 在受限表达式环境中执行分析程序
// 环境只暴露数据集和固定的统计函数库，不具备任何文件、网络或进程能力
type AnalysisExecutor struct {
	frame *dataset.Frame
	env   *cel.Env
}

// NewAnalysisExecutor 为数据集创建分析执行器
func NewAnalysisExecutor(frame *dataset.Frame) (*AnalysisExecutor, error) {
	env, err := newDatasetEnv(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluation environment: %w", err)
	}
	return &AnalysisExecutor{frame: frame, env: env}, nil
}

// Execute 编译并求值表达式，结果规整为带 summary 的映射
func (e *AnalysisExecutor) Execute(program string) (any, *ExecError) {
	value, execErr := evaluate(e.env, e.frame, program)
	if execErr != nil {
		return nil, execErr
	}
	if value == nil {
		return nil, &ExecError{Kind: "ResultError", Message: "expression evaluated to null"}
	}
	return coerceAnalysisResult(value), nil
}

// evaluate 编译并求值表达式，返回原生 Go 值
func evaluate(env *cel.Env, frame *dataset.Frame, program string) (any, *ExecError) {
	if strings.TrimSpace(program) == "" {
		return nil, &ExecError{Kind: "EmptyProgram", Message: "completion contained no expression"}
	}

	ast, iss := env.Compile(program)
	if iss != nil && iss.Err() != nil {
		return nil, &ExecError{Kind: "CompileError", Message: iss.Err().Error()}
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, &ExecError{Kind: "CompileError", Message: err.Error()}
	}

	out, _, err := prg.Eval(map[string]any{"df": frame.Records()})
	if err != nil {
		return nil, &ExecError{Kind: "EvaluationError", Message: err.Error()}
	}

	return nativize(out), nil
}

// newDatasetEnv 构建绑定数据集与统计函数库的求值环境
func newDatasetEnv(frame *dataset.Frame) (*cel.Env, error) {
	adapt := func(value any) ref.Val {
		return types.DefaultTypeAdapter.NativeToValue(value)
	}

	listStat := func(name string, fn func(xs []float64) (float64, error)) cel.EnvOption {
		return cel.Function(name,
			cel.Overload(name+"_list",
				[]*cel.Type{cel.ListType(cel.DynType)}, cel.DoubleType,
				cel.UnaryBinding(func(arg ref.Val) ref.Val {
					xs, err := floatSlice(arg)
					if err != nil {
						return types.NewErr("%s: %s", name, err.Error())
					}
					if len(xs) == 0 {
						return types.NewErr("%s of an empty list", name)
					}
					v, err := fn(xs)
					if err != nil {
						return types.NewErr("%s: %s", name, err.Error())
					}
					return adapt(v)
				}),
			),
		)
	}

	return cel.NewEnv(
		cel.Variable("df", cel.ListType(cel.MapType(cel.StringType, cel.DynType))),

		cel.Function("column",
			cel.Overload("column_string",
				[]*cel.Type{cel.StringType}, cel.ListType(cel.DynType),
				cel.UnaryBinding(func(name ref.Val) ref.Val {
					values, err := frame.Values(name.Value().(string))
					if err != nil {
						return types.NewErr("%s", err.Error())
					}
					return adapt(values)
				}),
			),
		),

		cel.Function("numbers",
			cel.Overload("numbers_string",
				[]*cel.Type{cel.StringType}, cel.ListType(cel.DoubleType),
				cel.UnaryBinding(func(name ref.Val) ref.Val {
					nums, err := frame.Numbers(name.Value().(string))
					if err != nil {
						return types.NewErr("%s", err.Error())
					}
					return adapt(nums)
				}),
			),
		),

		listStat("mean", func(xs []float64) (float64, error) {
			return stat.Mean(xs, nil), nil
		}),
		listStat("median", func(xs []float64) (float64, error) {
			sorted := append([]float64(nil), xs...)
			sort.Float64s(sorted)
			return stat.Quantile(0.5, stat.Empirical, sorted, nil), nil
		}),
		listStat("stddev", func(xs []float64) (float64, error) {
			if len(xs) < 2 {
				return 0, nil
			}
			return stat.StdDev(xs, nil), nil
		}),
		listStat("variance", func(xs []float64) (float64, error) {
			if len(xs) < 2 {
				return 0, nil
			}
			return stat.Variance(xs, nil), nil
		}),

		cel.Function("corr",
			cel.Overload("corr_string_string",
				[]*cel.Type{cel.StringType, cel.StringType}, cel.DoubleType,
				cel.BinaryBinding(func(a, b ref.Val) ref.Val {
					xs, ys, err := pairedNumbers(frame, a.Value().(string), b.Value().(string))
					if err != nil {
						return types.NewErr("corr: %s", err.Error())
					}
					if len(xs) < 2 {
						return types.NewErr("corr: not enough paired numeric values")
					}
					return adapt(roundTo(stat.Correlation(xs, ys, nil), 4))
				}),
			),
		),

		cel.Function("group_mean",
			cel.Overload("group_mean_string_string",
				[]*cel.Type{cel.StringType, cel.StringType}, cel.MapType(cel.StringType, cel.DoubleType),
				cel.BinaryBinding(func(by, value ref.Val) ref.Val {
					groups, err := groupNumbers(frame, by.Value().(string), value.Value().(string))
					if err != nil {
						return types.NewErr("group_mean: %s", err.Error())
					}
					out := make(map[string]float64, len(groups))
					for key, xs := range groups {
						out[key] = roundTo(stat.Mean(xs, nil), 4)
					}
					return adapt(out)
				}),
			),
		),

		cel.Function("group_sum",
			cel.Overload("group_sum_string_string",
				[]*cel.Type{cel.StringType, cel.StringType}, cel.MapType(cel.StringType, cel.DoubleType),
				cel.BinaryBinding(func(by, value ref.Val) ref.Val {
					groups, err := groupNumbers(frame, by.Value().(string), value.Value().(string))
					if err != nil {
						return types.NewErr("group_sum: %s", err.Error())
					}
					out := make(map[string]float64, len(groups))
					for key, xs := range groups {
						var sum float64
						for _, x := range xs {
							sum += x
						}
						out[key] = roundTo(sum, 4)
					}
					return adapt(out)
				}),
			),
		),

		cel.Function("group_count",
			cel.Overload("group_count_string",
				[]*cel.Type{cel.StringType}, cel.MapType(cel.StringType, cel.IntType),
				cel.UnaryBinding(func(by ref.Val) ref.Val {
					values, err := frame.Values(by.Value().(string))
					if err != nil {
						return types.NewErr("group_count: %s", err.Error())
					}
					out := make(map[string]int64)
					for _, v := range values {
						if v == nil {
							continue
						}
						out[fmt.Sprint(v)]++
					}
					return adapt(out)
				}),
			),
		),

		cel.Function("value_counts",
			cel.Overload("value_counts_string",
				[]*cel.Type{cel.StringType}, cel.MapType(cel.StringType, cel.IntType),
				cel.UnaryBinding(func(name ref.Val) ref.Val {
					values, err := frame.Values(name.Value().(string))
					if err != nil {
						return types.NewErr("value_counts: %s", err.Error())
					}
					out := make(map[string]int64)
					for _, v := range values {
						if v == nil {
							continue
						}
						out[fmt.Sprint(v)]++
					}
					return adapt(out)
				}),
			),
		),

		cel.Function("distinct",
			cel.Overload("distinct_string",
				[]*cel.Type{cel.StringType}, cel.ListType(cel.DynType),
				cel.UnaryBinding(func(name ref.Val) ref.Val {
					values, err := frame.Values(name.Value().(string))
					if err != nil {
						return types.NewErr("distinct: %s", err.Error())
					}
					seen := make(map[any]bool)
					var out []any
					for _, v := range values {
						if v == nil || seen[v] {
							continue
						}
						seen[v] = true
						out = append(out, v)
					}
					return adapt(out)
				}),
			),
		),

		cel.Function("round",
			cel.Overload("round_double_int",
				[]*cel.Type{cel.DoubleType, cel.IntType}, cel.DoubleType,
				cel.BinaryBinding(func(x, digits ref.Val) ref.Val {
					f, ok := toFloat(x.Value())
					if !ok {
						return types.NewErr("round: expected a number")
					}
					d, ok := digits.Value().(int64)
					if !ok {
						return types.NewErr("round: digits must be an integer")
					}
					return adapt(roundTo(f, int(d)))
				}),
			),
		),
	)
}

// roundTo 四舍五入到指定小数位
func roundTo(x float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(x*p) / p
}

// pairedNumbers 两列的成对数值，任一侧缺失的行被跳过
func pairedNumbers(frame *dataset.Frame, a, b string) ([]float64, []float64, error) {
	va, err := frame.Values(a)
	if err != nil {
		return nil, nil, err
	}
	vb, err := frame.Values(b)
	if err != nil {
		return nil, nil, err
	}

	var xs, ys []float64
	for i := range va {
		fa, okA := toFloat(va[i])
		fb, okB := toFloat(vb[i])
		if okA && okB {
			xs = append(xs, fa)
			ys = append(ys, fb)
		}
	}
	return xs, ys, nil
}

// groupNumbers 按分组列收集数值列的值
func groupNumbers(frame *dataset.Frame, by, value string) (map[string][]float64, error) {
	keys, err := frame.Values(by)
	if err != nil {
		return nil, err
	}
	values, err := frame.Values(value)
	if err != nil {
		return nil, err
	}

	groups := make(map[string][]float64)
	for i := range keys {
		if keys[i] == nil {
			continue
		}
		f, ok := toFloat(values[i])
		if !ok {
			continue
		}
		key := fmt.Sprint(keys[i])
		groups[key] = append(groups[key], f)
	}
	return groups, nil
}
