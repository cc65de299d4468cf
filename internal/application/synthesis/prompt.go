package synthesis

import "fmt"

// functionLibraryDoc 暴露给模型的函数库说明
// 与执行环境中注册的函数严格一一对应
const functionLibraryDoc = `AVAILABLE FUNCTIONS:
- column(name): all values of a column as a list
- numbers(name): numeric values of a column (missing values skipped)
- mean(list), median(list), stddev(list), variance(list): statistics over a numeric list
- corr(col_a, col_b): Pearson correlation between two numeric columns
- group_mean(by, value), group_sum(by, value): per-group aggregates, keyed by group label
- group_count(by): row count per group label
- value_counts(name): occurrence count per distinct value of a column
- distinct(name): distinct values of a column
- round(x, digits): round a number to the given number of decimal places
The dataset is also bound as df, a list of row maps, usable with standard
expression operators and macros (df.filter(...), df.map(...), size(df), df[0].col).`

// analysisRequirements 分析表达式的硬性要求
const analysisRequirements = `REQUIREMENTS:
1. Only use columns that exist in the dataset.
2. Round numeric results to 4 decimal places with round(x, 4).
3. Missing values appear as null; the numeric helpers skip them automatically.
4. Return ONLY the expression. No explanations, no code fences, no variable assignments.`

// chartRequirements 图表规格表达式的硬性要求
const chartRequirements = `REQUIREMENTS:
1. The expression must evaluate to a chart spec map with these keys:
   - "kind": one of "bar", "line", "scatter", "pie"
   - "title": chart title string
   - "x": list of x-axis labels or values
   - "series": map from series name to a list of numeric values (same length as "x")
2. Only use columns that exist in the dataset.
3. The chart is rendered with a dark theme automatically; do not attempt styling.
4. Return ONLY the expression. No explanations, no code fences.`

// buildAnalysisSeed 构建分析合成的首条消息
func buildAnalysisSeed(contextText, query string) string {
	return fmt.Sprintf(`You are a data analysis expert. Write a single expression that answers the question using the dataset described below.

%s

%s

%s

QUESTION: %s

Expression:`, contextText, functionLibraryDoc, analysisRequirements, query)
}

// buildChartSeed 构建图表合成的首条消息
func buildChartSeed(contextText, query string) string {
	return fmt.Sprintf(`You are a data visualization expert. Write a single expression that produces a chart spec answering the request, using the dataset described below.

%s

%s

%s

REQUEST: %s

Expression:`, contextText, functionLibraryDoc, chartRequirements, query)
}

// feedbackMessage 构建执行失败后的反馈消息
func feedbackMessage(execErr *ExecError) string {
	return fmt.Sprintf(`ERROR: %s

Fix the expression. Only use columns that exist. Return ONLY the corrected expression:`, execErr.Error())
}
