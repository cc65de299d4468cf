package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/domain/catalog"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/vectorstore"
)

// defaultSearchTopK 语义检索默认返回条数
const defaultSearchTopK = 5

// Searcher 向量检索接口
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]vectorstore.Result, error)
	Exists() bool
}

// AnalyticsRunner 分析服务接口
type AnalyticsRunner interface {
	Run(ctx context.Context, filename, query string) (*synthesis.AnalysisResult, error)
}

// PlotRunner 绘图服务接口
type PlotRunner interface {
	Run(ctx context.Context, filename, query string) (*synthesis.PlotResult, error)
}

// Tool 智能体可调用的工具：定义 + 执行器
type Tool struct {
	Def llm.ToolDef
	Run func(ctx context.Context, arguments string) (string, error)
}

// buildTools 构建工具注册表
// Refresh 时整组重建，保证工具绑定与当前提示词状态一致
func buildTools(searcher Searcher, analytics AnalyticsRunner, plots PlotRunner, repo catalog.Repository) []*Tool {
	return []*Tool{
		searchTool(searcher),
		analyticsTool(analytics, repo),
		plotTool(plots, repo),
	}
}

// searchTool 语义检索工具
func searchTool(searcher Searcher) *Tool {
	return &Tool{
		Def: llm.ToolDef{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        "search_data",
				Description: "Semantic search over all ingested dataset rows. Returns the most relevant rows with their source file.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Natural language search query",
						},
						"top_k": map[string]any{
							"type":        "integer",
							"description": "Number of rows to return (default 5)",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		Run: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				Query string `json:"query"`
				TopK  int    `json:"top_k"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if args.TopK <= 0 {
				args.TopK = defaultSearchTopK
			}

			if !searcher.Exists() {
				return "No data has been ingested yet. Please upload CSV files first.", nil
			}

			results, err := searcher.Search(ctx, args.Query, args.TopK)
			if err != nil {
				return "", err
			}
			if len(results) == 0 {
				return "No relevant data found for your query.", nil
			}

			parts := make([]string, len(results))
			for i, r := range results {
				parts[i] = fmt.Sprintf("[From %s]: %s", r.Source, r.Content)
			}
			return strings.Join(parts, "\n\n"), nil
		},
	}
}

// analyticsTool 自然语言分析工具
func analyticsTool(analytics AnalyticsRunner, repo catalog.Repository) *Tool {
	return &Tool{
		Def: llm.ToolDef{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        "run_analytics",
				Description: "Run a natural-language statistical analysis against a specific ingested file.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"filename": map[string]any{
							"type":        "string",
							"description": "Name of the ingested file to analyze",
						},
						"query": map[string]any{
							"type":        "string",
							"description": "Natural language description of the analysis",
						},
					},
					"required": []string{"filename", "query"},
				},
			},
		},
		Run: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				Filename string `json:"filename"`
				Query    string `json:"query"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			result, err := analytics.Run(ctx, args.Filename, args.Query)
			if err != nil {
				if errors.Is(err, catalog.ErrFileNotFound) {
					return fileNotFoundText(args.Filename, repo), nil
				}
				return "", err
			}

			if result.Data != nil {
				return fmt.Sprintf("%s\n\nData: %s", result.Summary, formatJSON(result.Data)), nil
			}
			return result.Summary, nil
		},
	}
}

// plotTool 自然语言绘图工具
func plotTool(plots PlotRunner, repo catalog.Repository) *Tool {
	return &Tool{
		Def: llm.ToolDef{
			Type: "function",
			Function: llm.FunctionDef{
				Name:        "create_plot",
				Description: "Create a chart from a specific ingested file based on a natural-language request.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"filename": map[string]any{
							"type":        "string",
							"description": "Name of the ingested file to chart",
						},
						"query": map[string]any{
							"type":        "string",
							"description": "Natural language description of the chart",
						},
					},
					"required": []string{"filename", "query"},
				},
			},
		},
		Run: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				Filename string `json:"filename"`
				Query    string `json:"query"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			result, err := plots.Run(ctx, args.Filename, args.Query)
			if err != nil {
				if errors.Is(err, catalog.ErrFileNotFound) {
					return fileNotFoundText(args.Filename, repo), nil
				}
				return "", err
			}

			title := result.Chart.Title
			if title == "" {
				title = args.Query
			}
			return fmt.Sprintf("Created a %s chart: %s. The rendered chart is available through the plots API.",
				result.Chart.Kind, title), nil
		},
	}
}

// fileNotFoundText 文件未找到时的工具结果文本，附带可用文件列表
func fileNotFoundText(filename string, repo catalog.Repository) string {
	metas, err := repo.List()
	if err != nil || len(metas) == 0 {
		return fmt.Sprintf("File %q not found. No files have been ingested yet.", filename)
	}
	names := make([]string, len(metas))
	for i, meta := range metas {
		names[i] = meta.Name
	}
	return fmt.Sprintf("File %q not found. Available files: %s", filename, strings.Join(names, ", "))
}

// formatJSON 稳定的 JSON 文本化
func formatJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(data)
}
