package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cellbyte/backend/internal/domain/catalog"
)

// SearchDataInput 数据检索工具输入
type SearchDataInput struct {
	Query string `json:"query" jsonschema:"Natural language description of the rows to find (required)"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"Number of rows to return, defaults to 5, max 20"`
}

// SearchDataOutput 数据检索工具输出
type SearchDataOutput struct {
	Result string `json:"result" jsonschema:"Matching rows formatted as text with source file names"`
}

// searchDataTool 数据检索工具实现
func (s *MCPServer) searchDataTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchDataInput,
) (*mcp.CallToolResult, SearchDataOutput, error) {
	var output SearchDataOutput

	if input.Query == "" {
		return nil, output, fmt.Errorf("query is required")
	}

	topK := input.TopK
	if topK <= 0 {
		topK = 5
	}
	if topK > 20 {
		topK = 20
	}

	result, err := s.chatService.Search(ctx, input.Query, topK)
	if err != nil {
		return nil, output, fmt.Errorf("search failed: %w", err)
	}

	output.Result = result
	return nil, output, nil
}

// ListFilesInput 文件列表工具输入（无参数）
type ListFilesInput struct{}

// FileEntry 文件列表条目
type FileEntry struct {
	Name        string   `json:"name" jsonschema:"File name"`
	Description string   `json:"description,omitempty" jsonschema:"What the file contains"`
	RowCount    int      `json:"row_count" jsonschema:"Number of data rows"`
	Columns     []string `json:"columns" jsonschema:"Column names"`
}

// ListFilesOutput 文件列表工具输出
type ListFilesOutput struct {
	Files []FileEntry `json:"files" jsonschema:"Ingested data files"`
	Count int         `json:"count" jsonschema:"Total file count"`
}

// listFilesTool 文件列表工具实现
func (s *MCPServer) listFilesTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	output := ListFilesOutput{Files: []FileEntry{}}

	metas, err := s.ingestion.List()
	if err != nil {
		return nil, output, fmt.Errorf("failed to list files: %w", err)
	}

	for _, meta := range metas {
		output.Files = append(output.Files, FileEntry{
			Name:        meta.Name,
			Description: meta.Description,
			RowCount:    meta.RowCount,
			Columns:     meta.Columns,
		})
	}
	output.Count = len(output.Files)
	return nil, output, nil
}

// RunAnalyticsInput 数据分析工具输入
type RunAnalyticsInput struct {
	Filename string `json:"filename" jsonschema:"Ingested file name (required)"`
	Query    string `json:"query" jsonschema:"Natural language analysis question (required)"`
}

// RunAnalyticsOutput 数据分析工具输出
type RunAnalyticsOutput struct {
	Summary  string `json:"summary" jsonschema:"Human readable summary of the analysis result"`
	Data     any    `json:"data,omitempty" jsonschema:"Structured result data"`
	Attempts int    `json:"attempts" jsonschema:"Number of synthesis attempts used"`
}

// runAnalyticsTool 数据分析工具实现
func (s *MCPServer) runAnalyticsTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RunAnalyticsInput,
) (*mcp.CallToolResult, RunAnalyticsOutput, error) {
	var output RunAnalyticsOutput

	if input.Filename == "" || input.Query == "" {
		return nil, output, fmt.Errorf("filename and query are required")
	}

	result, err := s.analytics.Run(ctx, input.Filename, input.Query)
	if err != nil {
		return nil, output, describeToolError(input.Filename, err)
	}

	output.Summary = result.Summary
	output.Data = result.Data
	output.Attempts = result.Attempts
	return nil, output, nil
}

// CreatePlotInput 图表生成工具输入
type CreatePlotInput struct {
	Filename string `json:"filename" jsonschema:"Ingested file name (required)"`
	Query    string `json:"query" jsonschema:"What to visualize (required)"`
}

// CreatePlotOutput 图表生成工具输出
type CreatePlotOutput struct {
	Kind     string `json:"kind" jsonschema:"Chart kind: bar, line, scatter or pie"`
	Title    string `json:"title" jsonschema:"Chart title"`
	HTML     string `json:"html" jsonschema:"Self-contained rendered chart HTML"`
	Attempts int    `json:"attempts" jsonschema:"Number of synthesis attempts used"`
}

// createPlotTool 图表生成工具实现
func (s *MCPServer) createPlotTool(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input CreatePlotInput,
) (*mcp.CallToolResult, CreatePlotOutput, error) {
	var output CreatePlotOutput

	if input.Filename == "" || input.Query == "" {
		return nil, output, fmt.Errorf("filename and query are required")
	}

	result, err := s.plots.Run(ctx, input.Filename, input.Query)
	if err != nil {
		return nil, output, describeToolError(input.Filename, err)
	}

	output.Kind = result.Chart.Kind
	output.Title = result.Chart.Title
	output.HTML = result.Chart.HTML
	output.Attempts = result.Attempts
	return nil, output, nil
}

// describeToolError 将业务错误转为对智能体可读的提示
func describeToolError(filename string, err error) error {
	if errors.Is(err, catalog.ErrFileNotFound) {
		return fmt.Errorf("file %q is not ingested, use list_files to see available files", filename)
	}
	return err
}
