package mcp

import (
	"net/http"

	appchat "github.com/cellbyte/backend/internal/application/chat"
	"github.com/cellbyte/backend/internal/application/ingestion"
	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MCPServer MCP 服务器
// 将数据检索与分析能力以 MCP 工具形式暴露给外部智能体
type MCPServer struct {
	server      *mcp.Server
	handler     http.Handler
	chatService *appchat.Service
	analytics   *synthesis.AnalyticsService
	plots       *synthesis.PlotService
	ingestion   *ingestion.Service
}

// NewServer 创建 MCP 服务器
func NewServer(
	chatService *appchat.Service,
	analytics *synthesis.AnalyticsService,
	plots *synthesis.PlotService,
	ingestionService *ingestion.Service,
) *MCPServer {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "cellbyte",
			Version: "0.1.0",
		},
		nil, // 使用默认能力
	)

	mcpServer := &MCPServer{
		server:      server,
		chatService: chatService,
		analytics:   analytics,
		plots:       plots,
		ingestion:   ingestionService,
	}

	// 注册工具：search_data
	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_data",
		Description: "Semantic search over ingested tabular data. Parameters: query (string, required) - natural language description of the rows you are looking for; top_k (int, optional) - number of rows to return, defaults to 5. Returns matching rows with their source file names.",
	}, mcpServer.searchDataTool)

	// 注册工具：list_files
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_files",
		Description: "List all ingested data files with their metadata (row count, columns, description). No parameters required.",
	}, mcpServer.listFilesTool)

	// 注册工具：run_analytics
	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_analytics",
		Description: "Run a statistical analysis on an ingested file from a natural language question. Parameters: filename (string, required) - ingested file name; query (string, required) - the analysis question, e.g. 'average revenue by region'. Returns a summary and structured result data.",
	}, mcpServer.runAnalyticsTool)

	// 注册工具：create_plot
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_plot",
		Description: "Create a chart from an ingested file based on a natural language request. Parameters: filename (string, required) - ingested file name; query (string, required) - what to visualize, e.g. 'bar chart of sales by region'. Returns the chart kind, title, and rendered HTML.",
	}, mcpServer.createPlotTool)

	// 创建 SSE Handler
	mcpServer.handler = mcp.NewSSEHandler(
		func(r *http.Request) *mcp.Server {
			// 每个请求返回同一个服务器实例
			return server
		},
		nil,
	)

	return mcpServer
}

// GetHandler 获取 HTTP Handler（用于集成到 HTTP 服务器）
func (s *MCPServer) GetHandler() http.Handler {
	return s.handler
}
