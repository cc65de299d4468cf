package http

import (
	"context"
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/interfaces/http/handler"
	"github.com/cellbyte/backend/internal/interfaces/http/middleware"
	"github.com/cellbyte/backend/internal/interfaces/mcp"
)

// HTTPServer HTTP 服务器
type HTTPServer struct {
	router   *gin.Engine
	httpPort string
	server   *http.Server
	logger   *slog.Logger
}

// NewServer 创建 HTTP 服务器
func NewServer(
	chatHandler *handler.ChatHandler,
	fileHandler *handler.FileHandler,
	analyticsHandler *handler.AnalyticsHandler,
	plotHandler *handler.PlotHandler,
	wsHandler *handler.WebSocketHandler,
	mcpServer *mcp.MCPServer,
) *HTTPServer {
	router := gin.Default()
	router.Use(middleware.RequestID())
	router.Use(middleware.EnsureUTF8Body())

	logger := log.NewModuleLogger("http", "server")

	// 注册路由
	api := router.Group("/api/v1")
	{
		// 对话相关路由
		api.POST("/chat", chatHandler.Chat)
		api.POST("/chat/refresh", chatHandler.RefreshPrompt)
		api.POST("/search", chatHandler.Search)

		// 文件摄取相关路由
		api.POST("/files", fileHandler.Upload)
		api.GET("/files", fileHandler.List)
		api.DELETE("/files/:name", fileHandler.Delete)

		// 分析相关路由
		api.POST("/analytics", analyticsHandler.Run)
		api.GET("/analytics/:filename/describe", analyticsHandler.Describe)
		api.GET("/analytics/:filename/correlation", analyticsHandler.Correlation)
		api.GET("/analytics/:filename/value-counts", analyticsHandler.ValueCounts)

		// 图表相关路由
		api.POST("/plots", plotHandler.Run)
	}

	// 事件推送
	router.GET("/ws", wsHandler.Serve)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// MCP SSE 端点
	if mcpServer != nil {
		router.Any("/mcp/sse", gin.WrapH(mcpServer.GetHandler()))
	}

	return &HTTPServer{
		router:   router,
		httpPort: ":19800",
		logger:   logger,
	}
}

// Start 启动服务器
func (s *HTTPServer) Start() error {
	s.server = &http.Server{
		Addr:    s.httpPort,
		Handler: s.router,
	}

	s.logger.Info("HTTP server starting",
		"port", s.httpPort,
	)

	return s.server.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// Stop 停止服务器
func (s *HTTPServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
