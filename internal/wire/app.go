package wire

import (
	"database/sql"

	"log/slog"

	appchat "github.com/cellbyte/backend/internal/application/chat"
	"github.com/cellbyte/backend/internal/domain/events"
	applog "github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/infrastructure/watcher"
	"github.com/cellbyte/backend/internal/infrastructure/websocket"
	"github.com/cellbyte/backend/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer  *interfaces.HTTPServer
	MCPServer   *interfaces.MCPServer
	wsHub       *websocket.Hub
	chatService *appchat.Service
	eventBus    events.EventBus
	fileWatcher *watcher.FileWatcher
	db          *sql.DB
	logger      *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	mcpServer *interfaces.MCPServer,
	wsHub *websocket.Hub,
	chatService *appchat.Service,
	eventBus events.EventBus,
	fileWatcher *watcher.FileWatcher,
	db *sql.DB,
) *App {
	return &App{
		HTTPServer:  httpServer,
		MCPServer:   mcpServer,
		wsHub:       wsHub,
		chatService: chatService,
		eventBus:    eventBus,
		fileWatcher: fileWatcher,
		db:          db,
		logger:      applog.NewModuleLogger("app", "main"),
	}
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting CellByte backend application")

	// 注册事件订阅者并启动文件监听
	a.setupEventSubscribers()
	if a.fileWatcher != nil {
		if err := a.fileWatcher.Start(); err != nil {
			a.logger.Error("Failed to start file watcher",
				"error", err,
			)
		} else {
			a.logger.Info("File watcher started successfully")
		}
	}

	// 启动 WebSocket Hub
	a.wsHub.Start()

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("CellByte backend application started successfully")

	// MCP 服务器通过 HTTP Handler 提供服务，不需要单独启动
	// 已在 HTTP 服务器中注册 /mcp/sse 端点

	return nil
}

// setupEventSubscribers 注册事件订阅者
func (a *App) setupEventSubscribers() {
	if a.eventBus == nil {
		return
	}

	// 磁盘上的数据文件变化时重建系统提示词
	a.eventBus.SubscribeMultiple(
		[]events.EventType{
			events.DatasetFileCreated,
			events.DatasetFileModified,
			events.DatasetFileDeleted,
		},
		events.HandlerFunc(func(event events.Event) error {
			a.chatService.Refresh()
			return nil
		}),
	)

	// 目录变更推送给 WebSocket 客户端
	a.eventBus.SubscribeMultiple(
		[]events.EventType{
			events.CatalogFileIngested,
			events.CatalogFileDeleted,
		},
		events.HandlerFunc(func(event events.Event) error {
			catalogEvent, ok := event.(*events.CatalogEvent)
			if !ok {
				return nil
			}

			eventName := "file_ingested"
			if catalogEvent.EventType == events.CatalogFileDeleted {
				eventName = "file_deleted"
			}
			return a.wsHub.Broadcast(eventName, map[string]any{
				"file":            catalogEvent.FileName,
				"remaining_files": catalogEvent.RemainingFiles,
			})
		}),
	)

	a.logger.Info("Event subscribers registered")
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping CellByte backend application")

	// 停止文件监听器
	if a.fileWatcher != nil {
		a.fileWatcher.Stop()
		a.logger.Info("File watcher stopped")
	}

	// 关闭事件总线
	if a.eventBus != nil {
		a.eventBus.Close()
		a.logger.Info("Event bus closed")
	}

	// 停止 HTTP 服务器
	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Error stopping HTTP server",
			"error", err,
		)
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Error closing database",
				"error", err,
			)
		}
	}

	a.logger.Info("Application stopped")
	return nil
}
