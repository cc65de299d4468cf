package handler

import (
	"net/http"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/infrastructure/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 本地服务，不校验来源
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketHandler WebSocket 接入处理器
type WebSocketHandler struct {
	hub    *websocket.Hub
	logger *slog.Logger
}

// NewWebSocketHandler 创建 WebSocket 接入处理器
func NewWebSocketHandler(hub *websocket.Hub) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: log.NewModuleLogger("websocket", "handler"),
	}
}

// Serve 升级连接并接入广播流
// GET /ws
func (h *WebSocketHandler) Serve(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed",
			"remote", c.Request.RemoteAddr,
			"error", err,
		)
		return
	}

	conn := &websocket.Connection{Send: make(chan []byte, 16)}
	h.hub.Register(conn)

	h.logger.Debug("WebSocket client connected",
		"remote", c.Request.RemoteAddr,
		"clients", h.hub.ClientCount(),
	)

	go h.writePump(ws, conn)
	go h.readPump(ws, conn)
}

// writePump 将广播流写入客户端，定期发送 ping
func (h *WebSocketHandler) writePump(ws *gorillaws.Conn, conn *websocket.Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = ws.WriteMessage(gorillaws.CloseMessage, []byte{})
				return
			}
			if err := ws.WriteMessage(gorillaws.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(gorillaws.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 消费客户端消息以驱动 pong 与断开检测
// 推送流是单向的，入站消息被丢弃
func (h *WebSocketHandler) readPump(ws *gorillaws.Conn, conn *websocket.Connection) {
	defer func() {
		h.hub.Unregister(conn)
		_ = ws.Close()
	}()

	ws.SetReadLimit(512)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}
