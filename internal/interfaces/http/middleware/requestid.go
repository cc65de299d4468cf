package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// RequestIDHeader 请求标识响应头
const RequestIDHeader = "X-Request-ID"

// RequestID 为每个请求分配标识并注入日志上下文
// 客户端已携带 X-Request-ID 时沿用客户端的值
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Header(RequestIDHeader, requestID)
		ctx := log.WithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
