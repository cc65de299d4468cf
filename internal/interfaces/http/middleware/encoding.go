package middleware

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// EnsureUTF8Body 确保请求体是 UTF-8 编码的中间件
// Windows 导出的 CSV 和 curl 发送的中文内容可能是 GBK 编码，
// 此中间件检测并转换非 UTF-8 的请求体
func EnsureUTF8Body() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 {
			c.Next()
			return
		}

		bodyBytes, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body.Close()

		if len(bodyBytes) == 0 || utf8.Valid(bodyBytes) {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			c.Next()
			return
		}

		// GBK 是 Windows 中文系统的默认编码（代码页 936）
		if converted, err := gbkToUTF8(bodyBytes); err == nil && utf8.Valid(converted) {
			c.Request.Body = io.NopCloser(bytes.NewReader(converted))
			c.Request.ContentLength = int64(len(converted))
		} else {
			c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		c.Next()
	}
}

// gbkToUTF8 将 GBK 编码的字节转换为 UTF-8
func gbkToUTF8(gbkBytes []byte) ([]byte, error) {
	reader := transform.NewReader(bytes.NewReader(gbkBytes), simplifiedchinese.GBK.NewDecoder())
	return io.ReadAll(reader)
}
