package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/domain/catalog"
	domainchat "github.com/cellbyte/backend/internal/domain/chat"
	"github.com/cellbyte/backend/internal/domain/dataset"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/interfaces/http/response"
)

// historyErrors 对话历史校验失败视为客户端错误
var historyErrors = []error{
	domainchat.ErrUnknownRole,
	domainchat.ErrInvalidTurnFields,
	domainchat.ErrInvalidToolCall,
	domainchat.ErrToolCallIDRequired,
	domainchat.ErrOrphanToolTurn,
	domainchat.ErrDuplicateToolCallID,
}

// writeError 将业务错误映射为 HTTP 状态码
//
//	文件不存在        -> 404
//	代码合成失败      -> 422
//	上游模型服务失败  -> 502
//	历史校验失败      -> 400
//	其他              -> 500
func writeError(c *gin.Context, err error) {
	var synthErr *synthesis.Error
	switch {
	case errors.Is(err, catalog.ErrFileNotFound):
		response.Error(c, http.StatusNotFound, http.StatusNotFound, err.Error())
	case errors.As(err, &synthErr):
		response.ErrorWithDetail(c, http.StatusUnprocessableEntity, http.StatusUnprocessableEntity,
			"code synthesis failed", synthErr.Error())
	case errors.Is(err, llm.ErrUpstream):
		response.Error(c, http.StatusBadGateway, http.StatusBadGateway, err.Error())
	case errors.Is(err, dataset.ErrEmptyFile), errors.Is(err, dataset.ErrUnsupportedFormat):
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
	case isHistoryError(err):
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, http.StatusInternalServerError, err.Error())
	}
}

func isHistoryError(err error) bool {
	for _, sentinel := range historyErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
