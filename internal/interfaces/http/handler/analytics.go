package handler

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/interfaces/http/response"
)

// AnalyticsHandler 数据分析处理器
type AnalyticsHandler struct {
	analytics *synthesis.AnalyticsService
	logger    *slog.Logger
}

// NewAnalyticsHandler 创建数据分析处理器
func NewAnalyticsHandler(analytics *synthesis.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
		logger:    log.NewModuleLogger("analytics", "handler"),
	}
}

// AnalyticsRequest 自然语言分析请求
type AnalyticsRequest struct {
	Filename string `json:"filename" binding:"required"`
	Query    string `json:"query" binding:"required"`
}

// Run 对指定文件执行自然语言分析
// POST /api/v1/analytics
func (h *AnalyticsHandler) Run(c *gin.Context) {
	var req AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analytics.Run(c.Request.Context(), req.Filename, req.Query)
	if err != nil {
		h.logger.Error("Analytics run failed",
			"file", req.Filename,
			"error", err,
		)
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// Describe 数值列的描述性统计
// GET /api/v1/analytics/:filename/describe
func (h *AnalyticsHandler) Describe(c *gin.Context) {
	stats, err := h.analytics.Describe(c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, stats)
}

// Correlation 数值列的相关系数矩阵
// GET /api/v1/analytics/:filename/correlation
func (h *AnalyticsHandler) Correlation(c *gin.Context) {
	matrix, err := h.analytics.Correlation(c.Param("filename"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, matrix)
}

// ValueCounts 指定列的取值频次
// GET /api/v1/analytics/:filename/value-counts?column=xxx
func (h *AnalyticsHandler) ValueCounts(c *gin.Context) {
	column := c.Query("column")
	if column == "" {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, "column query parameter is required")
		return
	}

	counts, err := h.analytics.ValueCounts(c.Param("filename"), column)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, counts)
}
