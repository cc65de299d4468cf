package handler

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/interfaces/http/response"
)

// PlotHandler 图表生成处理器
type PlotHandler struct {
	plots  *synthesis.PlotService
	logger *slog.Logger
}

// NewPlotHandler 创建图表生成处理器
func NewPlotHandler(plots *synthesis.PlotService) *PlotHandler {
	return &PlotHandler{
		plots:  plots,
		logger: log.NewModuleLogger("plots", "handler"),
	}
}

// PlotRequest 自然语言图表请求
type PlotRequest struct {
	Filename string `json:"filename" binding:"required"`
	Query    string `json:"query" binding:"required"`
}

// Run 对指定文件生成图表
// POST /api/v1/plots
func (h *PlotHandler) Run(c *gin.Context) {
	var req PlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.plots.Run(c.Request.Context(), req.Filename, req.Query)
	if err != nil {
		h.logger.Error("Plot run failed",
			"file", req.Filename,
			"error", err,
		)
		writeError(c, err)
		return
	}

	response.Success(c, result)
}
