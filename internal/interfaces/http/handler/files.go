package handler

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cellbyte/backend/internal/application/ingestion"
	"github.com/cellbyte/backend/internal/infrastructure/log"
	"github.com/cellbyte/backend/internal/interfaces/http/response"
)

// maxUploadSize 上传文件大小上限
const maxUploadSize = 50 << 20

// FileHandler 文件摄取处理器
type FileHandler struct {
	ingestion *ingestion.Service
	logger    *slog.Logger
}

// NewFileHandler 创建文件摄取处理器
func NewFileHandler(ingestionService *ingestion.Service) *FileHandler {
	return &FileHandler{
		ingestion: ingestionService,
		logger:    log.NewModuleLogger("files", "handler"),
	}
}

// Upload 上传并摄取一个表格文件
// POST /api/v1/files （multipart 字段 file）
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest,
			fmt.Sprintf("multipart field 'file' is required: %v", err))
		return
	}

	if fileHeader.Size > maxUploadSize {
		response.Error(c, http.StatusRequestEntityTooLarge, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("file exceeds %d MB limit", maxUploadSize>>20))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, http.StatusBadRequest, http.StatusBadRequest, err.Error())
		return
	}

	filename := filepath.Base(fileHeader.Filename)
	result, err := h.ingestion.Ingest(c.Request.Context(), filename, data)
	if err != nil {
		h.logger.Error("File ingestion failed",
			"file", filename,
			"error", err,
		)
		writeError(c, err)
		return
	}

	response.Success(c, result)
}

// List 列出已摄取文件的元数据
// GET /api/v1/files
func (h *FileHandler) List(c *gin.Context) {
	metas, err := h.ingestion.List()
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"files": metas,
		"count": len(metas),
	})
}

// Delete 删除已摄取文件并重建索引
// DELETE /api/v1/files/:name
func (h *FileHandler) Delete(c *gin.Context) {
	name := c.Param("name")

	remaining, err := h.ingestion.Delete(c.Request.Context(), name)
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, gin.H{
		"deleted":         name,
		"remaining_files": remaining,
	})
}
