package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cellbyte/backend/internal/application/synthesis"
	"github.com/cellbyte/backend/internal/domain/catalog"
	domainchat "github.com/cellbyte/backend/internal/domain/chat"
	"github.com/cellbyte/backend/internal/domain/dataset"
	"github.com/cellbyte/backend/internal/infrastructure/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// TestWriteErrorMapping 测试业务错误到 HTTP 状态码的映射
func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "file not found",
			err:      fmt.Errorf("dataset %q: %w", "sales.csv", catalog.ErrFileNotFound),
			wantCode: http.StatusNotFound,
		},
		{
			name: "synthesis exhausted",
			err: &synthesis.Error{
				Attempts: 3,
				LastErr:  &synthesis.ExecError{Kind: "CompileError", Message: "undeclared reference"},
			},
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "upstream failure",
			err:      fmt.Errorf("%w: status 503", llm.ErrUpstream),
			wantCode: http.StatusBadGateway,
		},
		{
			name:     "orphan tool turn",
			err:      fmt.Errorf("invalid history: %w", domainchat.ErrOrphanToolTurn),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "empty upload",
			err:      fmt.Errorf("failed to parse empty.csv: %w", dataset.ErrEmptyFile),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unclassified",
			err:      errors.New("disk exploded"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			writeError(c, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["message"])
		})
	}
}

// TestWriteErrorSynthesisDetail 合成失败响应携带错误详情
func TestWriteErrorSynthesisDetail(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	writeError(c, &synthesis.Error{
		Attempts: 3,
		LastErr:  &synthesis.ExecError{Kind: "EvaluationError", Message: "no such column"},
	})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "code synthesis failed", body["message"])
	assert.Contains(t, body["detail"], "EvaluationError: no such column")
}
