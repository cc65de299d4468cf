// Package chat 实现对话服务：
// 扁平持久化历史与智能体原生消息之间的对账、系统提示词状态、受限工具运行时。
package chat

import (
	"fmt"
	"strings"

	"github.com/cellbyte/backend/internal/domain/catalog"
)

// PromptState 系统提示词状态
// 只有显式 Refresh 才会重建提示词并递增代数
type PromptState struct {
	// Text 完整的系统提示词文本
	Text string
	// Generation 重建代数，单调递增
	Generation uint64
}

// buildSystemPrompt 由目录中的文件元数据构建系统提示词
func buildSystemPrompt(metas []*catalog.FileMetadata) string {
	var sb strings.Builder

	sb.WriteString(`You are CellByte, a data analysis assistant for tabular datasets.
You answer questions about the user's ingested CSV/TSV files using the available tools:
- search_data: semantic search over ingested rows
- run_analytics: natural-language statistical analysis of a specific file
- create_plot: natural-language chart generation for a specific file

Always ground answers in tool results. If no data has been ingested, tell the user to upload a CSV file first.`)

	if len(metas) == 0 {
		sb.WriteString("\n\nNo files have been ingested yet.")
		return sb.String()
	}

	sb.WriteString("\n\nINGESTED FILES:\n")
	for _, meta := range metas {
		fmt.Fprintf(&sb, "- %s: %d rows, %d columns (%s)\n",
			meta.Name, meta.RowCount, meta.ColumnCount, strings.Join(meta.Columns, ", "))
		if meta.Description != "" {
			fmt.Fprintf(&sb, "  %s\n", meta.Description)
		}
	}

	return sb.String()
}
