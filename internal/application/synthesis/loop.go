// Package synthesis 实现代码合成循环：
// 由模型生成数据分析程序，在受限环境中执行，失败时将错误反馈给模型重试。
package synthesis

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cellbyte/backend/internal/infrastructure/llm"
	"github.com/cellbyte/backend/internal/infrastructure/log"
)

// MaxRetries 每个请求的最大合成尝试次数
const MaxRetries = 3

// CompletionClient 文本补全客户端
type CompletionClient interface {
	Complete(ctx context.Context, messages []llm.Message) (string, error)
}

// Executor 受限程序执行器
type Executor interface {
	Execute(program string) (any, *ExecError)
}

// Result 一次成功合成的结果
type Result struct {
	// Value 执行产物
	Value any
	// Program 最终成功执行的程序文本
	Program string
	// Attempts 实际消耗的尝试次数
	Attempts int
}

// Loop 代码合成循环
// 对话记录仅在单次请求内作为重试记忆存在，请求结束后即被丢弃
type Loop struct {
	client CompletionClient
	logger *slog.Logger
}

// NewLoop 创建合成循环
func NewLoop(client CompletionClient) *Loop {
	return &Loop{
		client: client,
		logger: log.NewModuleLogger("synthesis", "loop"),
	}
}

// Run 执行合成循环
// seed 为首条人类消息（数据集上下文 + 请求）；每次失败以人类消息形式反馈错误。
// 补全服务自身的错误不计入重试，原样向上传播。
func (l *Loop) Run(ctx context.Context, seed string, exec Executor) (*Result, error) {
	messages := []llm.Message{
		{Role: "user", Content: seed},
	}

	var lastErr *ExecError
	for attempt := 1; attempt <= MaxRetries; attempt++ {
		completion, err := l.client.Complete(ctx, messages)
		if err != nil {
			// 上游补全失败原样传播，不进入重试
			return nil, err
		}

		program := StripFences(completion)
		messages = append(messages, llm.Message{Role: "assistant", Content: completion})

		value, execErr := exec.Execute(program)
		if execErr == nil {
			l.logger.Info("Synthesis succeeded",
				"attempts", attempt,
			)
			return &Result{
				Value:    value,
				Program:  program,
				Attempts: attempt,
			}, nil
		}

		lastErr = execErr
		l.logger.Warn("Synthesized program failed",
			"attempt", attempt,
			"max_retries", MaxRetries,
			"error", execErr.Error(),
		)

		messages = append(messages, llm.Message{
			Role:    "user",
			Content: feedbackMessage(execErr),
		})
	}

	return nil, &Error{
		Attempts: MaxRetries,
		LastErr:  lastErr,
	}
}

// StripFences 去除补全文本中的 Markdown 代码围栏
func StripFences(completion string) string {
	text := strings.TrimSpace(completion)

	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	// 去掉起始围栏行（可能携带语言标记）
	lines = lines[1:]
	// 去掉结尾围栏行
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
