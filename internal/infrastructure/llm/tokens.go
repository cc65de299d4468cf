package llm

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// 在包初始化时设置离线加载器，避免运行时下载编码文件
func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// TokenEstimator 使用 tiktoken 估算 Token 数量
type TokenEstimator struct {
	encoding *tiktoken.Tiktoken
	mu       sync.RWMutex
}

// estimatorInstance 单例实例
var (
	estimatorInstance *TokenEstimator
	estimatorOnce     sync.Once
	estimatorErr      error
)

// GetTokenEstimator 获取 TokenEstimator 单例
// 使用单例模式避免重复加载编码文件
func GetTokenEstimator() (*TokenEstimator, error) {
	estimatorOnce.Do(func() {
		// 使用 cl100k_base 编码（GPT-4 系列模型兼容）
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			estimatorErr = err
			return
		}
		estimatorInstance = &TokenEstimator{
			encoding: enc,
		}
	})

	if estimatorErr != nil {
		return nil, estimatorErr
	}
	return estimatorInstance, nil
}

// CountTokens 计算文本的 Token 数量
func (e *TokenEstimator) CountTokens(text string) int {
	if text == "" {
		return 0
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := e.encoding.Encode(text, nil, nil)
	return len(tokens)
}

// EstimateMessages 估算消息序列的 Token 总量
// 编码器不可用时退化为字符数 / 4 的粗略估计
func EstimateMessages(messages []Message) int {
	est, err := GetTokenEstimator()
	if err != nil {
		total := 0
		for _, m := range messages {
			total += len(m.Content) / 4
		}
		return total
	}

	total := 0
	for _, m := range messages {
		total += est.CountTokens(m.Content)
		for _, tc := range m.ToolCalls {
			total += est.CountTokens(tc.Function.Arguments)
		}
	}
	return total
}
