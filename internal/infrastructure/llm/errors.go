package llm

import "errors"

// ErrUpstream 上游模型服务不可用或返回异常
// 所有网络、状态码与响应解析失败都包裹此错误，便于接口层统一映射
var ErrUpstream = errors.New("upstream LLM service failure")
