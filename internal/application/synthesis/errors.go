package synthesis

import "fmt"

// ExecError 程序执行失败
// Kind 与 Message 拼接后作为反馈提供给模型
type ExecError struct {
	Kind    string
	Message string
}

// Error 实现 error 接口，格式固定为 "{Kind}: {message}"
func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Error 合成最终失败
// 重试次数耗尽后返回，携带最后一次执行错误；中间过程仅出现在日志中
type Error struct {
	Attempts int
	LastErr  *ExecError
}

// Error 实现 error 接口
func (e *Error) Error() string {
	return fmt.Sprintf("synthesis failed after %d attempts: %s", e.Attempts, e.LastErr.Error())
}

// Unwrap 暴露最后一次执行错误
func (e *Error) Unwrap() error {
	return e.LastErr
}
