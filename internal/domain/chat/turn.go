package chat

// Role 对话轮次的角色
type Role string

const (
	// RoleUser 用户消息
	RoleUser Role = "user"
	// RoleAssistant 助手消息（可能携带工具调用）
	RoleAssistant Role = "assistant"
	// RoleTool 工具执行结果消息
	RoleTool Role = "tool"
)

// ToolCall 助手发起的一次工具调用
type ToolCall struct {
	// ID 调用标识，工具结果通过 ToolCallID 回引
	ID string `json:"id"`
	// Name 工具名称
	Name string `json:"name"`
	// Arguments JSON 编码的调用参数
	Arguments string `json:"arguments"`
}

// Turn 持久化对话历史中的一条消息
//
// 不同角色只允许携带各自合法的字段：
//   - user:      Content
//   - assistant: Content（可为空）+ 可选 ToolCalls
//   - tool:      Content + 必填 ToolCallID
//
// 字段约束由 Validate 强制，历史级别的工具调用关联由 ValidateHistory 强制。
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// Validate 校验单条消息的角色与字段约束
func (t *Turn) Validate() error {
	switch t.Role {
	case RoleUser:
		if len(t.ToolCalls) > 0 || t.ToolCallID != "" {
			return ErrInvalidTurnFields
		}
	case RoleAssistant:
		if t.ToolCallID != "" {
			return ErrInvalidTurnFields
		}
		for _, tc := range t.ToolCalls {
			if tc.ID == "" || tc.Name == "" {
				return ErrInvalidToolCall
			}
		}
	case RoleTool:
		if t.ToolCallID == "" {
			return ErrToolCallIDRequired
		}
		if len(t.ToolCalls) > 0 {
			return ErrInvalidTurnFields
		}
	default:
		return ErrUnknownRole
	}
	return nil
}

// ValidateHistory 校验整段历史
//
// 除逐条 Validate 外，还强制：每条 tool 消息的 ToolCallID 必须恰好对应
// 此前某条 assistant 消息 ToolCalls 中的一个 ID，且同一 ID 至多被消费一次。
func ValidateHistory(turns []Turn) error {
	pending := make(map[string]bool)
	for i := range turns {
		t := &turns[i]
		if err := t.Validate(); err != nil {
			return err
		}
		switch t.Role {
		case RoleAssistant:
			for _, tc := range t.ToolCalls {
				if pending[tc.ID] {
					return ErrDuplicateToolCallID
				}
				pending[tc.ID] = true
			}
		case RoleTool:
			if !pending[t.ToolCallID] {
				return ErrOrphanToolTurn
			}
			delete(pending, t.ToolCallID)
		}
	}
	return nil
}
