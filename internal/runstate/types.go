// Package runstate 维护单次 agent 运行的累积状态:
// 运行状态机、去重时间线、草稿答案。
//
// 一次运行对应一个 Tracker 实例; 宿主按事件流天然顺序串行调用。
package runstate

// RunStatus 运行状态 (有限状态集)。
type RunStatus string

const (
	StatusIdle              RunStatus = "idle"
	StatusThinking          RunStatus = "thinking"
	StatusToolCalling       RunStatus = "tool_calling"
	StatusWaitingToolResult RunStatus = "waiting_tool_result"
	StatusCompleted         RunStatus = "completed"
	StatusCanceled          RunStatus = "canceled"
	StatusError             RunStatus = "error"
)

// Terminal 报告状态是否终态。终态后 Tracker 仍接受变更,
// 但渲染层切换为 "展示最终答案" 模式。
func (s RunStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCanceled, StatusError:
		return true
	default:
		return false
	}
}

// ========================================
// 消息模型 (追加事实, 不可变)
// ========================================

// PartKind 内容片段类型。
type PartKind string

const (
	PartText       PartKind = "text"
	PartThinking   PartKind = "thinking"
	PartToolCall   PartKind = "tool_call"
	PartToolResult PartKind = "tool_result"
)

// ContentPart 消息内容片段 (tagged variant)。
type ContentPart struct {
	Kind PartKind

	// text / thinking / tool_result 的文本内容
	Text string

	// tool_call / tool_result 关联字段
	ToolName  string
	ToolUseID string

	// tool_call 的参数摘要 (可选, 仅影响展示标签)
	Detail string

	// 时间与耗时 (UnixMilli, 0 = 未知)
	StartedAtMS   int64
	CompletedAtMS int64
	DurationMS    int64

	// tool_result 的原始负载 (仅透传, 不参与渲染)
	Raw map[string]any
}

// MessageRole 消息角色。
type MessageRole string

const (
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// AgentMessage 一条 agent 消息。追加后不再变更;
// 工具调用的后续信息以独立 tool 消息经 ToolUseID 关联到达。
type AgentMessage struct {
	Role      MessageRole
	ToolUseID string
	Content   []ContentPart
}

// ========================================
// 时间线模型 (展示用, 已去重)
// ========================================

// EntryKind 时间线条目类型。
type EntryKind string

const (
	EntryText     EntryKind = "text"
	EntryThinking EntryKind = "thinking"
	EntryToolCall EntryKind = "tool_call"
)

// TimelineEntry 一条去重后的展示条目。
// 不变式: 每个 ToolUseID 至多对应一条; 工具结果到达时原地改写, 不新增。
type TimelineEntry struct {
	Kind       EntryKind
	Content    string
	ToolUseID  string
	ToolName   string
	DurationMS *int64
}
