// apply.go — 将归一化结果施加到 Run Tracker (事件解释语义)。
package normalizer

import (
	"strings"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/runstate"
)

// 默认文案 (事件未携带内容时)。
const (
	textToolFailed    = "工具执行失败"
	textToolCompleted = "工具执行完成"
	textRunException  = "执行过程中发生异常"
)

// Applier 把 Extraction 施加到 Tracker。
type Applier struct {
	Now func() time.Time // 测试钩子, 默认 time.Now
}

// NewApplier 创建默认 Applier。
func NewApplier() *Applier { return &Applier{Now: time.Now} }

// Apply 按提取形式分派: 规范消息直接追加 (状态走推断兜底),
// 详细事件逐条解释, 纯文本走启发式解析。
func (a *Applier) Apply(tr *runstate.Tracker, ex Extraction) {
	switch {
	case len(ex.Messages) > 0:
		tr.AppendMessages(ex.Messages)
	case len(ex.Events) > 0:
		for _, ev := range ex.Events {
			a.applyEvent(tr, ev)
		}
	default:
		a.applyText(tr, ex.Text)
	}
}

// applyEvent 解释单条详细事件。
func (a *Applier) applyEvent(tr *runstate.Tracker, ev VerboseEvent) {
	switch ev.Stream {
	case "assistant":
		a.applyAssistant(tr, ev)
	case "tool":
		a.applyTool(tr, ev)
	case "lifecycle":
		a.applyLifecycle(tr, ev)
	}
}

// applyAssistant 流式正文: 前缀感知合并进草稿缓冲。
func (a *Applier) applyAssistant(tr *runstate.Tracker, ev VerboseEvent) {
	if text := firstString(ev.Data, "text", "delta", "content"); text != "" {
		tr.MergeDraft(text)
	}
	tr.SetStatus(runstate.StatusThinking)
}

// applyTool 工具生命周期: start 追加合成调用, 结束类 phase 追加合成结果。
func (a *Applier) applyTool(tr *runstate.Tracker, ev VerboseEvent) {
	switch ev.Phase {
	case "start":
		startedAt := timestampMS(ev.Data, "startedAt", "started_at", "ts")
		if startedAt == 0 {
			startedAt = a.Now().UnixMilli()
		}
		tr.AppendMessages([]runstate.AgentMessage{{
			Role: runstate.RoleAssistant,
			Content: []runstate.ContentPart{{
				Kind:        runstate.PartToolCall,
				ToolName:    firstString(ev.Data, "toolName", "tool_name", "tool", "name"),
				ToolUseID:   firstString(ev.Data, "toolUseId", "tool_use_id", "callId", "call_id"),
				StartedAtMS: startedAt,
			}},
		}})
		tr.SetStatus(runstate.StatusToolCalling)

	case "end", "result", "output", "error":
		failed := toolEventFailed(ev)
		tr.AppendMessages([]runstate.AgentMessage{{
			Role:      runstate.RoleTool,
			ToolUseID: firstString(ev.Data, "toolUseId", "tool_use_id", "callId", "call_id"),
			Content: []runstate.ContentPart{{
				Kind:          runstate.PartToolResult,
				Text:          toolResultText(ev.Data, failed),
				ToolUseID:     firstString(ev.Data, "toolUseId", "tool_use_id", "callId", "call_id"),
				CompletedAtMS: timestampMS(ev.Data, "completedAt", "completed_at", "ts"),
				DurationMS:    int64Value(ev.Data, "durationMs", "duration_ms", "elapsedMs"),
				Raw:           ev.Data,
			}},
		}})
		if failed {
			tr.SetStatus(runstate.StatusError)
		} else {
			tr.SetStatus(runstate.StatusWaitingToolResult)
		}

	default:
		// 未知 phase: 保守按 "工具仍在进行" 处理
		tr.SetStatus(runstate.StatusToolCalling)
	}
}

// applyLifecycle 运行生命周期: start → Thinking, error → Error + 替换草稿。
func (a *Applier) applyLifecycle(tr *runstate.Tracker, ev VerboseEvent) {
	switch ev.Phase {
	case "start":
		tr.SetStatus(runstate.StatusThinking)
	case "error":
		msg := firstString(ev.Data, "message", "error", "text")
		if strings.TrimSpace(msg) == "" {
			msg = textRunException
		}
		tr.SetDraftAnswer(msg)
		tr.SetStatus(runstate.StatusError)
	}
}

// applyText 纯文本兜底: 工具行转合成调用, 剩余文本并入草稿。
func (a *Applier) applyText(tr *runstate.Tracker, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	parsed := ParseText(text)

	var msgs []runstate.AgentMessage
	for _, tl := range parsed.ToolLines {
		// 合成工具行没有 toolUseId, 按展示内容去重
		msgs = append(msgs, runstate.AgentMessage{
			Role: runstate.RoleAssistant,
			Content: []runstate.ContentPart{{
				Kind:     runstate.PartToolCall,
				ToolName: tl.Name,
				Detail:   tl.Detail,
			}},
		})
	}
	if len(msgs) > 0 {
		tr.AppendMessages(msgs)
		tr.SetStatus(runstate.StatusToolCalling)
	}

	if parsed.Remaining != "" {
		tr.MergeDraft(parsed.Remaining)
		if len(msgs) == 0 {
			tr.SetStatus(runstate.StatusThinking)
		}
	}
}

// toolEventFailed 判断工具事件是否表示失败。
func toolEventFailed(ev VerboseEvent) bool {
	if ev.Phase == "error" {
		return true
	}
	if v, ok := ev.Data["success"].(bool); ok && !v {
		return true
	}
	if s := firstString(ev.Data, "error"); s != "" {
		return true
	}
	return false
}

// toolResultText 组装结果文本: output 与 metadata 各占一行, 空字段省略;
// 两者都缺时回落到固定文案。
func toolResultText(data map[string]any, failed bool) string {
	var lines []string
	if out := strings.TrimSpace(firstString(data, "output", "text", "content")); out != "" {
		lines = append(lines, out)
	}
	if meta := strings.TrimSpace(firstString(data, "metadata", "meta")); meta != "" {
		lines = append(lines, meta)
	}
	if len(lines) == 0 {
		if failed {
			return textToolFailed
		}
		return textToolCompleted
	}
	return strings.Join(lines, "\n")
}
