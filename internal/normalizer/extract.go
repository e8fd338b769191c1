// Package normalizer 将任意形状的回复负载归一化为三种规范形式之一:
// 规范消息序列、详细生命周期事件序列、或待启发式解析的纯文本。
//
// 负载形状探测是适配器模式: 每个提取策略是纯函数 payload → 可选序列,
// 按优先级依次尝试, 首个命中者胜出。
package normalizer

import (
	"strings"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/runstate"
)

// nestKeys 生产者可能嵌套同一逻辑数据的位置 (按探测顺序)。
var nestKeys = []string{"meta", "extra", "context", "delta"}

// VerboseEvent 详细生命周期事件。
type VerboseEvent struct {
	Stream string         // assistant | tool | lifecycle
	Phase  string         // start | end | result | output | error | ...
	Data   map[string]any // 事件负载
}

// Extraction 归一化结果。三个字段至多一个非空, 优先级:
// Messages > Events > Text。
type Extraction struct {
	Messages []runstate.AgentMessage
	Events   []VerboseEvent
	Text     string
}

// Empty 报告提取结果是否为空。
func (e Extraction) Empty() bool {
	return len(e.Messages) == 0 && len(e.Events) == 0 && strings.TrimSpace(e.Text) == ""
}

// Extract 从不透明负载中提取规范形式。负载形状不可识别时
// 逐级降级, 永不报错。
func Extract(payload map[string]any) Extraction {
	if payload == nil {
		return Extraction{}
	}

	if msgs := extractMessages(payload); len(msgs) > 0 {
		return Extraction{Messages: msgs}
	}
	if events := extractEvents(payload); len(events) > 0 {
		return Extraction{Events: events}
	}
	return Extraction{Text: extractText(payload)}
}

// probeLocations 依次探测 top-level 与各嵌套位置下的 key, 返回首个非空序列。
// accept 为 nil 时只要求非空; 否则序列中至少一个元素需通过形状检查。
func probeLocations(payload map[string]any, key string, accept func(map[string]any) bool) []any {
	candidates := []map[string]any{payload}
	for _, nest := range nestKeys {
		if m, ok := payload[nest].(map[string]any); ok {
			candidates = append(candidates, m)
		}
	}

	for _, c := range candidates {
		list, ok := c[key].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if accept == nil {
			return list
		}
		for _, item := range list {
			if m, ok := item.(map[string]any); ok && accept(m) {
				return list
			}
		}
	}
	return nil
}

// extractMessages 探测规范消息序列 (duck-typing: 元素需带 role 字段)。
func extractMessages(payload map[string]any) []runstate.AgentMessage {
	list := probeLocations(payload, "messages", func(m map[string]any) bool {
		_, ok := m["role"].(string)
		return ok
	})
	if len(list) == 0 {
		return nil
	}

	var out []runstate.AgentMessage
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if msg, ok := parseMessage(m); ok {
			out = append(out, msg)
		}
	}
	return out
}

// extractEvents 探测详细事件序列 (不做 role 形状检查)。
func extractEvents(payload map[string]any) []VerboseEvent {
	list := probeLocations(payload, "events", nil)
	if len(list) == 0 {
		return nil
	}

	var out []VerboseEvent
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		data, _ := m["data"].(map[string]any)
		out = append(out, VerboseEvent{
			Stream: firstString(m, "stream", "channel"),
			Phase:  firstString(m, "phase", "type"),
			Data:   data,
		})
	}
	return out
}

// extractText 探测纯文本字段 (top-level 优先, 再嵌套位置)。
func extractText(payload map[string]any) string {
	if v, ok := payload["text"].(string); ok && v != "" {
		return v
	}
	for _, nest := range nestKeys {
		if m, ok := payload[nest].(map[string]any); ok {
			if v, ok := m["text"].(string); ok && v != "" {
				return v
			}
		}
	}
	return ""
}

// ========================================
// 消息解析
// ========================================

// parseMessage 将 duck-typed map 解析为 AgentMessage。
func parseMessage(m map[string]any) (runstate.AgentMessage, bool) {
	role := strings.ToLower(firstString(m, "role"))
	msg := runstate.AgentMessage{
		ToolUseID: firstString(m, "toolUseId", "tool_use_id"),
	}

	switch role {
	case "assistant":
		msg.Role = runstate.RoleAssistant
	case "tool":
		msg.Role = runstate.RoleTool
	default:
		return runstate.AgentMessage{}, false
	}

	switch content := m["content"].(type) {
	case string:
		if content != "" {
			msg.Content = []runstate.ContentPart{{Kind: runstate.PartText, Text: content}}
		}
	case []any:
		for _, raw := range content {
			pm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if part, ok := parsePart(pm); ok {
				msg.Content = append(msg.Content, part)
			}
		}
	}
	return msg, true
}

// parsePart 解析单个内容片段 (type 标签容忍连字符/下划线变体)。
func parsePart(m map[string]any) (runstate.ContentPart, bool) {
	kind := strings.ReplaceAll(strings.ToLower(firstString(m, "type", "kind")), "-", "_")
	switch kind {
	case "text":
		return runstate.ContentPart{Kind: runstate.PartText, Text: firstString(m, "text", "content")}, true
	case "thinking", "reasoning":
		return runstate.ContentPart{Kind: runstate.PartThinking, Text: firstString(m, "text", "thinking", "content")}, true
	case "tool_call", "tool_use":
		return runstate.ContentPart{
			Kind:        runstate.PartToolCall,
			ToolName:    firstString(m, "toolName", "tool_name", "name"),
			ToolUseID:   firstString(m, "toolUseId", "tool_use_id", "id"),
			StartedAtMS: timestampMS(m, "startedAt", "started_at"),
		}, true
	case "tool_result":
		part := runstate.ContentPart{
			Kind:          runstate.PartToolResult,
			Text:          firstString(m, "text", "content", "output"),
			ToolUseID:     firstString(m, "toolUseId", "tool_use_id", "id"),
			CompletedAtMS: timestampMS(m, "completedAt", "completed_at"),
			DurationMS:    int64Value(m, "durationMs", "duration_ms"),
		}
		if raw, ok := m["raw"].(map[string]any); ok {
			part.Raw = raw
		}
		return part, true
	}
	return runstate.ContentPart{}, false
}

// ========================================
// 字段提取工具
// ========================================

// firstString 返回首个存在且为 string 的键值。
func firstString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok {
			return v
		}
	}
	return ""
}

// int64Value 返回首个可解释为整数的键值 (JSON 数字为 float64)。
func int64Value(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case int:
			return int64(v)
		}
	}
	return 0
}

// timestampMS 解析时间戳字段: 数字视为 UnixMilli, 字符串按 RFC3339 解析。
func timestampMS(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case string:
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				return t.UnixMilli()
			}
		}
	}
	return 0
}
