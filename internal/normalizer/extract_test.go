package normalizer

import (
	"encoding/json"
	"testing"

	"github.com/multi-agent/agent-card-bridge/internal/runstate"
)

func mustPayload(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("bad payload fixture: %v", err)
	}
	return m
}

// ─── 优先级: messages > events > text ───

func TestExtractPriority(t *testing.T) {
	payload := mustPayload(t, `{
		"text": "fallback",
		"events": [{"stream": "assistant", "phase": "output", "data": {"text": "hi"}}],
		"messages": [{"role": "assistant", "content": "hello"}]
	}`)
	ex := Extract(payload)
	if len(ex.Messages) != 1 {
		t.Fatalf("messages len = %d, want 1", len(ex.Messages))
	}
	if len(ex.Events) != 0 || ex.Text != "" {
		t.Error("messages should suppress events and text")
	}
}

func TestExtractEventsWhenNoMessages(t *testing.T) {
	payload := mustPayload(t, `{
		"text": "fallback",
		"events": [{"stream": "tool", "phase": "start", "data": {"tool": "bash"}}]
	}`)
	ex := Extract(payload)
	if len(ex.Events) != 1 {
		t.Fatalf("events len = %d, want 1", len(ex.Events))
	}
	if ex.Events[0].Stream != "tool" || ex.Events[0].Phase != "start" {
		t.Errorf("event = %+v", ex.Events[0])
	}
}

func TestExtractTextFallback(t *testing.T) {
	ex := Extract(mustPayload(t, `{"text": "plain"}`))
	if ex.Text != "plain" {
		t.Errorf("text = %q, want plain", ex.Text)
	}
}

func TestExtractNilPayload(t *testing.T) {
	if !Extract(nil).Empty() {
		t.Error("nil payload should yield empty extraction")
	}
}

// ─── 嵌套位置探测 ───

func TestExtractNestedLocations(t *testing.T) {
	for _, nest := range []string{"meta", "extra", "context", "delta"} {
		payload := mustPayload(t, `{"`+nest+`": {"messages": [{"role": "assistant", "content": "nested"}]}}`)
		ex := Extract(payload)
		if len(ex.Messages) != 1 {
			t.Errorf("nest %q: messages len = %d, want 1", nest, len(ex.Messages))
		}
	}
}

func TestExtractSkipsRolelessMessages(t *testing.T) {
	// messages 元素缺 role → 形状检查不通过, 降级到 events
	payload := mustPayload(t, `{
		"messages": [{"content": "no role"}],
		"events": [{"stream": "lifecycle", "phase": "start"}]
	}`)
	ex := Extract(payload)
	if len(ex.Messages) != 0 {
		t.Error("roleless elements should not pass the message shape check")
	}
	if len(ex.Events) != 1 {
		t.Errorf("events len = %d, want 1", len(ex.Events))
	}
}

// ─── 消息解析 ───

func TestParseMessageParts(t *testing.T) {
	payload := mustPayload(t, `{"messages": [
		{"role": "assistant", "content": [
			{"type": "text", "text": "answer"},
			{"type": "thinking", "text": "hmm"},
			{"type": "tool-call", "toolName": "web_search", "toolUseId": "c1", "startedAt": 1000}
		]},
		{"role": "tool", "toolUseId": "c1", "content": [
			{"type": "tool-result", "toolUseId": "c1", "text": "results", "durationMs": 42}
		]}
	]}`)
	ex := Extract(payload)
	if len(ex.Messages) != 2 {
		t.Fatalf("messages len = %d, want 2", len(ex.Messages))
	}

	first := ex.Messages[0]
	if first.Role != runstate.RoleAssistant || len(first.Content) != 3 {
		t.Fatalf("assistant message = %+v", first)
	}
	call := first.Content[2]
	if call.Kind != runstate.PartToolCall || call.ToolUseID != "c1" || call.StartedAtMS != 1000 {
		t.Errorf("tool call part = %+v", call)
	}

	second := ex.Messages[1]
	if second.Role != runstate.RoleTool || len(second.Content) != 1 {
		t.Fatalf("tool message = %+v", second)
	}
	res := second.Content[0]
	if res.Kind != runstate.PartToolResult || res.DurationMS != 42 || res.Text != "results" {
		t.Errorf("tool result part = %+v", res)
	}
}

func TestParseMessageStringContent(t *testing.T) {
	ex := Extract(mustPayload(t, `{"messages": [{"role": "assistant", "content": "short"}]}`))
	if len(ex.Messages) != 1 || len(ex.Messages[0].Content) != 1 {
		t.Fatalf("messages = %+v", ex.Messages)
	}
	if ex.Messages[0].Content[0].Text != "short" {
		t.Errorf("text = %q", ex.Messages[0].Content[0].Text)
	}
}

func TestParsePartUnderscoreVariant(t *testing.T) {
	ex := Extract(mustPayload(t, `{"messages": [
		{"role": "assistant", "content": [{"type": "tool_call", "tool_name": "bash", "tool_use_id": "x"}]}
	]}`))
	if len(ex.Messages) != 1 || len(ex.Messages[0].Content) != 1 {
		t.Fatalf("messages = %+v", ex.Messages)
	}
	part := ex.Messages[0].Content[0]
	if part.ToolName != "bash" || part.ToolUseID != "x" {
		t.Errorf("part = %+v", part)
	}
}
