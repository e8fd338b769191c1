package runstate

import (
	"strings"
	"testing"
	"time"
)

func toolCallMsg(id, name string, startedAtMS int64) AgentMessage {
	return AgentMessage{
		Role: RoleAssistant,
		Content: []ContentPart{
			{Kind: PartToolCall, ToolName: name, ToolUseID: id, StartedAtMS: startedAtMS},
		},
	}
}

func toolResultMsg(id string, p ContentPart) AgentMessage {
	p.Kind = PartToolResult
	p.ToolUseID = id
	return AgentMessage{Role: RoleTool, ToolUseID: id, Content: []ContentPart{p}}
}

// ─── 去重 ───

func TestAppendMessagesToolCallDedup(t *testing.T) {
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{toolCallMsg("call-1", "web_search", 0)})
	tr.AppendMessages([]AgentMessage{toolCallMsg("call-1", "web_search", 0)})

	snap := tr.Snapshot()
	if len(snap.Timeline) != 1 {
		t.Fatalf("timeline len = %d, want 1", len(snap.Timeline))
	}
	if snap.Timeline[0].ToolUseID != "call-1" {
		t.Errorf("ToolUseID = %q, want call-1", snap.Timeline[0].ToolUseID)
	}
	if !strings.Contains(snap.Timeline[0].Content, "网页搜索") {
		t.Errorf("content = %q, want localized label", snap.Timeline[0].Content)
	}
}

func TestAppendMessagesTextDedup(t *testing.T) {
	tr := NewTracker()
	msg := AgentMessage{Role: RoleAssistant, Content: []ContentPart{{Kind: PartText, Text: "same text"}}}
	tr.AppendMessages([]AgentMessage{msg})
	tr.AppendMessages([]AgentMessage{msg})

	if got := len(tr.Snapshot().Timeline); got != 1 {
		t.Errorf("timeline len = %d, want 1", got)
	}
}

func TestAppendMessagesDropsEmptyContent(t *testing.T) {
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{{
		Role: RoleAssistant,
		Content: []ContentPart{
			{Kind: PartText, Text: "   "},
			{Kind: PartThinking, Text: "\t\n"},
		},
	}})
	if got := len(tr.Snapshot().Timeline); got != 0 {
		t.Errorf("timeline len = %d, want 0", got)
	}
}

// ─── 结果关联: 原地改写而非新增 ───

func TestToolResultRewritesInPlace(t *testing.T) {
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{toolCallMsg("call-1", "web_search", 0)})
	tr.AppendMessages([]AgentMessage{toolResultMsg("call-1", ContentPart{DurationMS: 2300})})

	snap := tr.Snapshot()
	if len(snap.Timeline) != 1 {
		t.Fatalf("timeline len = %d, want 1 (in-place rewrite)", len(snap.Timeline))
	}
	e := snap.Timeline[0]
	if e.DurationMS == nil || *e.DurationMS != 2300 {
		t.Errorf("DurationMS = %v, want 2300", e.DurationMS)
	}
	if !strings.Contains(e.Content, "2.3s") {
		t.Errorf("content = %q, want elapsed suffix", e.Content)
	}
}

func TestToolResultDurationPriority(t *testing.T) {
	// 显式 durationMs 优先于 completedAt−startedAt
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{toolCallMsg("c1", "bash", 1000)})
	tr.AppendMessages([]AgentMessage{toolResultMsg("c1", ContentPart{DurationMS: 500, CompletedAtMS: 9000})})
	if e := tr.Snapshot().Timeline[0]; e.DurationMS == nil || *e.DurationMS != 500 {
		t.Errorf("explicit duration should win, got %v", e.DurationMS)
	}

	// completedAt−startedAt 次之
	tr = NewTracker()
	tr.AppendMessages([]AgentMessage{toolCallMsg("c2", "bash", 1000)})
	tr.AppendMessages([]AgentMessage{toolResultMsg("c2", ContentPart{CompletedAtMS: 4200})})
	if e := tr.Snapshot().Timeline[0]; e.DurationMS == nil || *e.DurationMS != 3200 {
		t.Errorf("completed−started = 3200, got %v", e.DurationMS)
	}

	// 最后回落到 now−startedAt
	tr = NewTracker()
	tr.now = func() time.Time { return time.UnixMilli(6000) }
	tr.AppendMessages([]AgentMessage{toolCallMsg("c3", "bash", 1000)})
	tr.AppendMessages([]AgentMessage{toolResultMsg("c3", ContentPart{})})
	if e := tr.Snapshot().Timeline[0]; e.DurationMS == nil || *e.DurationMS != 5000 {
		t.Errorf("now−started = 5000, got %v", e.DurationMS)
	}
}

func TestToolResultUnknownIDIgnored(t *testing.T) {
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{toolResultMsg("nonexistent", ContentPart{DurationMS: 100})})
	if got := len(tr.Snapshot().Timeline); got != 0 {
		t.Errorf("timeline len = %d, want 0", got)
	}
}

// ─── 草稿答案 ───

func TestFinalTextCandidateReplacesDraft(t *testing.T) {
	tr := NewTracker()
	tr.SetDraftAnswer("old draft")
	tr.AppendMessages([]AgentMessage{
		{Role: RoleAssistant, Content: []ContentPart{{Kind: PartText, Text: "first"}}},
		{Role: RoleAssistant, Content: []ContentPart{{Kind: PartText, Text: "second"}}},
	})
	want := "first\n\nsecond"
	if got := tr.DraftAnswer(); got != want {
		t.Errorf("draft = %q, want %q", got, want)
	}
}

func TestEmptyBatchKeepsDraft(t *testing.T) {
	tr := NewTracker()
	tr.SetDraftAnswer("keep me")
	tr.AppendMessages([]AgentMessage{toolCallMsg("c1", "bash", 0)})
	if got := tr.DraftAnswer(); got != "keep me" {
		t.Errorf("draft = %q, want unchanged", got)
	}
}

func TestMergeDraft(t *testing.T) {
	tr := NewTracker()
	tr.MergeDraft("Hello")
	tr.MergeDraft("Hello world")
	if got := tr.DraftAnswer(); got != "Hello world" {
		t.Errorf("draft = %q, want 'Hello world' (superstring replace)", got)
	}
}

// ─── 状态 ───

func TestStatusInference(t *testing.T) {
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{toolCallMsg("c1", "bash", 0)})
	if got := tr.Status(); got != StatusToolCalling {
		t.Errorf("status = %q, want tool_calling", got)
	}

	tr = NewTracker()
	tr.AppendMessages([]AgentMessage{{
		Role:    RoleAssistant,
		Content: []ContentPart{{Kind: PartThinking, Text: "hmm"}},
	}})
	if got := tr.Status(); got != StatusThinking {
		t.Errorf("status = %q, want thinking", got)
	}

	// 纯文本批次不改状态
	tr = NewTracker()
	tr.SetStatus(StatusWaitingToolResult)
	tr.AppendMessages([]AgentMessage{{
		Role:    RoleAssistant,
		Content: []ContentPart{{Kind: PartText, Text: "plain"}},
	}})
	if got := tr.Status(); got != StatusWaitingToolResult {
		t.Errorf("status = %q, want unchanged", got)
	}
}

func TestSetStatusLastWriterWins(t *testing.T) {
	// 状态机不校验迁移: Completed → Thinking 也被接受 (钉住宽松行为)
	tr := NewTracker()
	tr.SetStatus(StatusCompleted)
	tr.SetStatus(StatusThinking)
	if got := tr.Status(); got != StatusThinking {
		t.Errorf("status = %q, want thinking", got)
	}
}

func TestTerminal(t *testing.T) {
	for s, want := range map[RunStatus]bool{
		StatusIdle: false, StatusThinking: false, StatusToolCalling: false,
		StatusWaitingToolResult: false, StatusCompleted: true,
		StatusCanceled: true, StatusError: true,
	} {
		if got := s.Terminal(); got != want {
			t.Errorf("%q.Terminal() = %v, want %v", s, got, want)
		}
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker()
	tr.AppendMessages([]AgentMessage{toolCallMsg("c1", "bash", 0)})
	tr.SetDraftAnswer("text")
	tr.Reset()

	if !tr.Empty() {
		t.Error("tracker should be empty after Reset")
	}
	if got := tr.Status(); got != StatusIdle {
		t.Errorf("status = %q, want idle", got)
	}
}
