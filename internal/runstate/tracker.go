package runstate

import (
	"strings"
	"sync"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/toolname"
)

// toolCallInfo 工具调用的关联信息 (ToolUseID → 时间线位置 + 元数据)。
// 与有序时间线并存的按键索引, 保证结果关联 O(1), 展示顺序仍由 slice 决定。
type toolCallInfo struct {
	index       int
	toolName    string
	detail      string
	startedAtMS int64
}

// Tracker 单次运行的状态累积器。
//
// 宿主需对同一运行串行调用; 内部互斥锁只为避免偶发跨 goroutine
// 读取 (Snapshot) 撕裂, 不构成并发写入契约。
type Tracker struct {
	mu       sync.Mutex
	status   RunStatus
	timeline []TimelineEntry
	seen     map[string]int           // 去重键 → 时间线位置
	calls    map[string]*toolCallInfo // ToolUseID → 调用信息
	draft    string

	now func() time.Time // 测试钩子
}

// NewTracker 创建空 Tracker, 初始状态 Idle。
func NewTracker() *Tracker {
	return &Tracker{
		status: StatusIdle,
		seen:   map[string]int{},
		calls:  map[string]*toolCallInfo{},
		now:    time.Now,
	}
}

// SetStatus 无条件覆盖状态 (last-writer-wins, 不校验状态迁移)。
func (t *Tracker) SetStatus(s RunStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
}

// Status 返回当前状态。
func (t *Tracker) Status() RunStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// SetDraftAnswer 整体替换草稿答案。
func (t *Tracker) SetDraftAnswer(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = text
}

// MergeDraft 用前缀感知合并规则将增量并入草稿答案, 返回合并结果。
func (t *Tracker) MergeDraft(chunk string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = MergeText(t.draft, chunk)
	return t.draft
}

// DraftAnswer 返回当前草稿答案。
func (t *Tracker) DraftAnswer() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// Empty 报告是否既无时间线条目也无草稿答案。
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.timeline) == 0 && strings.TrimSpace(t.draft) == ""
}

// Reset 清空全部累积状态, 回到 Idle。
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusIdle
	t.timeline = nil
	t.seen = map[string]int{}
	t.calls = map[string]*toolCallInfo{}
	t.draft = ""
}

// Snapshot 时间线 + 状态 + 草稿的一致性快照 (时间线为拷贝)。
type Snapshot struct {
	Status   RunStatus
	Timeline []TimelineEntry
	Draft    string
}

// Snapshot 返回当前状态的拷贝快照, 供渲染层投影。
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	tl := make([]TimelineEntry, len(t.timeline))
	copy(tl, t.timeline)
	return Snapshot{Status: t.status, Timeline: tl, Draft: t.draft}
}

// ========================================
// AppendMessages — 投影 + 去重 + 结果关联
// ========================================

// AppendMessages 将一批消息投影到时间线。
//
// 去重键: 工具调用为 "tool:<id>", 其余为 "<kind>|<content>"。
// 已存在的工具调用条目在结果到达时原地改写 (补耗时后缀), 不重复追加。
// 若本批产生非空最终文本候选, 整体替换草稿答案 (最后一次全量投影胜出)。
func (t *Tracker) AppendMessages(msgs []AgentMessage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var msgTexts []string
	sawToolCall := false
	sawThinking := false

	for _, msg := range msgs {
		switch msg.Role {
		case RoleAssistant:
			var parts []string
			for _, p := range msg.Content {
				switch p.Kind {
				case PartText:
					if strings.TrimSpace(p.Text) == "" {
						continue
					}
					t.appendEntryLocked(TimelineEntry{Kind: EntryText, Content: p.Text})
					parts = append(parts, p.Text)
				case PartThinking:
					sawThinking = true
					if strings.TrimSpace(p.Text) == "" {
						continue
					}
					t.appendEntryLocked(TimelineEntry{Kind: EntryThinking, Content: p.Text})
				case PartToolCall:
					sawToolCall = true
					t.appendToolCallLocked(p)
				}
			}
			if len(parts) > 0 {
				msgTexts = append(msgTexts, strings.Join(parts, "\n"))
			}
		case RoleTool:
			for _, p := range msg.Content {
				if p.Kind != PartToolResult {
					continue
				}
				id := p.ToolUseID
				if id == "" {
					id = msg.ToolUseID
				}
				t.resolveToolResultLocked(id, p)
			}
		}
	}

	if candidate := strings.TrimSpace(strings.Join(msgTexts, "\n\n")); candidate != "" {
		t.draft = candidate
	}

	// 状态推断兜底: 无显式状态事件时从消息内容推断
	if sawToolCall {
		t.status = StatusToolCalling
	} else if sawThinking {
		t.status = StatusThinking
	}
}

// appendEntryLocked 按去重键追加, 空内容丢弃, 已见过的键跳过。
func (t *Tracker) appendEntryLocked(e TimelineEntry) {
	if strings.TrimSpace(e.Content) == "" {
		return
	}
	key := string(e.Kind) + "|" + e.Content
	if _, ok := t.seen[key]; ok {
		return
	}
	t.timeline = append(t.timeline, e)
	t.seen[key] = len(t.timeline) - 1
}

// appendToolCallLocked 追加或原地替换工具调用条目, 并登记关联索引。
func (t *Tracker) appendToolCallLocked(p ContentPart) {
	content := toolname.FormatCallWithDetail(p.ToolName, p.Detail)

	if p.ToolUseID == "" {
		// 无 id 的调用退化为普通内容去重
		t.appendEntryLocked(TimelineEntry{Kind: EntryToolCall, Content: content, ToolName: p.ToolName})
		return
	}

	key := "tool:" + p.ToolUseID
	if idx, ok := t.seen[key]; ok {
		// 同 id 重复投影: 原地替换而非追加
		t.timeline[idx] = TimelineEntry{
			Kind:       EntryToolCall,
			Content:    content,
			ToolUseID:  p.ToolUseID,
			ToolName:   p.ToolName,
			DurationMS: t.timeline[idx].DurationMS,
		}
		if info := t.calls[p.ToolUseID]; info != nil && p.StartedAtMS > 0 {
			info.startedAtMS = p.StartedAtMS
		}
		return
	}

	t.timeline = append(t.timeline, TimelineEntry{
		Kind:      EntryToolCall,
		Content:   content,
		ToolUseID: p.ToolUseID,
		ToolName:  p.ToolName,
	})
	idx := len(t.timeline) - 1
	t.seen[key] = idx
	t.calls[p.ToolUseID] = &toolCallInfo{
		index:       idx,
		toolName:    p.ToolName,
		detail:      p.Detail,
		startedAtMS: p.StartedAtMS,
	}
}

// resolveToolResultLocked 结果到达: 计算耗时并改写对应调用条目。
//
// 耗时优先级: 显式上报 > completedAt−startedAt > now−startedAt > 未知。
func (t *Tracker) resolveToolResultLocked(toolUseID string, p ContentPart) {
	if toolUseID == "" {
		return
	}
	info, ok := t.calls[toolUseID]
	if !ok {
		return
	}

	var durationMS int64
	switch {
	case p.DurationMS > 0:
		durationMS = p.DurationMS
	case p.CompletedAtMS > 0 && info.startedAtMS > 0:
		durationMS = p.CompletedAtMS - info.startedAtMS
	case info.startedAtMS > 0:
		durationMS = t.now().UnixMilli() - info.startedAtMS
	}

	entry := &t.timeline[info.index]
	content := toolname.FormatCallWithDetail(info.toolName, info.detail)
	if durationMS > 0 {
		content += toolname.FormatElapsed(time.Duration(durationMS) * time.Millisecond)
		d := durationMS
		entry.DurationMS = &d
	}
	entry.Content = content
}
