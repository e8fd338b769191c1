// Package render 把 Tracker 快照投影为展示状态, 再构建成卡片文档。
//
// Project 是纯函数: 同一快照永远产出同一 RenderState,
// 不读时钟、不碰外部状态, 渲染层因此可以随时重放。
package render

import (
	"strings"

	"github.com/multi-agent/agent-card-bridge/internal/runstate"
)

// 占位文案。
const (
	placeholderNoReply  = "暂无回复内容"
	placeholderThinking = "思考中…"
)

// thinkingPrefix 思考条目的强调前缀。
const thinkingPrefix = "*思考:* "

// RenderState 一次渲染的展示状态。
type RenderState struct {
	Status       runstate.RunStatus
	Body         string // 正文 markdown
	Timeline     string // 执行过程 markdown; ShowTimeline 为 false 时忽略
	ShowTimeline bool   // 是否展示独立的执行过程面板 (仅终态)
}

// Project 将快照投影为展示状态。
//
// 终态: 正文为最终答案 (空则占位), 时间线过滤掉与最终答案重复的
// 文本条目后, 仍有剩余才展示面板。
// 非终态: 正文为时间线 markdown → 草稿 → 占位的逐级兜底,
// 不展示独立面板 (时间线直接充当正文)。
func Project(snap runstate.Snapshot) RenderState {
	state := RenderState{Status: snap.Status}

	if snap.Status.Terminal() {
		answer := strings.TrimSpace(snap.Draft)
		if answer == "" {
			state.Body = placeholderNoReply
		} else {
			state.Body = answer
		}
		state.Timeline = timelineMarkdown(filterEchoes(snap.Timeline, answer))
		state.ShowTimeline = state.Timeline != ""
		return state
	}

	switch {
	case len(snap.Timeline) > 0:
		state.Body = timelineMarkdown(snap.Timeline)
	case strings.TrimSpace(snap.Draft) != "":
		state.Body = snap.Draft
	default:
		state.Body = placeholderThinking
	}
	return state
}

// filterEchoes 剔除与最终答案内容相同的文本条目 (按空白归一化比较),
// 避免同一段话在面板和正文里出现两次。
func filterEchoes(entries []runstate.TimelineEntry, answer string) []runstate.TimelineEntry {
	if answer == "" {
		return entries
	}
	normalized := normalizeWhitespace(answer)
	var out []runstate.TimelineEntry
	for _, e := range entries {
		if e.Kind == runstate.EntryText && normalizeWhitespace(e.Content) == normalized {
			continue
		}
		out = append(out, e)
	}
	return out
}

// timelineMarkdown 按条目顺序渲染: 思考条目加强调前缀, 其余原样,
// 空内容条目省略, 换行连接。
func timelineMarkdown(entries []runstate.TimelineEntry) string {
	var lines []string
	for _, e := range entries {
		content := strings.TrimSpace(e.Content)
		if content == "" {
			continue
		}
		if e.Kind == runstate.EntryThinking {
			content = thinkingPrefix + content
		}
		lines = append(lines, content)
	}
	return strings.Join(lines, "\n")
}

// normalizeWhitespace 将任意空白序列折叠为单个空格并 trim。
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
