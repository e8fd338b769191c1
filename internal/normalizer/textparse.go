// textparse.go — 纯文本兜底解析: 从自由文本里启发式提取工具调用行。
package normalizer

import (
	"regexp"
	"strings"

	"github.com/multi-agent/agent-card-bridge/internal/toolname"
)

// toolLineRe 匹配 "<可选 emoji 前缀> <短标识> : <自由文本>" 形式的行。
// 标识限定为字母开头的短词, 避免把普通叙述句误判成工具行。
var toolLineRe = regexp.MustCompile(`^\s*(?:[\p{So}\p{Sk}\x{2190}-\x{2BFF}\x{1F000}-\x{1FAFF}\x{FE0F}]+\s*)?([A-Za-z][A-Za-z0-9_\-]{1,31})\s*[:：]\s*(.+)$`)

// ToolLine 一条解析出的工具调用行。
type ToolLine struct {
	Name   string // 原始标识 (本地化由 toolname 负责)
	Detail string // 冒号后的自由文本
}

// ParsedText 纯文本解析结果。
type ParsedText struct {
	ToolLines []ToolLine
	Remaining string // 未匹配行, trim 后按原顺序以换行重组
}

// ParseText 按行扫描文本: 匹配工具行模式的行转为合成工具调用,
// 其余行保留为剩余自由文本。
func ParseText(text string) ParsedText {
	var result ParsedText
	var remaining []string

	for _, line := range strings.Split(text, "\n") {
		m := toolLineRe.FindStringSubmatch(line)
		if m != nil {
			result.ToolLines = append(result.ToolLines, ToolLine{
				Name:   m[1],
				Detail: strings.TrimSpace(m[2]),
			})
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			remaining = append(remaining, trimmed)
		}
	}

	result.Remaining = strings.Join(remaining, "\n")
	return result
}

// Render 将解析结果重组为展示文本: 工具行在前, 剩余文本在后,
// 两者都非空时以空行分隔。
func (p ParsedText) Render() string {
	var lines []string
	for _, tl := range p.ToolLines {
		lines = append(lines, toolname.FormatCallWithDetail(tl.Name, tl.Detail))
	}
	block := strings.Join(lines, "\n")
	switch {
	case block == "":
		return p.Remaining
	case p.Remaining == "":
		return block
	default:
		return block + "\n\n" + p.Remaining
	}
}
