// card.go — 飞书卡片 2.0 文档构建。
package render

import "github.com/multi-agent/agent-card-bridge/internal/runstate"

// SchemaVersion 卡片 schema 版本标识。
const SchemaVersion = "2.0"

// panelTitle 执行过程面板标题。
const panelTitle = "**执行过程**"

// ========================================
// 卡片文档模型
// ========================================

// Document 一张待发布的卡片。
type Document struct {
	Schema string `json:"schema"`
	Config Config `json:"config"`
	Header Header `json:"header"`
	Body   Body   `json:"body"`
}

// Config 卡片全局配置。
type Config struct {
	UpdateMulti bool   `json:"update_multi"` // 允许多次编辑同一消息
	WidthMode   string `json:"width_mode"`
}

// Header 卡片头部: 颜色模板 + 图标 + 状态标题。
type Header struct {
	Template string `json:"template"`
	Icon     Icon   `json:"ud_icon"`
	Title    Text   `json:"title"`
}

// Icon 头部图标。
type Icon struct {
	Token string `json:"token"`
}

// Text 纯文本元素。
type Text struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// Body 卡片正文: 至多一个折叠面板 + 恰好一个 markdown 块。
type Body struct {
	Elements []any `json:"elements"`
}

// MarkdownBlock markdown 正文块。
type MarkdownBlock struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

// CollapsiblePanel 折叠面板 (执行过程)。
type CollapsiblePanel struct {
	Tag      string          `json:"tag"`
	Expanded bool            `json:"expanded"`
	Header   PanelHeader     `json:"header"`
	Elements []MarkdownBlock `json:"elements"`
}

// PanelHeader 面板标题行。
type PanelHeader struct {
	Title Text `json:"title"`
}

// ========================================
// 状态 → 头部样式
// ========================================

// headerStyle 头部颜色模板 + 图标 + 标题文案。
type headerStyle struct {
	template string
	icon     string
	title    string
}

// headerStyles 状态固定映射; 未列出的状态用 fallbackStyle。
var headerStyles = map[runstate.RunStatus]headerStyle{
	runstate.StatusCompleted:         {"green", "succeed_colorful", "执行完成"},
	runstate.StatusToolCalling:       {"turquoise", "gear_colorful", "工具调用中"},
	runstate.StatusWaitingToolResult: {"turquoise", "gear_colorful", "等待工具结果"},
	runstate.StatusCanceled:          {"orange", "ban_colorful", "已取消"},
	runstate.StatusError:             {"red", "error_colorful", "执行出错"},
	runstate.StatusThinking:          {"blue", "sparkle_colorful", "思考中"},
}

var fallbackStyle = headerStyle{"grey", "info_colorful", "等待中"}

// BuildCard 从展示状态构建卡片文档。
// 面板 (如展示) 在前且默认折叠, markdown 正文块恒为最后一个元素。
func BuildCard(state RenderState) Document {
	style, ok := headerStyles[state.Status]
	if !ok {
		style = fallbackStyle
	}

	var elements []any
	if state.ShowTimeline && state.Timeline != "" {
		elements = append(elements, CollapsiblePanel{
			Tag:      "collapsible_panel",
			Expanded: false,
			Header:   PanelHeader{Title: Text{Tag: "markdown", Content: panelTitle}},
			Elements: []MarkdownBlock{{Tag: "markdown", Content: state.Timeline}},
		})
	}
	elements = append(elements, MarkdownBlock{Tag: "markdown", Content: state.Body})

	return Document{
		Schema: SchemaVersion,
		Config: Config{UpdateMulti: true, WidthMode: "fill"},
		Header: Header{
			Template: style.template,
			Icon:     Icon{Token: style.icon},
			Title:    Text{Tag: "plain_text", Content: style.title},
		},
		Body: Body{Elements: elements},
	}
}
