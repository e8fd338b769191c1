// Package toolname 维护工具标识 → 本地化显示名的固定映射。
//
// 两个消费方:
//   - normalizer 的纯文本兜底解析 (识别 "web_search: ..." 行)
//   - runstate 的工具调用时间线标签格式化
package toolname

import (
	"fmt"
	"strings"
	"time"
)

// displayNames 归一化工具标识 → 本地化显示名。
var displayNames = map[string]string{
	"web_search":       "网页搜索",
	"search":           "网页搜索",
	"browser":          "浏览器操作",
	"fetch":            "网络请求",
	"http_request":     "网络请求",
	"read_file":        "读取文件",
	"write_file":       "写入文件",
	"edit_file":        "编辑文件",
	"list_dir":         "浏览目录",
	"glob":             "文件匹配",
	"grep":             "内容检索",
	"bash":             "执行命令",
	"shell":            "执行命令",
	"exec":             "执行命令",
	"python":           "Python 执行",
	"code_interpreter": "代码执行",
	"sql_query":        "数据库查询",
	"knowledge_search": "知识库检索",
	"doc_parse":        "文档解析",
	"image_gen":        "图像生成",
	"screenshot":       "屏幕截图",
	"translate":        "文本翻译",
	"summarize":        "内容摘要",
	"plan":             "任务规划",
	"task":             "子任务",
	"memory_read":      "记忆读取",
	"memory_write":     "记忆写入",
	"send_email":       "发送邮件",
	"calendar":         "日程管理",
	"calculator":       "数学计算",
	"weather":          "天气查询",
	"map_search":       "地图检索",
	"git":              "代码仓库操作",
	"mcp_tool":         "MCP 工具",
}

// Normalize 清洗工具标识: trim + 小写 + 连字符转下划线。
func Normalize(id string) string {
	s := strings.ToLower(strings.TrimSpace(id))
	return strings.ReplaceAll(s, "-", "_")
}

// DisplayName 返回本地化显示名; 未收录的标识原样返回 (trim 后)。
func DisplayName(id string) string {
	if name, ok := displayNames[Normalize(id)]; ok {
		return name
	}
	return strings.TrimSpace(id)
}

// Known 报告标识是否在映射表中。
func Known(id string) bool {
	_, ok := displayNames[Normalize(id)]
	return ok
}

// FormatCall 生成工具调用的时间线标签, 如 "🛠️ 网页搜索"。
func FormatCall(id string) string {
	return "🛠️ " + DisplayName(id)
}

// FormatCallWithDetail 生成带参数摘要的标签, 如 "🛠️ 网页搜索 query=foo"。
func FormatCallWithDetail(id, detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return FormatCall(id)
	}
	return FormatCall(id) + " " + detail
}

// FormatElapsed 生成耗时后缀, 如 " (用时 2.3s)"。
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf(" (用时 %.1fs)", d.Seconds())
}
