package util

import "strings"

// EscapeLike 转义 SQL LIKE 通配符 (配合 ESCAPE E'\\' 使用)。
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// FirstNonEmpty 返回第一个非空 (trim 后) 的字符串。
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// TruncateMiddle 中间截断: 保留头尾各 half，中间替换为 "... (已截断) ..."。
// 按 rune 截断，避免把多字节字符切碎。
func TruncateMiddle(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	half := maxLen/2 - 20
	if half < 0 {
		half = 0
	}
	return string(runes[:half]) + "\n\n... (已截断) ...\n\n" + string(runes[len(runes)-half:])
}
