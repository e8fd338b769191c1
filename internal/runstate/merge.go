package runstate

import "strings"

// MergeText 前缀感知的文本合并。
//
// 兼容两类生产者: 只发增量 delta 的, 和每次重发全量累积串的。
// 规则:
//   - prev 为空 → next
//   - next 为空 → prev
//   - next 以 prev 开头 → 生产者发的是全量串, 整体替换
//   - prev 以 next 开头 → 过期/更短的重发, 忽略
//   - 其余 → 视为真增量, 拼接
func MergeText(prev, next string) string {
	if prev == "" {
		return next
	}
	if next == "" {
		return prev
	}
	if strings.HasPrefix(next, prev) {
		return next
	}
	if strings.HasPrefix(prev, next) {
		return prev
	}
	return prev + next
}
