package toolname

import (
	"strings"
	"testing"
	"time"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"known", "web_search", "网页搜索"},
		{"uppercase", "WEB_SEARCH", "网页搜索"},
		{"hyphenated", "web-search", "网页搜索"},
		{"padded", "  bash  ", "执行命令"},
		{"unknown passthrough", "my_custom_tool", "my_custom_tool"},
		{"unknown trimmed", "  my_custom_tool  ", "my_custom_tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(tt.in); got != tt.want {
				t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKnown(t *testing.T) {
	if !Known("read_file") {
		t.Error("read_file should be known")
	}
	if Known("definitely_not_a_tool") {
		t.Error("unknown identifier reported as known")
	}
}

func TestFormatCall(t *testing.T) {
	got := FormatCall("web_search")
	if !strings.Contains(got, "网页搜索") {
		t.Errorf("FormatCall = %q, want to contain 网页搜索", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	got := FormatElapsed(2300 * time.Millisecond)
	if !strings.Contains(got, "2.3s") {
		t.Errorf("FormatElapsed = %q, want to contain 2.3s", got)
	}
}
