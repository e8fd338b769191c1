package runstate

import "testing"

func TestMergeText(t *testing.T) {
	tests := []struct {
		name       string
		prev, next string
		want       string
	}{
		{"both empty", "", "", ""},
		{"prev empty", "", "Hello", "Hello"},
		{"next empty", "Hello", "", "Hello"},
		{"superstring replaces", "Hello", "Hello world", "Hello world"},
		{"stale prefix ignored", "Hello world", "Hello", "Hello world"},
		{"true increment concatenates", "Hello ", "world", "Hello world"},
		{"identical is idempotent", "same", "same", "same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MergeText(tt.prev, tt.next); got != tt.want {
				t.Errorf("MergeText(%q, %q) = %q, want %q", tt.prev, tt.next, got, tt.want)
			}
		})
	}
}

// 幂等性: merge(P, P) = P 对任意 P 成立。
func TestMergeTextIdempotent(t *testing.T) {
	for _, p := range []string{"", "a", "多字节文本", "line1\nline2"} {
		if got := MergeText(p, p); got != p {
			t.Errorf("MergeText(%q, %q) = %q, want %q", p, p, got, p)
		}
	}
}
