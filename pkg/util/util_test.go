// util_test.go — ClampInt / SafeGo / TruncateMiddle 表驱动测试。
package util

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestClampInt(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi int
		want      int
	}{
		{"below_min", -1, 0, 10, 0},
		{"above_max", 20, 0, 10, 10},
		{"in_range", 5, 0, 10, 5},
		{"at_min", 0, 0, 10, 0},
		{"at_max", 10, 0, 10, 10},
		{"negative_range", -5, -10, -1, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampInt(tt.v, tt.lo, tt.hi)
			if got != tt.want {
				t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestSafeGo_NormalExecution(t *testing.T) {
	var done atomic.Bool
	SafeGo(func() {
		done.Store(true)
	})
	time.Sleep(50 * time.Millisecond)
	if !done.Load() {
		t.Error("SafeGo: function was not executed")
	}
}

func TestSafeGo_PanicDoesNotPropagate(t *testing.T) {
	// SafeGo 应捕获 panic，不扩散到调用方
	var wg sync.WaitGroup
	wg.Add(1)

	SafeGo(func() {
		defer wg.Done()
		panic("test panic")
	})

	// 如果 panic 扩散，测试进程会崩溃 — 走到这里说明捕获成功
	wg.Wait()
}

func TestSafeGo_MultipleConcurrent(t *testing.T) {
	const n = 100
	var counter atomic.Int32
	var wg sync.WaitGroup
	wg.Add(n)

	for i := 0; i < n; i++ {
		SafeGo(func() {
			defer wg.Done()
			counter.Add(1)
		})
	}

	wg.Wait()
	if got := counter.Load(); got != n {
		t.Errorf("SafeGo concurrent: executed %d/%d", got, n)
	}
}

func TestTruncateMiddle(t *testing.T) {
	short := "short text"
	if got := TruncateMiddle(short, 100); got != short {
		t.Errorf("short text should pass through, got %q", got)
	}

	long := strings.Repeat("a", 500) + strings.Repeat("z", 500)
	got := TruncateMiddle(long, 200)
	if len([]rune(got)) >= 1000 {
		t.Errorf("truncated length = %d, want < 1000", len([]rune(got)))
	}
	if !strings.HasPrefix(got, "a") || !strings.HasSuffix(got, "z") {
		t.Errorf("truncation should keep head and tail, got %q", got[:20])
	}
	if !strings.Contains(got, "已截断") {
		t.Error("truncation marker missing")
	}
}

func TestTruncateMiddle_Multibyte(t *testing.T) {
	text := strings.Repeat("汉", 300)
	got := TruncateMiddle(text, 100)
	for _, r := range got {
		if r == '�' {
			t.Fatal("multibyte rune was split")
		}
	}
}
