package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/render"
	"github.com/multi-agent/agent-card-bridge/internal/renderer"
)

// memClient 测试用内存消息客户端。
type memClient struct {
	mu      sync.Mutex
	created int
	edited  int
	lastDoc render.Document
}

func (m *memClient) CreateMessage(_ context.Context, _ string, doc render.Document) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created++
	m.lastDoc = doc
	return "msg-1", nil
}

func (m *memClient) EditMessage(_ context.Context, _ string, doc render.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited++
	m.lastDoc = doc
	return nil
}

func (m *memClient) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created, m.edited
}

func (m *memClient) last() render.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDoc
}

func testFactory(client renderer.MessageClient) (ControllerFactory, *int) {
	calls := 0
	return func(runKey string) *renderer.Controller {
		calls++
		return renderer.New(client, renderer.Options{
			Target:      "chat",
			RunKey:      runKey,
			MinInterval: time.Millisecond,
		})
	}, &calls
}

func TestRegistryOneControllerPerKey(t *testing.T) {
	client := &memClient{}
	factory, calls := testFactory(client)
	r := NewRegistry(factory)
	ctx := context.Background()

	if err := r.Deliver(ctx, "run-a", map[string]any{"text": "one"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if err := r.Deliver(ctx, "run-a", map[string]any{"text": "one more"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if *calls != 1 {
		t.Errorf("factory calls = %d, want 1", *calls)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}

	if err := r.Deliver(ctx, "run-b", map[string]any{"text": "two"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if *calls != 2 || r.Len() != 2 {
		t.Errorf("calls = %d, Len = %d", *calls, r.Len())
	}
}

func TestRegistryFinalizeRemoves(t *testing.T) {
	client := &memClient{}
	factory, calls := testFactory(client)
	r := NewRegistry(factory)
	ctx := context.Background()

	if err := r.Deliver(ctx, "run-a", map[string]any{"text": "hello"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if err := r.Finalize(ctx, "run-a"); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0 after finalize", r.Len())
	}

	// 再投递同键重新登记
	if err := r.Deliver(ctx, "run-a", map[string]any{"text": "again"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if *calls != 2 {
		t.Errorf("factory calls = %d, want 2", *calls)
	}
}

func TestRegistryFinalizeUnknownNoop(t *testing.T) {
	client := &memClient{}
	factory, _ := testFactory(client)
	r := NewRegistry(factory)

	if err := r.Finalize(context.Background(), "never-seen"); err != nil {
		t.Fatalf("Finalize unknown: %v", err)
	}
	if created, _ := client.counts(); created != 0 {
		t.Error("unknown run must not publish")
	}
}

func TestRegistryErrorTerminates(t *testing.T) {
	client := &memClient{}
	factory, _ := testFactory(client)
	r := NewRegistry(factory)
	ctx := context.Background()

	if err := r.Deliver(ctx, "run-x", map[string]any{"text": "partial"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if err := r.Error(ctx, "run-x"); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
	if got := client.last().Header.Template; got != "red" {
		t.Errorf("final header template = %q, want red", got)
	}
}
