// Package service 入站接入层: HTTP / WebSocket 路由 + 运行注册表。
//
// 每个运行键对应一个渲染控制器; 注册表负责按运行串行化投递,
// 满足控制器 "单一逻辑持有者" 的约束。
package service

import (
	"context"
	"sync"

	"github.com/multi-agent/agent-card-bridge/internal/renderer"
	"github.com/multi-agent/agent-card-bridge/pkg/logger"
)

// ControllerFactory 按运行键创建控制器 (组合根注入, 测试可替换)。
type ControllerFactory func(runKey string) *renderer.Controller

// runEntry 一个在途运行: 控制器 + 串行化锁。
type runEntry struct {
	mu   sync.Mutex
	ctrl *renderer.Controller
}

// Registry 运行注册表。首次投递创建控制器, 终结后移除。
type Registry struct {
	mu      sync.Mutex
	entries map[string]*runEntry
	factory ControllerFactory
}

// NewRegistry 创建注册表。
func NewRegistry(factory ControllerFactory) *Registry {
	return &Registry{
		entries: map[string]*runEntry{},
		factory: factory,
	}
}

// Len 返回在途运行数。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// obtain 取或建运行项。
func (r *Registry) obtain(runKey string) *runEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[runKey]; ok {
		return e
	}
	e := &runEntry{ctrl: r.factory(runKey)}
	r.entries[runKey] = e
	logger.Infow("运行已登记", logger.FieldRunKey, runKey)
	return e
}

// take 取出并移除运行项, 不存在时返回 nil。
func (r *Registry) take(runKey string) *runEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[runKey]
	delete(r.entries, runKey)
	return e
}

// Deliver 将一份负载投递给指定运行, 同运行内串行。
func (r *Registry) Deliver(ctx context.Context, runKey string, payload map[string]any) error {
	e := r.obtain(runKey)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctrl.Deliver(ctx, payload)
}

// Finalize 终结运行并从注册表移除。未知运行是 no-op。
func (r *Registry) Finalize(ctx context.Context, runKey string) error {
	e := r.take(runKey)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	logger.Infow("运行已终结", logger.FieldRunKey, runKey)
	return e.ctrl.Finalize(ctx)
}

// Error 以错误状态终结运行并从注册表移除。未知运行是 no-op。
func (r *Registry) Error(ctx context.Context, runKey string) error {
	e := r.take(runKey)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	logger.Warnw("运行以错误终结", logger.FieldRunKey, runKey)
	return e.ctrl.OnError(ctx)
}

// FlushAll 等待所有在途运行的已调度发布落地 (进程退出前)。
func (r *Registry) FlushAll(ctx context.Context) {
	r.mu.Lock()
	entries := make([]*runEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		if err := e.ctrl.Flush(ctx); err != nil {
			logger.Warnw("退出前发布落地失败", logger.FieldError, err.Error())
		}
		e.mu.Unlock()
	}
}
