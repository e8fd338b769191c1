// Package scheduler 合并限频发布器: 只保留最新文档, 按最小间隔外发。
//
// 单槽 pending + 单飞行循环: Schedule 永不阻塞, 中间态允许丢弃,
// 但最后一次 Schedule 的文档保证最终被发布 (Flush 兜底)。
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/render"
	"github.com/multi-agent/agent-card-bridge/pkg/logger"
	"github.com/multi-agent/agent-card-bridge/pkg/util"
)

// DefaultMinInterval 相邻两次发布的默认最小间隔。
const DefaultMinInterval = 350 * time.Millisecond

// PublishFunc 外发一份文档。失败由调用方感知, 这里不重试。
type PublishFunc func(ctx context.Context, doc render.Document) error

// Scheduler 单条消息的发布调度器。所有字段由 mu 守护;
// pending 槽 + running 标志构成唯一共享可变状态 (检查-置位一步完成)。
type Scheduler struct {
	mu   sync.Mutex
	cond *sync.Cond

	publish     PublishFunc
	minInterval time.Duration

	pending     *render.Document
	running     bool
	lastPublish time.Time
	lastErr     error

	sleep func(time.Duration) // 测试钩子
}

// New 创建调度器。minInterval <= 0 时用默认值。
// 首次发布同样受间隔约束 (以创建时刻为基准)。
func New(publish PublishFunc, minInterval time.Duration) *Scheduler {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	s := &Scheduler{
		publish:     publish,
		minInterval: minInterval,
		lastPublish: time.Now(),
		sleep:       time.Sleep,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Schedule 非阻塞提交最新文档, 覆盖未发出的旧文档。
// 循环未运行则启动; 已运行则由循环在本轮后自然消费。
func (s *Scheduler) Schedule(doc render.Document) {
	s.mu.Lock()
	s.pending = &doc
	if !s.running {
		s.running = true
		util.SafeGo(s.loop)
	}
	s.mu.Unlock()
}

// loop 发布循环: pending 非空则先等间隔, 等完再取槽外发; 槽空退出。
// 取槽必须发生在等待之后: 等待期间新到的文档覆盖槽位, 旧中间态直接作废。
// 发布期间新到的文档把槽重新填上, 下一轮继续, 不递归。
func (s *Scheduler) loop() {
	for {
		s.mu.Lock()
		if s.pending == nil {
			s.running = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		wait := s.minInterval - time.Since(s.lastPublish)
		s.mu.Unlock()

		if wait > 0 {
			s.sleep(wait)
		}

		s.mu.Lock()
		if s.pending == nil {
			s.running = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		doc := *s.pending
		s.pending = nil
		s.mu.Unlock()

		err := s.publish(context.Background(), doc)
		s.mu.Lock()
		s.lastPublish = time.Now()
		s.lastErr = err
		s.mu.Unlock()
		if err != nil {
			logger.Warnw("发布失败", logger.FieldError, err.Error())
		}
	}
}

// Flush 等待飞行中的循环退出; 若仍有 pending 文档, 立即同步发布
// (不再等间隔)。返回最近一次发布错误。用于终态必达。
func (s *Scheduler) Flush(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	for s.running {
		if ctx.Err() != nil {
			s.mu.Unlock()
			return ctx.Err()
		}
		s.cond.Wait()
	}

	if s.pending == nil {
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	doc := *s.pending
	s.pending = nil
	s.mu.Unlock()

	err := s.publish(ctx, doc)
	s.mu.Lock()
	s.lastPublish = time.Now()
	s.lastErr = err
	s.mu.Unlock()
	return err
}
