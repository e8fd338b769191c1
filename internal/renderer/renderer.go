// Package renderer 运行级渲染控制器: 把一次运行的事件流
// 持续物化为一条外部卡片消息 (首次创建, 后续编辑)。
package renderer

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/normalizer"
	"github.com/multi-agent/agent-card-bridge/internal/render"
	"github.com/multi-agent/agent-card-bridge/internal/runstate"
	"github.com/multi-agent/agent-card-bridge/internal/scheduler"
	"github.com/multi-agent/agent-card-bridge/pkg/errors"
	"github.com/multi-agent/agent-card-bridge/pkg/logger"
	"github.com/multi-agent/agent-card-bridge/pkg/util"
)

// MessageClient 外部消息平台的最小能力面。
// 实现方自行决定重试策略, 这里不重试。
type MessageClient interface {
	CreateMessage(ctx context.Context, target string, doc render.Document) (string, error)
	EditMessage(ctx context.Context, messageID string, doc render.Document) error
}

// Options 控制器参数。
type Options struct {
	Target       string        // 消息投递目标 (接收方 id)
	RunKey       string        // 运行标识, 仅用于日志
	MinInterval  time.Duration // 发布最小间隔, <= 0 用调度器默认值
	BodyMaxChars int           // 正文截断上限, <= 0 不截断
}

// Controller 单次运行的渲染控制器。宿主串行调用, 不支持并发变更。
//
// 两阶段生命周期: 首个非空渲染触发 CreateMessage 并绑定调度器,
// 此后所有投递走同一调度器的编辑通道, 永不创建第二条消息。
type Controller struct {
	client  MessageClient
	opts    Options
	tracker *runstate.Tracker
	applier *normalizer.Applier

	messageID string
	sched     *scheduler.Scheduler
}

// New 创建控制器。
func New(client MessageClient, opts Options) *Controller {
	return &Controller{
		client:  client,
		opts:    opts,
		tracker: runstate.NewTracker(),
		applier: normalizer.NewApplier(),
	}
}

// MessageID 返回已创建消息的 id, 未创建时为空。
func (c *Controller) MessageID() string { return c.messageID }

// Deliver 消费一份不透明负载: 归一化、施加到 tracker、触发发布。
// 空负载是 no-op (记日志, 不算错误)。
func (c *Controller) Deliver(ctx context.Context, payload map[string]any) error {
	c.logPayload(payload)

	ex := normalizer.Extract(payload)
	if ex.Empty() {
		logger.Debugw("空负载, 跳过", logger.FieldRunKey, c.opts.RunKey)
		return nil
	}
	c.applier.Apply(c.tracker, ex)
	return c.publish(ctx)
}

// Finalize 终结运行: 状态置 Completed, 发出终态卡片并等待发布完成。
// 从未创建消息且无任何累积内容时为 no-op (不发布空完成卡)。
func (c *Controller) Finalize(ctx context.Context) error {
	return c.finish(ctx, runstate.StatusCompleted)
}

// OnError 以 Error 状态终结运行, 空内容守卫同 Finalize。
func (c *Controller) OnError(ctx context.Context) error {
	return c.finish(ctx, runstate.StatusError)
}

func (c *Controller) finish(ctx context.Context, status runstate.RunStatus) error {
	if c.messageID == "" && c.tracker.Empty() {
		logger.Debugw("运行无内容, 跳过终态发布", logger.FieldRunKey, c.opts.RunKey)
		return nil
	}
	c.tracker.SetStatus(status)
	if err := c.publish(ctx); err != nil {
		return err
	}
	if c.sched == nil {
		return nil
	}
	if err := c.sched.Flush(ctx); err != nil {
		return errors.Wrap(err, "renderer.finish", "终态发布失败")
	}
	return nil
}

// publish 投影当前状态并外发: 首次创建消息, 之后调度编辑。
func (c *Controller) publish(ctx context.Context) error {
	if c.messageID == "" && c.tracker.Empty() {
		return nil
	}

	state := render.Project(c.tracker.Snapshot())
	if c.opts.BodyMaxChars > 0 {
		state.Body = util.TruncateMiddle(state.Body, c.opts.BodyMaxChars)
	}
	doc := render.BuildCard(state)

	if c.messageID == "" {
		id, err := c.client.CreateMessage(ctx, c.opts.Target, doc)
		if err != nil {
			return errors.Wrap(err, "renderer.publish", "创建消息失败")
		}
		c.messageID = id
		c.sched = scheduler.New(func(ctx context.Context, doc render.Document) error {
			return c.client.EditMessage(ctx, id, doc)
		}, c.opts.MinInterval)
		logger.Infow("消息已创建",
			logger.FieldRunKey, c.opts.RunKey,
			logger.FieldMessageID, id,
			logger.FieldStatus, string(state.Status))
		return nil
	}

	c.sched.Schedule(doc)
	return nil
}

// logPayload 记录投递负载的调试快照; 序列化失败不允许中断投递。
func (c *Controller) logPayload(payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Debugw("负载快照序列化失败",
			logger.FieldRunKey, c.opts.RunKey,
			logger.FieldError, err.Error())
		return
	}
	snapshot := string(data)
	if len(snapshot) > 2048 {
		snapshot = util.TruncateMiddle(snapshot, 2048)
	}
	logger.Debugw("收到负载",
		logger.FieldRunKey, c.opts.RunKey,
		logger.FieldDataLen, len(data),
		"payload", snapshot)
}

// Flush 等待所有已调度的发布落地, 不改变运行状态。进程退出前调用。
func (c *Controller) Flush(ctx context.Context) error {
	if c.sched == nil {
		return nil
	}
	return c.sched.Flush(ctx)
}

// DraftAnswer 暴露当前草稿 (服务层探活/调试用)。
func (c *Controller) DraftAnswer() string {
	return strings.TrimSpace(c.tracker.DraftAnswer())
}
