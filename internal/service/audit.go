// audit.go — 外发审计装饰器: 每次成功 create/edit 记一行 publish_logs。
package service

import (
	"context"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/render"
	"github.com/multi-agent/agent-card-bridge/internal/renderer"
	"github.com/multi-agent/agent-card-bridge/internal/store"
	"github.com/multi-agent/agent-card-bridge/pkg/logger"
)

// auditTimeout 审计写入独立超时 (不挂在请求 ctx 上, 退出路径也要能写)。
const auditTimeout = 3 * time.Second

// AuditClient 包装消息客户端, 成功外发后追加审计记录。
// 审计失败只记日志, 永不影响外发结果。
type AuditClient struct {
	inner  renderer.MessageClient
	logs   *store.PublishLogStore
	runKey string
}

// NewAuditClient 创建审计装饰器。logs 为 nil 时退化为透传。
func NewAuditClient(inner renderer.MessageClient, logs *store.PublishLogStore, runKey string) *AuditClient {
	return &AuditClient{inner: inner, logs: logs, runKey: runKey}
}

// CreateMessage 透传创建并记录审计。
func (a *AuditClient) CreateMessage(ctx context.Context, target string, doc render.Document) (string, error) {
	id, err := a.inner.CreateMessage(ctx, target, doc)
	if err != nil {
		return "", err
	}
	a.record("create", id, doc)
	return id, nil
}

// EditMessage 透传编辑并记录审计。
func (a *AuditClient) EditMessage(ctx context.Context, messageID string, doc render.Document) error {
	if err := a.inner.EditMessage(ctx, messageID, doc); err != nil {
		return err
	}
	a.record("edit", messageID, doc)
	return nil
}

func (a *AuditClient) record(action, messageID string, doc render.Document) {
	if a.logs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()
	err := a.logs.Append(ctx, store.PublishLog{
		RunKey:    a.runKey,
		MessageID: messageID,
		Action:    action,
		Status:    doc.Header.Title.Content,
		BodyLen:   docBodyLen(doc),
	})
	if err != nil {
		logger.Warnw("审计写入失败",
			logger.FieldRunKey, a.runKey,
			logger.FieldMessageID, messageID,
			logger.FieldError, err.Error())
	}
}

// docBodyLen 取正文 markdown 块的长度 (恒为最后一个元素)。
func docBodyLen(doc render.Document) int {
	if len(doc.Body.Elements) == 0 {
		return 0
	}
	if md, ok := doc.Body.Elements[len(doc.Body.Elements)-1].(render.MarkdownBlock); ok {
		return len(md.Content)
	}
	return 0
}
