// ws.go — WebSocket 事件流接入: 每帧一份负载, 按连接顺序投递。
package service

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/multi-agent/agent-card-bridge/pkg/logger"
)

// maxFrameSize 单帧上限。
const maxFrameSize = 1 << 20

// streamRun 升级为 WebSocket 并消费事件流。
// 读循环天然串行, 保证同一运行内帧序即投递序。
// {"type":"finalize"} 帧或正常关闭终结运行; {"type":"error"} 帧以错误终结。
func (s *Server) streamRun(c *gin.Context) {
	key := c.Param("key")
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnw("WebSocket 升级失败",
			logger.FieldRunKey, key,
			logger.FieldError, err.Error())
		return
	}
	defer ws.Close()
	ws.SetReadLimit(maxFrameSize)

	ctx := c.Request.Context()
	logger.Infow("事件流已连接",
		logger.FieldRunKey, key,
		logger.FieldRemote, c.Request.RemoteAddr)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				// 干净关闭等同 finalize
				if err := s.registry.Finalize(ctx, key); err != nil {
					logger.Warnw("流关闭终结失败", logger.FieldRunKey, key, logger.FieldError, err.Error())
				}
			} else {
				logger.Warnw("事件流中断", logger.FieldRunKey, key, logger.FieldError, err.Error())
			}
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil {
			logger.Warnw("帧解析失败, 丢弃",
				logger.FieldRunKey, key,
				logger.FieldDataLen, len(data),
				logger.FieldError, err.Error())
			continue
		}

		switch frameType(payload) {
		case "finalize":
			if err := s.registry.Finalize(ctx, key); err != nil {
				logger.Warnw("终结失败", logger.FieldRunKey, key, logger.FieldError, err.Error())
			}
			return
		case "error":
			if err := s.registry.Error(ctx, key); err != nil {
				logger.Warnw("错误终结失败", logger.FieldRunKey, key, logger.FieldError, err.Error())
			}
			return
		default:
			if err := s.registry.Deliver(ctx, key, payload); err != nil {
				logger.Warnw("投递失败", logger.FieldRunKey, key, logger.FieldError, err.Error())
			}
		}
	}
}

// frameType 读取控制帧类型标记, 普通负载返回空串。
func frameType(payload map[string]any) string {
	t, _ := payload["type"].(string)
	if t == "finalize" || t == "error" {
		return t
	}
	return ""
}
