// Package lark 飞书开放平台消息客户端 (renderer.MessageClient 的默认实现)。
//
// 只覆盖交互卡片的创建与编辑两个端点; 不重试, 错误原样上抛。
package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/multi-agent/agent-card-bridge/internal/render"
	"github.com/multi-agent/agent-card-bridge/pkg/errors"
	"github.com/multi-agent/agent-card-bridge/pkg/logger"
	"github.com/multi-agent/agent-card-bridge/pkg/util"
)

// msgTypeInteractive 交互卡片消息类型。
const msgTypeInteractive = "interactive"

// defaultBaseURL 开放平台默认入口。
const defaultBaseURL = "https://open.feishu.cn/open-apis"

// Client 飞书消息客户端。
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient 创建客户端。baseURL 为空时使用默认入口, timeout <= 0 时默认 15s。
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: util.FirstNonEmpty(baseURL, defaultBaseURL),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// apiResponse 开放平台统一响应包装。
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		MessageID string `json:"message_id"`
	} `json:"data"`
}

// CreateMessage 创建卡片消息, 返回 message_id。
func (c *Client) CreateMessage(ctx context.Context, target string, doc render.Document) (string, error) {
	content, err := json.Marshal(doc)
	if err != nil {
		return "", errors.Wrap(err, "lark.CreateMessage", "卡片序列化失败")
	}
	body := map[string]string{
		"receive_id": target,
		"msg_type":   msgTypeInteractive,
		"content":    string(content),
	}

	resp, err := c.do(ctx, http.MethodPost, "/im/v1/messages?receive_id_type=chat_id", body)
	if err != nil {
		return "", err
	}
	if resp.Data.MessageID == "" {
		return "", errors.New("lark.CreateMessage", "响应缺少 message_id")
	}
	logger.Debugw("卡片消息已创建", logger.FieldMessageID, resp.Data.MessageID)
	return resp.Data.MessageID, nil
}

// EditMessage 编辑已发出的卡片消息。
func (c *Client) EditMessage(ctx context.Context, messageID string, doc render.Document) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "lark.EditMessage", "卡片序列化失败")
	}
	body := map[string]string{"content": string(content)}

	_, err = c.do(ctx, http.MethodPatch, "/im/v1/messages/"+messageID, body)
	return err
}

// do 发送请求并解包统一响应; 非 2xx 或 code != 0 视为失败。
func (c *Client) do(ctx context.Context, method, path string, payload any) (*apiResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "lark.do", "请求序列化失败")
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "lark.do", "构造请求失败")
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+c.token)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "lark.do", "请求发送失败")
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "lark.do", "读取响应失败")
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, errors.Newf("lark.do", "HTTP %d: %s", httpResp.StatusCode, string(raw))
	}

	var resp apiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "lark.do", "响应解析失败")
	}
	if resp.Code != 0 {
		return nil, errors.Newf("lark.do", "平台错误 code=%d: %s", resp.Code, resp.Msg)
	}
	return &resp, nil
}
