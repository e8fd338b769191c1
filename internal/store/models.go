// models.go — store 层数据模型 (db tag 供 pgx RowToStructByName 扫描)。
package store

import "time"

// SystemLog system_logs 表一行: DB 日志 handler 异步写入的结构化日志。
type SystemLog struct {
	ID         int       `db:"id" json:"id"`
	Ts         time.Time `db:"ts" json:"ts"`
	Level      string    `db:"level" json:"level"`
	Message    string    `db:"message" json:"message"`
	Component  string    `db:"component" json:"component"`
	RunKey     string    `db:"run_key" json:"run_key"`
	MessageID  string    `db:"message_id" json:"message_id"`
	EventType  string    `db:"event_type" json:"event_type"`
	ToolName   string    `db:"tool_name" json:"tool_name"`
	DurationMS *int64    `db:"duration_ms" json:"duration_ms"`
	Extra      any       `db:"extra" json:"extra"`
}

// PublishLog publish_logs 表一行: 每次成功外发卡片的审计记录。
type PublishLog struct {
	ID        int       `db:"id" json:"id"`
	Ts        time.Time `db:"ts" json:"ts"`
	RunKey    string    `db:"run_key" json:"run_key"`
	MessageID string    `db:"message_id" json:"message_id"`
	Action    string    `db:"action" json:"action"` // create | edit
	Status    string    `db:"status" json:"status"` // 运行状态快照
	BodyLen   int       `db:"body_len" json:"body_len"`
	Extra     any       `db:"extra" json:"extra"`
}
