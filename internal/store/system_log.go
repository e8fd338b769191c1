// system_log.go — 系统日志查询 (写入侧在 pkg/logger 的 DBHandler)。
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SystemLogStore 系统日志存储。
type SystemLogStore struct{ BaseStore }

// NewSystemLogStore 创建系统日志存储。
func NewSystemLogStore(pool *pgxpool.Pool) *SystemLogStore {
	return &SystemLogStore{NewBaseStore(pool)}
}

const sysLogCols = `id, ts, level, message, component, run_key, message_id,
	event_type, tool_name, duration_ms, extra`

// SystemLogParams 日志查询参数。
type SystemLogParams struct {
	Level     string
	Component string
	RunKey    string
	EventType string
	ToolName  string
	Keyword   string
	Limit     int
}

// List 按条件查询系统日志, 时间倒序。
func (s *SystemLogStore) List(ctx context.Context, p SystemLogParams) ([]SystemLog, error) {
	q := NewQueryBuilder().
		Eq("level", p.Level).
		Eq("component", p.Component).
		Eq("run_key", p.RunKey).
		Eq("event_type", p.EventType).
		Eq("tool_name", p.ToolName).
		KeywordLike(p.Keyword, "level", "message", "component")
	sql, params := q.Build("SELECT "+sysLogCols+" FROM system_logs", "ts DESC, id DESC", p.Limit)
	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return collectRows[SystemLog](rows)
}

// ListFilterValues 返回去重筛选值。
func (s *SystemLogStore) ListFilterValues(ctx context.Context) (map[string][]string, error) {
	return DistinctMap(ctx, s.pool, "system_logs", "level", "component", "event_type", "tool_name")
}

// Cleanup 删除超过 retentionDays 天的系统日志, 返回删除行数。
func (s *SystemLogStore) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM system_logs WHERE ts < NOW() - ($1 || ' days')::INTERVAL`,
		retentionDays)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
