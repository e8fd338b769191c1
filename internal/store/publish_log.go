// publish_log.go — 卡片外发审计 (每次成功 create/edit 记一行)。
package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PublishLogStore 外发审计存储。
type PublishLogStore struct{ BaseStore }

// NewPublishLogStore 创建外发审计存储。
func NewPublishLogStore(pool *pgxpool.Pool) *PublishLogStore {
	return &PublishLogStore{NewBaseStore(pool)}
}

const publishLogCols = `id, ts, run_key, message_id, action, status, body_len, extra`

// Append 追加一条外发记录。
func (s *PublishLogStore) Append(ctx context.Context, rec PublishLog) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO publish_logs (ts, run_key, message_id, action, status, body_len, extra)
		 VALUES (NOW(), $1, $2, $3, $4, $5, $6)`,
		rec.RunKey, rec.MessageID, rec.Action, rec.Status, rec.BodyLen, mustMarshalJSON(rec.Extra))
	return err
}

// PublishLogParams 外发记录查询参数。
type PublishLogParams struct {
	RunKey    string
	MessageID string
	Action    string
	Status    string
	Limit     int
}

// List 按条件查询外发记录, 时间倒序。
func (s *PublishLogStore) List(ctx context.Context, p PublishLogParams) ([]PublishLog, error) {
	q := NewQueryBuilder().
		Eq("run_key", p.RunKey).
		Eq("message_id", p.MessageID).
		Eq("action", p.Action).
		Eq("status", p.Status)
	sql, params := q.Build("SELECT "+publishLogCols+" FROM publish_logs", "ts DESC, id DESC", p.Limit)
	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	return collectRows[PublishLog](rows)
}

// ListFilterValues 返回去重筛选值。
func (s *PublishLogStore) ListFilterValues(ctx context.Context) (map[string][]string, error) {
	return DistinctMap(ctx, s.pool, "publish_logs", "action", "status")
}
