package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

var _ reminder.Ledger = (*LedgerRepo)(nil)

type LedgerRepo struct{ db *DB }

func NewLedgerRepo(db *DB) *LedgerRepo { return &LedgerRepo{db: db} }

const (
	ledgerColumns = `id::text, user_id::text, channel, template, status, payload, created_at, sent_at, window_start`

	qLedgerFindInWindow = `
SELECT ` + ledgerColumns + `
FROM notification_log
WHERE user_id = $1::uuid
  AND channel = $2
  AND template = $3
  AND created_at >= $4
  AND created_at < $5
ORDER BY created_at DESC
LIMIT 1;`

	qLedgerInsert = `
INSERT INTO notification_log (id, user_id, channel, template, status, payload, created_at, sent_at, window_start)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6::jsonb, $7, $8, $9);`

	qLedgerRecent = `
SELECT ` + ledgerColumns + `
FROM notification_log
WHERE user_id = $1::uuid
  AND channel = $2
  AND template = $3
  AND created_at >= $4
ORDER BY created_at DESC
LIMIT $5;`
)

func (r *LedgerRepo) FindExistingInWindow(ctx context.Context, userID, channel, template string, w reminder.Window) (*reminder.Entry, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	e, err := scanEntry(r.db.Pool.QueryRow(ctx, qLedgerFindInWindow, userID, channel, template, w.Start, w.End))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find ledger entry: %w", err)
	}
	return e, nil
}

func (r *LedgerRepo) Append(ctx context.Context, e *reminder.Entry) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, qLedgerInsert,
		e.ID,
		e.UserID,
		e.Channel,
		e.Template,
		string(e.Status),
		string(payload),
		e.CreatedAt,
		e.SentAt,
		e.WindowStart,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return reminder.ErrDuplicateEntry
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

func (r *LedgerRepo) ListRecent(ctx context.Context, q reminder.RecentQuery) ([]reminder.Entry, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qLedgerRecent, q.UserID, q.Channel, q.Template, q.Since, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []reminder.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		out = append(out, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return out, nil
}

func scanEntry(row pgx.Row) (*reminder.Entry, error) {
	var (
		e       reminder.Entry
		status  string
		payload []byte
		sentAt  *time.Time
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Channel, &e.Template, &status, &payload, &e.CreatedAt, &sentAt, &e.WindowStart); err != nil {
		return nil, err
	}
	e.Status = reminder.Status(status)
	e.SentAt = sentAt
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
	}
	return &e, nil
}
