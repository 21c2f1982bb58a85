package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

var _ reminder.PreferenceStore = (*PreferenceRepo)(nil)

type PreferenceRepo struct{ db *DB }

func NewPreferenceRepo(db *DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

const (
	qPrefListEnabled = `
SELECT p.user_id::text, p.reminder_hour_local, p.notifications_enabled, u.timezone
FROM reminder_preferences p
JOIN users u ON u.id = p.user_id
WHERE p.notifications_enabled;`

	qPrefByUser = `
SELECT p.user_id::text, p.reminder_hour_local, p.notifications_enabled, u.timezone
FROM reminder_preferences p
JOIN users u ON u.id = p.user_id
WHERE p.user_id = $1::uuid;`
)

func (r *PreferenceRepo) ListEnabled(ctx context.Context) ([]reminder.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Pool.Query(ctx, qPrefListEnabled)
	if err != nil {
		return nil, fmt.Errorf("list enabled preferences: %w", err)
	}
	defer rows.Close()

	var out []reminder.Preference
	for rows.Next() {
		var p reminder.Preference
		if err := rows.Scan(&p.UserID, &p.ReminderHourLocal, &p.NotificationsEnabled, &p.Timezone); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate preferences: %w", err)
	}
	return out, nil
}

func (r *PreferenceRepo) GetByUser(ctx context.Context, userID string) (*reminder.Preference, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var p reminder.Preference
	err := r.db.Pool.QueryRow(ctx, qPrefByUser, userID).
		Scan(&p.UserID, &p.ReminderHourLocal, &p.NotificationsEnabled, &p.Timezone)
	if err != nil {
		if isNoRows(err) {
			return nil, reminder.ErrPreferenceNotFound
		}
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return &p, nil
}
