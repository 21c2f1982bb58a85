// Package status projects a user's recent reminder deliveries, adding a computed
// pending row while the current window has not been dispatched yet.
package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

const (
	SourceLedger   = "notification_log"
	SourceComputed = "computed_pending"

	DefaultLimit = 5
	MaxLimit     = 50
	DefaultHours = 24
	MaxHours     = 720
)

type Item struct {
	ID      string     `json:"id"`
	Status  string     `json:"status"`
	SentAt  *time.Time `json:"sentAt"`
	Channel string     `json:"channel"`
	Source  string     `json:"source"`
}

type Meta struct {
	Limit int `json:"limit"`
	Hours int `json:"hours"`
}

type Result struct {
	Items []Item `json:"items"`
	Meta  Meta   `json:"meta"`
}

type Query struct {
	UserID string
	Limit  int
	Hours  int
}

type Usecase struct {
	prefs    reminder.PreferenceStore
	ledger   reminder.Ledger
	clock    reminder.Clock
	channel  string
	template string
}

func NewUseCase(prefs reminder.PreferenceStore, ledger reminder.Ledger, channel, template string, clock reminder.Clock) *Usecase {
	if clock == nil {
		clock = reminder.SystemClock
	}
	return &Usecase{prefs: prefs, ledger: ledger, clock: clock, channel: channel, template: template}
}

func PendingID(userID string, w reminder.Window) string {
	return fmt.Sprintf("pending-%s-%s", userID, w.Start.Format(time.RFC3339))
}

func (u *Usecase) Status(ctx context.Context, q Query) (Result, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Hours <= 0 {
		q.Hours = DefaultHours
	}
	ctx, span := otel.Tracer("api.status").Start(ctx, "reminder.status",
		trace.WithAttributes(
			attribute.String("user.id", q.UserID),
			attribute.Int("query.limit", q.Limit),
			attribute.Int("query.hours", q.Hours),
		),
	)
	defer span.End()

	now := u.clock.Now().UTC()
	w := reminder.HourWindow(now)

	entries, err := u.ledger.ListRecent(ctx, reminder.RecentQuery{
		UserID:   q.UserID,
		Channel:  u.channel,
		Template: u.template,
		Since:    now.Add(-time.Duration(q.Hours) * time.Hour),
		Limit:    q.Limit,
	})
	if err != nil {
		span.RecordError(err)
		return Result{}, fmt.Errorf("list recent entries: %w", err)
	}

	items := make([]Item, 0, len(entries)+1)
	for _, e := range entries {
		items = append(items, Item{
			ID:      e.ID,
			Status:  string(e.Status),
			SentAt:  e.SentAt,
			Channel: e.Channel,
			Source:  SourceLedger,
		})
	}

	pending, err := u.pendingItem(ctx, now, w, q.UserID)
	if err != nil {
		span.RecordError(err)
		return Result{}, err
	}
	if pending != nil {
		items = append([]Item{*pending}, items...)
	}
	if len(items) > q.Limit {
		items = items[:q.Limit]
	}
	return Result{Items: items, Meta: Meta{Limit: q.Limit, Hours: q.Hours}}, nil
}

// pendingItem returns nil unless the user is due now and the window has no ledger entry.
func (u *Usecase) pendingItem(ctx context.Context, now time.Time, w reminder.Window, userID string) (*Item, error) {
	pref, err := u.prefs.GetByUser(ctx, userID)
	if errors.Is(err, reminder.ErrPreferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	if !reminder.IsDue(now, *pref) {
		return nil, nil
	}
	existing, err := u.ledger.FindExistingInWindow(ctx, userID, u.channel, u.template, w)
	if err != nil {
		return nil, fmt.Errorf("find window entry: %w", err)
	}
	if existing != nil {
		return nil, nil
	}
	sentAt := w.Start
	return &Item{
		ID:      PendingID(userID, w),
		Status:  string(reminder.StatusPending),
		SentAt:  &sentAt,
		Channel: u.channel,
		Source:  SourceComputed,
	}, nil
}
