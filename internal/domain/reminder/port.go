package reminder

import (
	"context"
	"time"
)

type PreferenceStore interface {
	// ListEnabled returns every preference with notifications enabled.
	ListEnabled(ctx context.Context) ([]Preference, error)
	// GetByUser returns ErrPreferenceNotFound when the user has no preference row.
	GetByUser(ctx context.Context, userID string) (*Preference, error)
}

type Ledger interface {
	// FindExistingInWindow returns nil, nil when no entry has CreatedAt in [w.Start, w.End).
	FindExistingInWindow(ctx context.Context, userID, channel, template string, w Window) (*Entry, error)
	// Append returns ErrDuplicateEntry if the window is already taken.
	Append(ctx context.Context, e *Entry) error
	// ListRecent returns entries newest first.
	ListRecent(ctx context.Context, q RecentQuery) ([]Entry, error)
}

type SendInput struct {
	UserID            string
	Timezone          string
	LocalDate         string
	ReminderHourLocal int
}

type SendResult struct {
	Provider  string
	Delivered bool
	MessageID string
}

// Provider performs the actual delivery. Any returned error is a failed attempt;
// Delivered=false with a nil error is still a successful dispatch.
type Provider interface {
	Name() string
	Send(ctx context.Context, in SendInput) (SendResult, error)
}

// Claimer reserves a (user, channel, template, window) slot across concurrent runs.
type Claimer interface {
	Claim(ctx context.Context, userID, channel, template string, w Window) (bool, error)
}

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
