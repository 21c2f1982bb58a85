package reminder

import (
	"errors"
	"time"
)

type Status string

const (
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

var (
	// ErrDuplicateEntry is returned by Ledger.Append when an entry already exists
	// for the same (user, channel, template, window).
	ErrDuplicateEntry     = errors.New("ledger entry already exists for window")
	ErrPreferenceNotFound = errors.New("reminder preference not found")
)

// Payload is the delivery metadata persisted with each ledger entry.
type Payload struct {
	Provider          string `json:"provider"`
	Delivered         bool   `json:"delivered"`
	MessageID         string `json:"messageId,omitempty"`
	LocalDate         string `json:"localDate,omitempty"`
	Timezone          string `json:"timezone"`
	ReminderHourLocal int    `json:"reminderHourLocal"`
	Error             string `json:"error,omitempty"`
}

// Entry is one immutable notification attempt.
type Entry struct {
	ID          string
	UserID      string
	Channel     string
	Template    string
	Status      Status
	Payload     Payload
	CreatedAt   time.Time
	SentAt      *time.Time // nil when Status is failed
	WindowStart time.Time
}

// RecentQuery selects a user's newest entries created at or after Since.
type RecentQuery struct {
	UserID   string
	Channel  string
	Template string
	Since    time.Time
	Limit    int
}
