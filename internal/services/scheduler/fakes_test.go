package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

type memPrefs struct {
	list []reminder.Preference
	err  error
}

func (m *memPrefs) ListEnabled(context.Context) ([]reminder.Preference, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]reminder.Preference, 0, len(m.list))
	for _, p := range m.list {
		if p.NotificationsEnabled {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPrefs) GetByUser(_ context.Context, id string) (*reminder.Preference, error) {
	for _, p := range m.list {
		if p.UserID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, reminder.ErrPreferenceNotFound
}

// memLedger enforces the (user, channel, template, window) uniqueness like the SQL index.
type memLedger struct {
	mu        sync.Mutex
	entries   []reminder.Entry
	findErr   map[string]error
	appendErr func(e *reminder.Entry) error
}

func newMemLedger() *memLedger { return &memLedger{findErr: map[string]error{}} }

func (l *memLedger) FindExistingInWindow(_ context.Context, userID, channel, template string, w reminder.Window) (*reminder.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.findErr[userID]; err != nil {
		return nil, err
	}
	for _, e := range l.entries {
		if e.UserID == userID && e.Channel == channel && e.Template == template && w.Contains(e.CreatedAt) {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (l *memLedger) Append(_ context.Context, e *reminder.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		if err := l.appendErr(e); err != nil {
			return err
		}
	}
	for _, x := range l.entries {
		if x.UserID == e.UserID && x.Channel == e.Channel && x.Template == e.Template && x.WindowStart.Equal(e.WindowStart) {
			return reminder.ErrDuplicateEntry
		}
	}
	l.entries = append(l.entries, *e)
	return nil
}

func (l *memLedger) ListRecent(_ context.Context, q reminder.RecentQuery) ([]reminder.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []reminder.Entry
	for _, e := range l.entries {
		if e.UserID == q.UserID && e.Channel == q.Channel && e.Template == q.Template && !e.CreatedAt.Before(q.Since) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (l *memLedger) byUser(id string) []reminder.Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []reminder.Entry
	for _, e := range l.entries {
		if e.UserID == id {
			out = append(out, e)
		}
	}
	return out
}

// scriptedProvider answers per user through fn; nil fn behaves like the noop provider.
type scriptedProvider struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(ctx context.Context, in reminder.SendInput) (reminder.SendResult, error)
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Send(ctx context.Context, in reminder.SendInput) (reminder.SendResult, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[in.UserID]++
	p.mu.Unlock()
	if p.fn != nil {
		return p.fn(ctx, in)
	}
	return reminder.SendResult{Provider: "scripted", Delivered: false}, nil
}

func (p *scriptedProvider) callsFor(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

type fakeClaimer struct {
	mu    sync.Mutex
	taken map[string]bool
	err   error
}

func (c *fakeClaimer) Claim(_ context.Context, userID, channel, template string, w reminder.Window) (bool, error) {
	if c.err != nil {
		return false, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taken == nil {
		c.taken = map[string]bool{}
	}
	k := userID + channel + template + w.Start.String()
	if c.taken[k] {
		return false, nil
	}
	c.taken[k] = true
	return true, nil
}

var errBoom = errors.New("provider exploded")

func at(s string) reminder.Clock {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return reminder.ClockFunc(func() time.Time { return t })
}

// ctxLedger fails on a done context the way the pgx pool does.
type ctxLedger struct{ *memLedger }

func (l ctxLedger) FindExistingInWindow(ctx context.Context, userID, channel, template string, w reminder.Window) (*reminder.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.memLedger.FindExistingInWindow(ctx, userID, channel, template, w)
}

func (l ctxLedger) Append(ctx context.Context, e *reminder.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.memLedger.Append(ctx, e)
}
