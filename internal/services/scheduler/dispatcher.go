package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NordCoder/checkin/internal/domain/reminder"
	"github.com/NordCoder/checkin/internal/obs"
	"github.com/NordCoder/checkin/internal/obs/retry"
)

type Config struct {
	Channel         string
	Template        string
	ProviderTimeout time.Duration
	// AppendTimeout bounds the ledger write, retries included.
	AppendTimeout time.Duration
	Workers       int
}

const (
	defaultProviderTimeout = 10 * time.Second
	defaultAppendTimeout   = 5 * time.Second
)

// Summary is the result of one batch run.
type Summary struct {
	UTCWindowStart time.Time `json:"utcWindowStart"`
	UTCWindowEnd   time.Time `json:"utcWindowEnd"`
	CandidateCount int       `json:"candidateCount"`
	DueCount       int       `json:"dueCount"`
	SentCount      int       `json:"sentCount"`
	FailedCount    int       `json:"failedCount"`
	SkippedCount   int       `json:"skippedCount"`
}

type outcome string

const (
	outcomeSent    outcome = "sent"
	outcomeFailed  outcome = "failed"
	outcomeSkipped outcome = "skipped"
)

type Dispatcher struct {
	prefs    reminder.PreferenceStore
	ledger   reminder.Ledger
	provider reminder.Provider
	claimer  reminder.Claimer
	clock    reminder.Clock
	cfg      Config
	log      *zap.Logger
	policy   retry.Policy
	newID    func() string
}

type Option func(*Dispatcher)

// WithClaimer enables the cross-run single-flight claim before each send.
func WithClaimer(c reminder.Claimer) Option { return func(d *Dispatcher) { d.claimer = c } }

func WithClock(c reminder.Clock) Option { return func(d *Dispatcher) { d.clock = c } }

func WithAppendPolicy(p retry.Policy) Option { return func(d *Dispatcher) { d.policy = p } }

func NewDispatcher(
	prefs reminder.PreferenceStore,
	ledger reminder.Ledger,
	provider reminder.Provider,
	cfg Config,
	log *zap.Logger,
	opts ...Option,
) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = defaultProviderTimeout
	}
	if cfg.AppendTimeout <= 0 {
		cfg.AppendTimeout = defaultAppendTimeout
	}
	log = obs.Component(log, "scheduler.dispatcher")
	d := &Dispatcher{
		prefs:    prefs,
		ledger:   ledger,
		provider: provider,
		clock:    reminder.SystemClock,
		cfg:      cfg,
		log:      log,
		policy:   retry.LedgerPolicy(log, reminder.ErrDuplicateEntry),
		newID:    uuid.NewString,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Run dispatches reminders for every user due in the current UTC hour.
// Per-user failures are recorded in the ledger and the summary, never returned.
func (d *Dispatcher) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	now := d.clock.Now().UTC()
	w := reminder.HourWindow(now)
	sum := Summary{UTCWindowStart: w.Start, UTCWindowEnd: w.End}

	tr := otel.Tracer("scheduler.dispatcher")
	ctx, span := tr.Start(ctx, "reminder.dispatch",
		trace.WithAttributes(
			attribute.String("window.start", w.Start.Format(time.RFC3339)),
			attribute.String("reminder.channel", d.cfg.Channel),
			attribute.String("reminder.template", d.cfg.Template),
		),
	)
	defer span.End()
	mRuns.Inc()
	defer func() { mRunDur.Observe(time.Since(start).Seconds()) }()

	candidates, err := d.prefs.ListEnabled(ctx)
	if err != nil {
		mRunErrors.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "list preferences")
		return sum, fmt.Errorf("list enabled preferences: %w", err)
	}
	due := reminder.DueSet(now, candidates)
	sum.CandidateCount = len(candidates)
	sum.DueCount = len(due)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(d.cfg.Workers)
	for _, p := range due {
		g.Go(func() error {
			o := d.dispatchOne(ctx, now, w, p)
			mOutcomes.WithLabelValues(string(o)).Inc()
			mu.Lock()
			defer mu.Unlock()
			switch o {
			case outcomeSent:
				sum.SentCount++
			case outcomeFailed:
				sum.FailedCount++
			case outcomeSkipped:
				sum.SkippedCount++
			}
			return nil
		})
	}
	_ = g.Wait()

	span.SetAttributes(
		attribute.Int("batch.candidates", sum.CandidateCount),
		attribute.Int("batch.due", sum.DueCount),
		attribute.Int("batch.sent", sum.SentCount),
		attribute.Int("batch.failed", sum.FailedCount),
		attribute.Int("batch.skipped", sum.SkippedCount),
	)
	obs.WithTrace(ctx, d.log).Info("dispatch run finished",
		zap.Time("window_start", w.Start),
		zap.Int("candidates", sum.CandidateCount),
		zap.Int("due", sum.DueCount),
		zap.Int("sent", sum.SentCount),
		zap.Int("failed", sum.FailedCount),
		zap.Int("skipped", sum.SkippedCount),
		zap.Duration("elapsed", time.Since(start)),
	)
	return sum, nil
}

// dispatchOne runs lookup, claim, send and append for one due user, in that order.
// Cancelling ctx stops a user before the claim; from the claim on, the claim, send and
// ledger write run to completion under their own timeouts.
func (d *Dispatcher) dispatchOne(ctx context.Context, now time.Time, w reminder.Window, p reminder.Preference) outcome {
	ctx, span := otel.Tracer("scheduler.dispatcher").Start(ctx, "reminder.dispatch.user",
		trace.WithAttributes(attribute.String("user.id", p.UserID)),
	)
	defer span.End()
	log := obs.WithTrace(ctx, d.log).With(zap.String("user_id", p.UserID))

	if err := ctx.Err(); err != nil {
		log.Warn("run cancelled before dispatch", zap.Error(err))
		return outcomeFailed
	}

	existing, err := d.ledger.FindExistingInWindow(ctx, p.UserID, d.cfg.Channel, d.cfg.Template, w)
	if err != nil {
		span.RecordError(err)
		log.Warn("ledger lookup failed", zap.Error(err))
		return outcomeFailed
	}
	if existing != nil {
		span.SetAttributes(attribute.String("dispatch.outcome", string(outcomeSkipped)))
		return outcomeSkipped
	}

	if err := ctx.Err(); err != nil {
		log.Warn("run cancelled before claim and send", zap.Error(err))
		return outcomeFailed
	}
	work := context.WithoutCancel(ctx)

	if d.claimer != nil {
		ok, err := d.claimer.Claim(work, p.UserID, d.cfg.Channel, d.cfg.Template, w)
		switch {
		case err != nil:
			log.Warn("window claim unavailable, relying on ledger uniqueness", zap.Error(err))
		case !ok:
			span.SetAttributes(attribute.String("dispatch.outcome", string(outcomeSkipped)))
			return outcomeSkipped
		}
	}

	localDate, _ := reminder.LocalDateKey(now, p.Timezone)
	in := reminder.SendInput{
		UserID:            p.UserID,
		Timezone:          p.Timezone,
		LocalDate:         localDate,
		ReminderHourLocal: p.ReminderHourLocal,
	}
	res, sendErr := d.send(work, in)

	entry := &reminder.Entry{
		ID:          d.newID(),
		UserID:      p.UserID,
		Channel:     d.cfg.Channel,
		Template:    d.cfg.Template,
		CreatedAt:   now,
		WindowStart: w.Start,
		Payload: reminder.Payload{
			Provider:          res.Provider,
			Delivered:         res.Delivered,
			MessageID:         res.MessageID,
			LocalDate:         localDate,
			Timezone:          p.Timezone,
			ReminderHourLocal: p.ReminderHourLocal,
		},
	}
	if entry.Payload.Provider == "" {
		entry.Payload.Provider = d.provider.Name()
	}
	if sendErr != nil {
		span.RecordError(sendErr)
		log.Warn("provider send failed", zap.String("provider", d.provider.Name()), zap.Error(sendErr))
		entry.Status = reminder.StatusFailed
		entry.Payload.Delivered = false
		entry.Payload.MessageID = ""
		entry.Payload.Error = sendErr.Error()
	} else {
		entry.Status = reminder.StatusSent
		sentAt := now
		entry.SentAt = &sentAt
	}

	result := outcomeSent
	if sendErr != nil {
		result = outcomeFailed
	}

	actx, cancel := context.WithTimeout(work, d.cfg.AppendTimeout)
	defer cancel()
	err = retry.Do(actx, func() error { return d.ledger.Append(actx, entry) }, d.policy)
	switch {
	case errors.Is(err, reminder.ErrDuplicateEntry):
		if sendErr == nil {
			log.Warn("window already recorded by a concurrent run after send")
		}
		result = outcomeSkipped
	case err != nil:
		mLedgerGaps.Inc()
		log.Error("ledger append failed",
			zap.String("status", string(entry.Status)),
			zap.String("entry_id", entry.ID),
			zap.Error(err),
		)
	}
	span.SetAttributes(attribute.String("dispatch.outcome", string(result)))
	return result
}

type sendReply struct {
	res reminder.SendResult
	err error
}

// send bounds the provider call by the configured timeout. A provider that
// ignores its context is abandoned once the deadline passes; panics become errors.
func (d *Dispatcher) send(ctx context.Context, in reminder.SendInput) (reminder.SendResult, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.ProviderTimeout)
	defer cancel()

	reply := make(chan sendReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- sendReply{err: fmt.Errorf("provider panic: %v", r)}
			}
		}()
		res, err := d.provider.Send(ctx, in)
		reply <- sendReply{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return reminder.SendResult{}, fmt.Errorf("provider %s: %w", d.provider.Name(), ctx.Err())
	case r := <-reply:
		return r.res, r.err
	}
}
