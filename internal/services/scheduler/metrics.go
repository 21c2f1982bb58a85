package scheduler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_dispatch_runs_total", Help: "Dispatcher batch runs",
	})
	mRunErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_dispatch_run_errors_total", Help: "Dispatcher runs aborted before fan-out",
	})
	mOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reminder_dispatch_outcomes_total", Help: "Per-user dispatch outcomes",
	}, []string{"outcome"})
	mRunDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "reminder_dispatch_duration_seconds", Help: "Dispatcher run duration",
		Buckets: prometheus.DefBuckets,
	})
	mLedgerGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reminder_ledger_append_failures_total", Help: "Attempts whose ledger entry could not be written",
	})
)
