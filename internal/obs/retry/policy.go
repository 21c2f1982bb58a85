package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// LedgerPolicy retries transient ledger writes. Errors matched by permanent are returned at once.
func LedgerPolicy(log *zap.Logger, permanent ...error) Policy {
	return Policy{
		Name:     "ledger_append",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 50 * time.Millisecond, Max: time.Second, Jitter: 0.2},
		Retryable: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			for _, p := range permanent {
				if errors.Is(err, p) {
					return false
				}
			}
			return true
		},
		OnAttempt: func(i int, err error) {
			if log != nil {
				log.Warn("ledger append retry", zap.Int("attempt", i+1), zap.Error(err))
			}
		},
	}
}
