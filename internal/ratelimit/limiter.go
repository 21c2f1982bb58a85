// Package ratelimit implements fixed-window request limiting keyed by arbitrary strings
// such as "login:<client ip>".
package ratelimit

import (
	"context"
	"math"
	"time"
)

type Result struct {
	Allowed           bool
	RetryAfterSeconds int
	Remaining         int
}

// Limiter admits at most max calls per key inside each window.
type Limiter interface {
	Check(ctx context.Context, key string, max int, window time.Duration) (Result, error)
}

// retryAfter rounds the time left in the window up to whole seconds, never below 1.
func retryAfter(left time.Duration) int {
	s := int(math.Ceil(left.Seconds()))
	if s < 1 {
		return 1
	}
	return s
}
