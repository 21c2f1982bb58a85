package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

var _ reminder.Claimer = (*WindowClaimer)(nil)

// WindowClaimer makes concurrent dispatch runs single-flight per user and window.
type WindowClaimer struct {
	rdb goredis.Cmdable
	ttl time.Duration
}

func NewWindowClaimer(rdb goredis.Cmdable, ttl time.Duration) *WindowClaimer {
	return &WindowClaimer{rdb: rdb, ttl: ttl}
}

func ClaimKey(userID, channel, template string, w reminder.Window) string {
	return fmt.Sprintf("claim:%s:%s:%s:%d", channel, template, userID, w.Start.Unix())
}

// Claim returns true only for the first caller of a window.
func (c *WindowClaimer) Claim(ctx context.Context, userID, channel, template string, w reminder.Window) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, ClaimKey(userID, channel, template, w), 1, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim window: %w", err)
	}
	return ok, nil
}
