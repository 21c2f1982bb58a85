// Package notifier holds the delivery providers the dispatcher can be configured with.
package notifier

import (
	"context"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

const (
	ProviderNoop  = "noop"
	ProviderEmail = "email"
	ProviderKafka = "kafka"
)

var _ reminder.Provider = Noop{}

// Noop accepts every reminder without delivering it.
type Noop struct{}

func (Noop) Name() string { return ProviderNoop }

func (Noop) Send(ctx context.Context, _ reminder.SendInput) (reminder.SendResult, error) {
	if err := ctx.Err(); err != nil {
		return reminder.SendResult{}, err
	}
	return reminder.SendResult{Provider: ProviderNoop, Delivered: false}, nil
}
