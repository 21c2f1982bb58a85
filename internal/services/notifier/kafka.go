package notifier

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/NordCoder/checkin/internal/domain/reminder"
)

// ProtoPublisher is satisfied by *kafka.Producer.
type ProtoPublisher interface {
	PublishProto(ctx context.Context, key string, m proto.Message) error
}

var _ reminder.Provider = (*Kafka)(nil)

// Kafka hands in-app reminders to the fan-out topic. Acceptance by the broker
// is not delivery, so Delivered stays false.
type Kafka struct {
	pub      ProtoPublisher
	template string
}

func NewKafka(pub ProtoPublisher, template string) *Kafka {
	return &Kafka{pub: pub, template: template}
}

func (k *Kafka) Name() string { return ProviderKafka }

func (k *Kafka) Send(ctx context.Context, in reminder.SendInput) (reminder.SendResult, error) {
	messageID := uuid.NewString()
	msg, err := structpb.NewStruct(map[string]any{
		"messageId":         messageID,
		"userId":            in.UserID,
		"template":          k.template,
		"timezone":          in.Timezone,
		"localDate":         in.LocalDate,
		"reminderHourLocal": in.ReminderHourLocal,
	})
	if err != nil {
		return reminder.SendResult{}, fmt.Errorf("build event: %w", err)
	}
	if err := k.pub.PublishProto(ctx, in.UserID, msg); err != nil {
		return reminder.SendResult{}, fmt.Errorf("publish reminder: %w", err)
	}
	return reminder.SendResult{Provider: ProviderKafka, Delivered: false, MessageID: messageID}, nil
}
