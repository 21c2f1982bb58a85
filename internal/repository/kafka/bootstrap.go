package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// BootstrapProducer makes sure the topic exists, then returns a producer for it.
// Topic creation failures are logged; the writer still auto-creates on first write.
func BootstrapProducer(ctx context.Context, brokers []string, topic string, log *zap.Logger) *Producer {
	if err := EnsureTopic(ctx, brokers, TopicSpec{
		Name:              topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
		MaxWait:           5 * time.Second,
	}, log); err != nil && log != nil {
		log.Warn("ensure topic failed", zap.String("topic", topic), zap.Error(err))
	}
	return NewProducer(brokers, topic, log)
}
