// Package bootstrap wires the dispatcher from configuration for both the
// scheduler and the api-gateway trigger endpoint.
package bootstrap

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NordCoder/checkin/internal/config/shared"
	kafkarepo "github.com/NordCoder/checkin/internal/repository/kafka"
	pg "github.com/NordCoder/checkin/internal/repository/postgres"
	redisrepo "github.com/NordCoder/checkin/internal/repository/redis"
	"github.com/NordCoder/checkin/internal/services/notifier"
	"github.com/NordCoder/checkin/internal/services/scheduler"
)

type DispatchInput struct {
	Dispatch shared.Dispatch
	SMTP     shared.SMTP
	Kafka    shared.Kafka
	DB       *pg.DB
	Redis    *goredis.Client // required when Dispatch.UseClaims
	Log      *zap.Logger
}

// NewDispatcher builds the configured provider and dispatcher. The returned
// closer releases provider resources.
func NewDispatcher(ctx context.Context, in DispatchInput) (*scheduler.Dispatcher, func() error, error) {
	if in.Log == nil {
		in.Log = zap.L()
	}
	closer := func() error { return nil }
	deps := notifier.Deps{
		Email: notifier.EmailConfig{
			Host:       in.SMTP.Host,
			Port:       in.SMTP.Port,
			User:       in.SMTP.User,
			Password:   in.SMTP.Password,
			From:       in.SMTP.From,
			UseTLS:     in.SMTP.UseTLS,
			SubjPrefix: in.SMTP.SubjPrefix,
			Domain:     in.SMTP.Domain,
		},
		Recipients: pg.NewUserRepo(in.DB),
		Template:   in.Dispatch.Template,
	}
	if in.Dispatch.Provider == notifier.ProviderKafka {
		prod := kafkarepo.BootstrapProducer(ctx, in.Kafka.Brokers, in.Kafka.Topic, in.Log)
		deps.Publisher = prod
		closer = prod.Close
	}
	provider, err := notifier.New(in.Dispatch.Provider, deps)
	if err != nil {
		_ = closer()
		return nil, nil, err
	}

	var opts []scheduler.Option
	if in.Dispatch.UseClaims {
		if in.Redis == nil {
			_ = closer()
			return nil, nil, fmt.Errorf("dispatch.use_claims requires redis")
		}
		opts = append(opts, scheduler.WithClaimer(redisrepo.NewWindowClaimer(in.Redis, in.Dispatch.ClaimTTL)))
	}

	d := scheduler.NewDispatcher(
		pg.NewPreferenceRepo(in.DB),
		pg.NewLedgerRepo(in.DB),
		provider,
		scheduler.Config{
			Channel:         in.Dispatch.Channel,
			Template:        in.Dispatch.Template,
			ProviderTimeout: in.Dispatch.ProviderTimeout,
			Workers:         in.Dispatch.Workers,
		},
		in.Log,
		opts...,
	)
	in.Log.Info("dispatcher ready",
		zap.String("provider", provider.Name()),
		zap.String("channel", in.Dispatch.Channel),
		zap.Int("workers", in.Dispatch.Workers),
		zap.Bool("claims", in.Dispatch.UseClaims),
	)
	return d, closer, nil
}

func NewRedis(ctx context.Context, cfg shared.Redis) (*goredis.Client, error) {
	return redisrepo.NewClient(ctx, redisrepo.Config{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}
