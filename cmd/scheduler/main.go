package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/NordCoder/checkin/internal/bootstrap"
	config "github.com/NordCoder/checkin/internal/config/scheduler"
	"github.com/NordCoder/checkin/internal/obs"
	pg "github.com/NordCoder/checkin/internal/repository/postgres"
	"github.com/NordCoder/checkin/internal/services/scheduler"
)

// drainTimeout covers one provider timeout plus one ledger append.
const drainTimeout = 20 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/scheduler.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig(cfg.App))
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)
	l.Info("starting scheduler",
		zap.Duration("tick", cfg.Sched.Tick),
		zap.String("provider", cfg.Dispatch.Provider),
		zap.String("metrics_addr", cfg.Sched.MetricsAddr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(ctx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.New(ctx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// redis claims
	var rdb *goredis.Client
	if cfg.Dispatch.UseClaims {
		rdb, err = bootstrap.NewRedis(ctx, cfg.Redis)
		if err != nil {
			l.Fatal("redis connect", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
	}

	// metrics server
	ms := obs.BootstrapMetricsServer(cfg.Sched.MetricsAddr, db.Ping, l)

	// wiring
	dispatcher, closeProvider, err := bootstrap.NewDispatcher(ctx, bootstrap.DispatchInput{
		Dispatch: cfg.Dispatch,
		SMTP:     cfg.SMTP,
		Kafka:    cfg.Kafka,
		DB:       db,
		Redis:    rdb,
		Log:      l,
	})
	if err != nil {
		l.Fatal("dispatcher", zap.Error(err))
	}
	defer func() { _ = closeProvider() }()
	runner := scheduler.NewRunner(l, dispatcher, cfg.Sched.Tick)

	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(ctx) }()
	l.Info("scheduler started")

	select {
	case <-ctx.Done():
		// an in-flight batch finishes its current sends before db and provider close
		select {
		case err = <-errCh:
		case <-time.After(drainTimeout):
			l.Warn("runner did not stop in time", zap.Duration("timeout", drainTimeout))
		}
	case err = <-errCh:
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		l.Error("runner error", zap.Error(err))
	}

	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
