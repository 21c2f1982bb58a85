package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/NordCoder/checkin/internal/bootstrap"
	config "github.com/NordCoder/checkin/internal/config/api-gateway"
)

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/api-gateway.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting api-gateway", zap.String("env", cfg.App.Env), zap.String("ver", cfg.App.Version))

	otelShutdown, err := initOTel(rootCtx, cfg)
	if err != nil {
		logger.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelShutdown(context.Background()) }()

	db, err := initDB(rootCtx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	var rdb *goredis.Client
	if cfg.RateLimit.Backend == "redis" || cfg.Dispatch.UseClaims {
		rdb, err = bootstrap.NewRedis(rootCtx, cfg.Redis)
		if err != nil {
			logger.Fatal("redis connect", zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
	}

	limiter, err := buildLimiter(cfg, rdb)
	if err != nil {
		logger.Fatal("rate limiter", zap.Error(err))
	}

	dispatcher, closeProvider, err := bootstrap.NewDispatcher(rootCtx, bootstrap.DispatchInput{
		Dispatch: cfg.Dispatch,
		SMTP:     cfg.SMTP,
		Kafka:    cfg.Kafka,
		DB:       db,
		Redis:    rdb,
		Log:      logger,
	})
	if err != nil {
		logger.Fatal("dispatcher", zap.Error(err))
	}
	defer func() { _ = closeProvider() }()

	grpcServer, healthSrv, grpcLn, err := buildGRPCServer(cfg)
	if err != nil {
		logger.Fatal("build grpc", zap.Error(err))
	}
	healthSrv.SetServingStatus(grpcServiceName, healthpb.HealthCheckResponse_SERVING)

	grpcErrCh := make(chan error, 1)
	go func() { grpcErrCh <- serveGRPC(grpcServer, grpcLn, cfg, logger) }()

	httpSrv := buildHTTPServer(cfg, logger, db, dispatcher, limiter)
	httpErrCh := make(chan error, 1)
	go func() { httpErrCh <- serveHTTP(httpSrv, cfg, logger) }()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal", zap.String("reason", "context canceled"))
	case err := <-grpcErrCh:
		if err != nil {
			logger.Error("grpc serve", zap.Error(err))
		}
	case err := <-httpErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", zap.Error(err))
		}
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()

	_ = httpSrv.Shutdown(shCtx)
	gracefulStopGRPC(grpcServer, healthSrv)
	logger.Info("bye")
}
