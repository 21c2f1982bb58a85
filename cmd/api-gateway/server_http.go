package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	config "github.com/NordCoder/checkin/internal/config/api-gateway"
	"github.com/NordCoder/checkin/internal/obs"
	"github.com/NordCoder/checkin/internal/ratelimit"
	pg "github.com/NordCoder/checkin/internal/repository/postgres"
	"github.com/NordCoder/checkin/internal/services/api-gateway/auth"
	"github.com/NordCoder/checkin/internal/services/api-gateway/httpapi"
	"github.com/NordCoder/checkin/internal/services/api-gateway/status"
	"github.com/NordCoder/checkin/internal/services/scheduler"
)

func buildLimiter(cfg *config.Config, rdb *goredis.Client) (ratelimit.Limiter, error) {
	switch cfg.RateLimit.Backend {
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("ratelimit.backend=redis requires redis")
		}
		return ratelimit.NewRedis(rdb), nil
	default:
		return ratelimit.NewMemory(), nil
	}
}

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, jobs scheduler.BatchRunner, limiter ratelimit.Limiter) *http.Server {
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	authUC := auth.NewUseCase(pg.NewUserRepo(db), auth.Config{
		Secret:    []byte(cfg.Auth.JWTSecret),
		AccessTTL: cfg.Auth.AccessTTL,
	})
	statusUC := status.NewUseCase(
		pg.NewPreferenceRepo(db),
		pg.NewLedgerRepo(db),
		cfg.Dispatch.Channel,
		cfg.Dispatch.Template,
		nil,
	)

	router := httpapi.NewRouter(httpapi.Deps{
		Log:           logger,
		Auth:          authUC,
		Status:        statusUC,
		Jobs:          jobs,
		Limiter:       limiter,
		LoginLimit:    httpapi.Limit{Max: cfg.RateLimit.LoginMax, Window: cfg.RateLimit.LoginWindow},
		InternalToken: cfg.Auth.InternalToken,
		Health:        db.Ping,
	})

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           obs.HTTPHandler(router, "api-gateway"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

func serveHTTP(srv *http.Server, cfg *config.Config, logger *zap.Logger) error {
	logger.Info("http listening", zap.String("addr", cfg.Server.HTTPAddr))
	return srv.ListenAndServe()
}
