package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/NordCoder/checkin/internal/obs"
	"github.com/NordCoder/checkin/internal/ratelimit"
	"github.com/NordCoder/checkin/internal/services/scheduler"
)

type Deps struct {
	Log           *zap.Logger
	Auth          Authenticator
	Status        StatusService
	Jobs          scheduler.BatchRunner
	Limiter       ratelimit.Limiter
	LoginLimit    Limit
	InternalToken string
	Health        func(ctx context.Context) error
}

type handlers struct {
	auth   Authenticator
	status StatusService
	jobs   scheduler.BatchRunner
}

func NewRouter(d Deps) *gin.Engine {
	log := obs.Component(d.Log, "api.http")
	if d.Limiter == nil {
		d.Limiter = ratelimit.NewMemory()
	}
	if d.LoginLimit.Max <= 0 {
		d.LoginLimit = Limit{Max: 10, Window: 15 * time.Minute}
	}
	h := &handlers{auth: d.Auth, status: d.Status, jobs: d.Jobs}

	r := gin.New()
	r.Use(RequestID(), Recovery(log), RequestLogger(log))

	if d.Health != nil {
		r.GET("/healthz", gin.WrapF(obs.HealthHandler(d.Health)))
	}
	r.GET("/metrics", gin.WrapH(obs.MetricsHandler()))

	v1 := r.Group("/v1")
	v1.POST("/auth/login", RateLimit(d.Limiter, "login", d.LoginLimit, clientIPKey, log), h.login)
	v1.GET("/reminders/status", RequireUser(d.Auth), h.reminderStatus)

	internal := r.Group("/internal", RequireInternalToken(d.InternalToken))
	internal.POST("/reminders/run", h.runReminders)

	return r
}
