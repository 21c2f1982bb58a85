package httpapi

import (
	"crypto/subtle"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NordCoder/checkin/internal/obs"
	"github.com/NordCoder/checkin/internal/ratelimit"
)

const (
	headerRequestID     = "X-Request-ID"
	headerInternalToken = "X-Internal-Token"
	headerRetryAfter    = "Retry-After"

	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
)

var mRateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ratelimit_rejections_total", Help: "Requests rejected by the rate limiter",
}, []string{"route"})

// RequestID propagates X-Request-ID, generating one when absent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Header(headerRequestID, rid)
		c.Next()
	}
}

func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		l := obs.WithTrace(c.Request.Context(), log)
		if len(c.Errors) > 0 {
			l.Error("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		l.Debug("request", fields...)
	}
}

func Recovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("request panic recovered",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(ctxRequestID)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, errorEnvelope{Error: errInternal})
			}
		}()
		c.Next()
	}
}

// TokenParser resolves a bearer token to a user id.
type TokenParser interface {
	ParseAccess(token string) (string, error)
}

func bearerToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// RequireUser rejects requests without a valid access token before any handler runs.
func RequireUser(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			respondError(c, unauthorized("missing bearer token"))
			return
		}
		uid, err := p.ParseAccess(token)
		if err != nil {
			respondError(c, unauthorized("invalid access token"))
			return
		}
		c.Set(ctxUserID, uid)
		c.Next()
	}
}

// RequireInternalToken guards operational endpoints. An empty token disables the check.
func RequireInternalToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader(headerInternalToken)
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			respondError(c, unauthorized("invalid internal token"))
			return
		}
		c.Next()
	}
}

type Limit struct {
	Max    int
	Window time.Duration
}

// RateLimit applies a fixed-window limit per key(c). Limiter errors let the request through.
func RateLimit(lim ratelimit.Limiter, route string, l Limit, key func(*gin.Context) string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := lim.Check(c.Request.Context(), route+":"+key(c), l.Max, l.Window)
		if err != nil {
			log.Warn("rate limiter unavailable", zap.String("route", route), zap.Error(err))
			c.Next()
			return
		}
		if !res.Allowed {
			mRateLimited.WithLabelValues(route).Inc()
			c.Header(headerRetryAfter, strconv.Itoa(res.RetryAfterSeconds))
			respondError(c, rateLimited())
			return
		}
		c.Next()
	}
}

func clientIPKey(c *gin.Context) string { return c.ClientIP() }
