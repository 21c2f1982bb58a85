package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NordCoder/checkin/internal/domain/reminder"
	"github.com/NordCoder/checkin/internal/domain/user"
	"github.com/NordCoder/checkin/internal/ratelimit"
	"github.com/NordCoder/checkin/internal/services/api-gateway/auth"
	"github.com/NordCoder/checkin/internal/services/api-gateway/status"
	"github.com/NordCoder/checkin/internal/services/scheduler"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeAuth struct{}

func (fakeAuth) ParseAccess(token string) (string, error) {
	if token == "good" {
		return "u1", nil
	}
	return "", errors.New("bad token")
}

func (fakeAuth) SignIn(_ context.Context, email, password string) (*user.User, string, error) {
	if email == "down@example.com" {
		return nil, "", errors.New("lookup user: pg: connection refused")
	}
	if email == "ann@example.com" && password == "pw" {
		return &user.User{ID: "u1", Email: email}, "token-u1", nil
	}
	return nil, "", auth.ErrInvalidCredentials
}

type recordingStatus struct {
	got status.Query
	res status.Result
	err error
}

func (s *recordingStatus) Status(_ context.Context, q status.Query) (status.Result, error) {
	s.got = q
	return s.res, s.err
}

type fakeJobs struct {
	sum scheduler.Summary
	err error
}

func (j fakeJobs) Run(context.Context) (scheduler.Summary, error) { return j.sum, j.err }

type brokenLimiter struct{}

func (brokenLimiter) Check(context.Context, string, int, time.Duration) (ratelimit.Result, error) {
	return ratelimit.Result{}, errors.New("redis down")
}

func newTestRouter(d Deps) *gin.Engine {
	d.Log = zap.NewNop()
	if d.Auth == nil {
		d.Auth = fakeAuth{}
	}
	if d.Status == nil {
		d.Status = &recordingStatus{}
	}
	return NewRouter(d)
}

func do(r http.Handler, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	assert.NotEmpty(t, env.Error.Message)
	return env.Error.Code
}

var bearer = map[string]string{"Authorization": "Bearer good"}

func TestStatus_RequiresUser(t *testing.T) {
	r := newTestRouter(Deps{})
	for _, hdr := range []map[string]string{nil, {"Authorization": "Bearer nope"}, {"Authorization": "Basic good"}} {
		w := do(r, http.MethodGet, "/v1/reminders/status", "", hdr)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeUnauthorized, errorCode(t, w))
	}
}

func TestStatus_ValidatesQuery(t *testing.T) {
	svc := &recordingStatus{}
	r := newTestRouter(Deps{Status: svc})
	for _, q := range []string{"limit=0", "limit=51", "limit=abc", "hours=0", "hours=721", "hours=1.5"} {
		t.Run(q, func(t *testing.T) {
			w := do(r, http.MethodGet, "/v1/reminders/status?"+q, "", bearer)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, CodeValidation, errorCode(t, w))
		})
	}
}

func TestStatus_DefaultsAndBounds(t *testing.T) {
	svc := &recordingStatus{res: status.Result{Items: []status.Item{}, Meta: status.Meta{Limit: 5, Hours: 24}}}
	r := newTestRouter(Deps{Status: svc})

	w := do(r, http.MethodGet, "/v1/reminders/status", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, status.Query{UserID: "u1", Limit: 5, Hours: 24}, svc.got)
	assert.JSONEq(t, `{"items":[],"meta":{"limit":5,"hours":24}}`, w.Body.String())

	w = do(r, http.MethodGet, "/v1/reminders/status?limit=50&hours=720", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, status.Query{UserID: "u1", Limit: 50, Hours: 720}, svc.got)
}

func TestStatus_InternalErrorIsEnveloped(t *testing.T) {
	r := newTestRouter(Deps{Status: &recordingStatus{err: errors.New("pg: connection refused")}})
	w := do(r, http.MethodGet, "/v1/reminders/status", "", bearer)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "connection refused")
}

type onePref struct{ p reminder.Preference }

func (o onePref) ListEnabled(context.Context) ([]reminder.Preference, error) {
	return []reminder.Preference{o.p}, nil
}

func (o onePref) GetByUser(context.Context, string) (*reminder.Preference, error) { return &o.p, nil }

type emptyLedger struct{}

func (emptyLedger) FindExistingInWindow(context.Context, string, string, string, reminder.Window) (*reminder.Entry, error) {
	return nil, nil
}
func (emptyLedger) Append(context.Context, *reminder.Entry) error { return nil }
func (emptyLedger) ListRecent(context.Context, reminder.RecentQuery) ([]reminder.Entry, error) {
	return nil, nil
}

func TestStatus_ComputedPendingOverHTTP(t *testing.T) {
	now := time.Date(2026, 2, 15, 12, 5, 0, 0, time.UTC)
	uc := status.NewUseCase(
		onePref{reminder.Preference{UserID: "u1", Timezone: "UTC", ReminderHourLocal: 12, NotificationsEnabled: true}},
		emptyLedger{}, "in_app", "checkin_reminder",
		reminder.ClockFunc(func() time.Time { return now }),
	)
	r := newTestRouter(Deps{Status: uc})

	w := do(r, http.MethodGet, "/v1/reminders/status?limit=3", "", bearer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"items":[{"id":"pending-u1-2026-02-15T12:00:00Z","status":"pending","sentAt":"2026-02-15T12:00:00Z","channel":"in_app","source":"computed_pending"}],
		"meta":{"limit":3,"hours":24}
	}`, w.Body.String())
}

func TestTrigger(t *testing.T) {
	sum := scheduler.Summary{
		UTCWindowStart: time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC),
		UTCWindowEnd:   time.Date(2026, 2, 15, 13, 0, 0, 0, time.UTC),
		CandidateCount: 3, DueCount: 2, SentCount: 1, FailedCount: 1,
	}

	t.Run("summary", func(t *testing.T) {
		r := newTestRouter(Deps{Jobs: fakeJobs{sum: sum}, InternalToken: "ops"})
		w := do(r, http.MethodPost, "/internal/reminders/run", "", map[string]string{headerInternalToken: "ops"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{
			"utcWindowStart":"2026-02-15T12:00:00Z","utcWindowEnd":"2026-02-15T13:00:00Z",
			"candidateCount":3,"dueCount":2,"sentCount":1,"failedCount":1,"skippedCount":0
		}`, w.Body.String())
	})

	t.Run("wrong token", func(t *testing.T) {
		r := newTestRouter(Deps{Jobs: fakeJobs{sum: sum}, InternalToken: "ops"})
		w := do(r, http.MethodPost, "/internal/reminders/run", "", map[string]string{headerInternalToken: "guess"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, CodeUnauthorized, errorCode(t, w))
	})

	t.Run("open when no token configured", func(t *testing.T) {
		r := newTestRouter(Deps{Jobs: fakeJobs{sum: sum}})
		w := do(r, http.MethodPost, "/internal/reminders/run", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("run error", func(t *testing.T) {
		r := newTestRouter(Deps{Jobs: fakeJobs{err: errors.New("db down")}})
		w := do(r, http.MethodPost, "/internal/reminders/run", "", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, CodeInternal, errorCode(t, w))
	})
}

func TestLogin(t *testing.T) {
	r := newTestRouter(Deps{})

	w := do(r, http.MethodPost, "/v1/auth/login", `{"email":"ann@example.com","password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"accessToken":"token-u1"}`, w.Body.String())

	w = do(r, http.MethodPost, "/v1/auth/login", `{"email":"ann@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeUnauthorized, errorCode(t, w))

	w = do(r, http.MethodPost, "/v1/auth/login", `{"email":"down@example.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeInternal, errorCode(t, w))
	assert.NotContains(t, w.Body.String(), "connection refused")

	w = do(r, http.MethodPost, "/v1/auth/login", `{"email":"not-an-email"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, errorCode(t, w))
}

func TestLogin_RateLimited(t *testing.T) {
	clock := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	lim := ratelimit.NewMemory().WithClock(func() time.Time { return clock })
	r := newTestRouter(Deps{Limiter: lim, LoginLimit: Limit{Max: 2, Window: time.Minute}})
	body := `{"email":"ann@example.com","password":"nope"}`

	for i := 0; i < 2; i++ {
		w := do(r, http.MethodPost, "/v1/auth/login", body, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := do(r, http.MethodPost, "/v1/auth/login", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, CodeRateLimited, errorCode(t, w))
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	clock = clock.Add(time.Minute)
	w = do(r, http.MethodPost, "/v1/auth/login", `{"email":"ann@example.com","password":"pw"}`, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin_LimiterOutageFailsOpen(t *testing.T) {
	r := newTestRouter(Deps{Limiter: brokenLimiter{}, LoginLimit: Limit{Max: 1, Window: time.Minute}})
	for i := 0; i < 3; i++ {
		w := do(r, http.MethodPost, "/v1/auth/login", `{"email":"ann@example.com","password":"pw"}`, nil)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestHealthz(t *testing.T) {
	healthy := true
	r := newTestRouter(Deps{Health: func(context.Context) error {
		if healthy {
			return nil
		}
		return errors.New("down")
	}})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "", nil).Code)
	healthy = false
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/healthz", "", nil).Code)
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(Deps{})
	w := do(r, http.MethodGet, "/v1/reminders/status", "", map[string]string{headerRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(headerRequestID))
}

func TestValidationMessageNamesField(t *testing.T) {
	r := newTestRouter(Deps{})
	w := do(r, http.MethodGet, "/v1/reminders/status?limit=51", "", bearer)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "limit must satisfy max=50")
}
