package scheduler_config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Sched.Tick)
	assert.Equal(t, ":8082", cfg.Sched.MetricsAddr)
	assert.Equal(t, "noop", cfg.Dispatch.Provider)
	assert.Equal(t, 8, cfg.Dispatch.Workers)
	assert.Equal(t, 2*time.Hour, cfg.Dispatch.ClaimTTL)
	assert.False(t, cfg.Dispatch.UseClaims)
	assert.Equal(t, "scheduler", cfg.App.Name)
	assert.Equal(t, "checkin/scheduler", cfg.Log.AsLoggerConfig(cfg.App).App)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCHED_TICK", "1m")
	t.Setenv("DISPATCH_USE_CLAIMS", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, cfg.Sched.Tick)
	assert.True(t, cfg.Dispatch.UseClaims)
}
