package api_gateway_config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/NordCoder/checkin/internal/config/shared"
)

const (
	ErrNoDSN          = ErrConfig("db.dsn is empty")
	ErrNoJWTSecret    = ErrConfig("auth.jwt_secret is empty")
	ErrLimiterBackend = ErrConfig("ratelimit.backend must be memory or redis")
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	shared.SetDefaults(v, "api-gateway")

	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.grpc_addr", ":9090")
	v.SetDefault("server.read_timeout", "5s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.graceful_timeout", "15s")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_ttl", "15m")
	v.SetDefault("auth.internal_token", "")

	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.login_max", 10)
	v.SetDefault("ratelimit.login_window", "15m")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.DSN == "" {
		return nil, ErrNoDSN
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, ErrNoJWTSecret
	}
	switch cfg.RateLimit.Backend {
	case "memory", "redis":
	default:
		return nil, ErrLimiterBackend
	}
	return &cfg, nil
}
