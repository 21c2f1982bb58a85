package api_gateway_config

import (
	"time"

	"github.com/NordCoder/checkin/internal/config/shared"
	pg "github.com/NordCoder/checkin/internal/repository/postgres"
)

type Server struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	GRPCAddr        string        `mapstructure:"grpc_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
}

type Auth struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	InternalToken string        `mapstructure:"internal_token"`
}

type RateLimit struct {
	Backend     string        `mapstructure:"backend"`
	LoginMax    int           `mapstructure:"login_max"`
	LoginWindow time.Duration `mapstructure:"login_window"`
}

type Config struct {
	App       shared.App      `mapstructure:"app"`
	Server    Server          `mapstructure:"server"`
	DB        pg.Config       `mapstructure:"db"`
	Redis     shared.Redis    `mapstructure:"redis"`
	Kafka     shared.Kafka    `mapstructure:"kafka"`
	SMTP      shared.SMTP     `mapstructure:"smtp"`
	Dispatch  shared.Dispatch `mapstructure:"dispatch"`
	OTEL      shared.OTEL     `mapstructure:"otel"`
	Log       shared.Log      `mapstructure:"log"`
	Auth      Auth            `mapstructure:"auth"`
	RateLimit RateLimit       `mapstructure:"ratelimit"`
}

type ErrConfig string

func (e ErrConfig) Error() string { return string(e) }
