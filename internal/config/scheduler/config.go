package scheduler_config

import (
	"time"

	"github.com/NordCoder/checkin/internal/config/shared"
	pginfra "github.com/NordCoder/checkin/internal/repository/postgres"
)

type SchedCfg struct {
	Tick        time.Duration `mapstructure:"tick"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type Config struct {
	App      shared.App      `mapstructure:"app"`
	DB       pginfra.Config  `mapstructure:"db"`
	Redis    shared.Redis    `mapstructure:"redis"`
	Kafka    shared.Kafka    `mapstructure:"kafka"`
	SMTP     shared.SMTP     `mapstructure:"smtp"`
	Dispatch shared.Dispatch `mapstructure:"dispatch"`
	Sched    SchedCfg        `mapstructure:"sched"`
	OTEL     shared.OTEL     `mapstructure:"otel"`
	Log      shared.Log      `mapstructure:"log"`
}
