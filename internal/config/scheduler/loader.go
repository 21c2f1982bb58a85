package scheduler_config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"

	"github.com/NordCoder/checkin/internal/config/shared"
)

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		_ = v.ReadInConfig()
	}

	shared.SetDefaults(v, "scheduler")

	v.SetDefault("sched.tick", "5m")
	v.SetDefault("sched.metrics_addr", ":8082")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.DB.DSN == "" {
		return nil, errors.New("db.dsn is empty")
	}
	if cfg.Sched.Tick <= 0 {
		return nil, errors.New("sched.tick must be positive")
	}
	return &cfg, nil
}
