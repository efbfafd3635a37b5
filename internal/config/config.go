package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds server settings, loaded from homeglow.yaml (if present)
// and HOMEGLOW_* environment variables. Env wins over file.
type Config struct {
	Port     int    `mapstructure:"port"`
	DBPath   string `mapstructure:"db_path"`
	Timezone string `mapstructure:"timezone"`
	LogLevel string `mapstructure:"log_level"`
}

// Load reads configuration. A missing config file is fine; defaults and
// environment variables cover everything.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "homeglow.db")
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_level", "info")

	v.SetConfigName("homeglow")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/homeglow")

	v.SetEnvPrefix("HOMEGLOW")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	return &cfg, nil
}
