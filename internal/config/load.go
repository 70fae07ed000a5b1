package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load,
// e.g. PARLEY_SERVER_PORT or PARLEY_DATABASE_URL.
const envPrefix = "PARLEY"

// Load reads configuration from environment variables and an optional
// config file (parley.yaml in the working directory). Environment variables
// take precedence over values from the config file. Returns a populated
// Config struct or an error if loading or validation fails.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults for everything that has a sensible one; connection URLs
	// must come from the environment.
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.arrival_ttl_hours", 24)
	v.SetDefault("matching.max_match_age_hours", 72)
	v.SetDefault("matching.slot_hours", []int{12, 15, 17})
	v.SetDefault("scheduler.interval_minutes", 60)

	v.SetConfigName("parley")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No config file is fine; the environment can carry everything.
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not make viper.Unmarshal see env-only keys, so
	// bind every key we care about explicitly.
	for _, key := range []string{
		"server.port",
		"server.log_level",
		"database.url",
		"redis.url",
		"redis.arrival_ttl_hours",
		"matching.max_match_age_hours",
		"matching.slot_window_start",
		"matching.slot_window_end",
		"matching.slot_hours",
		"scheduler.interval_minutes",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}
