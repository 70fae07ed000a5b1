package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Matching  MatchingConfig  `mapstructure:"matching" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP-server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig contains the connection settings for the arrival tracker.
// An empty URL disables Redis-backed presence and falls back to treating
// every participant as not arrived.
type RedisConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`

	// ArrivalTTLHours bounds how long an arrival marker outlives its
	// meeting before Redis drops it on its own.
	ArrivalTTLHours int `mapstructure:"arrival_ttl_hours" validate:"gte=0"`
}

// MatchingConfig tunes the matching engine and the meeting-slot window
// offered to participants.
type MatchingConfig struct {
	// MaxMatchAgeHours is the validity window of a committed match: pairs
	// older than this are expired regardless of arrival state.
	MaxMatchAgeHours int `mapstructure:"max_match_age_hours" validate:"required,gt=0"`

	// Slot window: every listed hour of every day between the two dates,
	// inclusive. Dates are ISO (2006-01-02).
	SlotWindowStart string `mapstructure:"slot_window_start" validate:"required,datetime=2006-01-02"`
	SlotWindowEnd   string `mapstructure:"slot_window_end" validate:"required,datetime=2006-01-02"`
	SlotHours       []int  `mapstructure:"slot_hours" validate:"required,min=1,dive,gte=0,lte=23"`
}

// SchedulerConfig tunes the background batch cycle.
type SchedulerConfig struct {
	IntervalMinutes int `mapstructure:"interval_minutes" validate:"required,gt=0"`
}

// Interval returns the batch interval as a duration.
func (c SchedulerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// MaxMatchAge returns the match validity window as a duration.
func (c MatchingConfig) MaxMatchAge() time.Duration {
	return time.Duration(c.MaxMatchAgeHours) * time.Hour
}

// ArrivalTTL returns the presence-marker lifetime as a duration.
func (c RedisConfig) ArrivalTTL() time.Duration {
	return time.Duration(c.ArrivalTTLHours) * time.Hour
}
