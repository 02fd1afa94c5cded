package models

import "time"

// StorageBackend selects where the task blob is kept.
type StorageBackend string

const (
	BackendFile  StorageBackend = "file"
	BackendRedis StorageBackend = "redis"
)

// StorageConfig controls the durable task blob.
type StorageConfig struct {
	Backend   StorageBackend `yaml:"backend" mapstructure:"backend"`
	Key       string         `yaml:"key" mapstructure:"key"`
	RedisAddr string         `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisDB   int            `yaml:"redis_db" mapstructure:"redis_db"`
}

// ReminderConfig controls the reminder monitor's cadence.
type ReminderConfig struct {
	ScanInterval time.Duration `yaml:"scan_interval" mapstructure:"scan_interval"`
	Expiry       time.Duration `yaml:"expiry" mapstructure:"expiry"`
}

// SoundConfig controls the reminder tone.
type SoundConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Player  string `yaml:"player" mapstructure:"player"`
}

// VoiceConfig controls spoken reminders.
type VoiceConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Command string `yaml:"command" mapstructure:"command"`
}

// NotificationsConfig holds optional external notification channels.
type NotificationsConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// GlobalConfig holds system-wide settings read from .routineconfig via Viper.
type GlobalConfig struct {
	Storage       StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Reminders     ReminderConfig      `yaml:"reminders" mapstructure:"reminders"`
	Sound         SoundConfig         `yaml:"sound" mapstructure:"sound"`
	Voice         VoiceConfig         `yaml:"voice" mapstructure:"voice"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
}
