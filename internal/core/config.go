// Package core contains the business logic for routine: the task store, the
// reminder monitor and its notification queue, time-of-day handling, and
// configuration loading.
package core

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/routine/internal/storage"
	"github.com/valter-silva-au/routine/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file looked up in the
// base directory.
const ConfigFileName = ".routineconfig"

// ConfigurationManager loads and validates the global configuration.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(cfg *models.GlobalConfig) error
	ConfigPath() string
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML configuration file.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .routineconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with the defaults used
// when no configuration file exists.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Storage: models.StorageConfig{
			Backend:   models.BackendFile,
			Key:       "tasks",
			RedisAddr: "127.0.0.1:6379",
		},
		Reminders: models.ReminderConfig{
			ScanInterval: DefaultScanInterval,
			Expiry:       DefaultNotificationExpiry,
		},
		Sound: models.SoundConfig{Enabled: true},
		Voice: models.VoiceConfig{Enabled: true},
		Log: models.LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func (cm *viperConfigManager) ConfigPath() string {
	return filepath.Join(cm.basePath, ConfigFileName)
}

// LoadGlobalConfig reads .routineconfig from the base path. A missing file
// yields the defaults; a present but unparsable file is an error.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)

	v.SetDefault("storage.backend", string(cfg.Storage.Backend))
	v.SetDefault("storage.key", cfg.Storage.Key)
	v.SetDefault("storage.redis_addr", cfg.Storage.RedisAddr)
	v.SetDefault("storage.redis_db", cfg.Storage.RedisDB)
	v.SetDefault("reminders.scan_interval", cfg.Reminders.ScanInterval)
	v.SetDefault("reminders.expiry", cfg.Reminders.Expiry)
	v.SetDefault("sound.enabled", cfg.Sound.Enabled)
	v.SetDefault("sound.player", cfg.Sound.Player)
	v.SetDefault("voice.enabled", cfg.Voice.Enabled)
	v.SetDefault("voice.command", cfg.Voice.Command)
	v.SetDefault("notifications.webhook_url", cfg.Notifications.WebhookURL)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
	}

	cfg.Storage.Backend = models.StorageBackend(strings.ToLower(v.GetString("storage.backend")))
	cfg.Storage.Key = v.GetString("storage.key")
	cfg.Storage.RedisAddr = v.GetString("storage.redis_addr")
	cfg.Storage.RedisDB = v.GetInt("storage.redis_db")
	cfg.Reminders.ScanInterval = v.GetDuration("reminders.scan_interval")
	cfg.Reminders.Expiry = v.GetDuration("reminders.expiry")
	cfg.Sound.Enabled = v.GetBool("sound.enabled")
	cfg.Sound.Player = v.GetString("sound.player")
	cfg.Voice.Enabled = v.GetBool("voice.enabled")
	cfg.Voice.Command = v.GetString("voice.command")
	cfg.Notifications.WebhookURL = v.GetString("notifications.webhook_url")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	return cfg, nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "disabled": true,
}

// ValidateConfig checks cfg for invalid values and reports every problem in
// one error.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	switch cfg.Storage.Backend {
	case models.BackendFile:
	case models.BackendRedis:
		if cfg.Storage.RedisAddr == "" {
			errs = append(errs, "storage.redis_addr must not be empty when storage.backend is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q is invalid, must be one of: file, redis", cfg.Storage.Backend))
	}

	if err := storage.ValidateKey(cfg.Storage.Key); err != nil {
		errs = append(errs, fmt.Sprintf("storage.key: %v", err))
	}

	if cfg.Storage.RedisDB < 0 {
		errs = append(errs, fmt.Sprintf("storage.redis_db must be non-negative, got %d", cfg.Storage.RedisDB))
	}

	if cfg.Reminders.ScanInterval < time.Second {
		errs = append(errs, fmt.Sprintf("reminders.scan_interval must be at least 1s, got %s", cfg.Reminders.ScanInterval))
	}

	if cfg.Reminders.Expiry <= 0 {
		errs = append(errs, fmt.Sprintf("reminders.expiry must be positive, got %s", cfg.Reminders.Expiry))
	}

	if cfg.Log.Level != "" && !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: trace, debug, info, warn, error, disabled", cfg.Log.Level))
	}

	switch strings.ToLower(cfg.Log.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format %q is invalid, must be console or json", cfg.Log.Format))
	}

	if url := cfg.Notifications.WebhookURL; url != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		errs = append(errs, fmt.Sprintf("notifications.webhook_url %q must be an http(s) URL", url))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
