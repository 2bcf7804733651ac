package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/charlesng35/chatgate/internal/database"
	"github.com/charlesng35/chatgate/internal/presenter"
	"github.com/charlesng35/chatgate/internal/retry"
	"github.com/charlesng35/chatgate/internal/rocketchat"
	"github.com/charlesng35/chatgate/pkg/validator"
)

// Config represents the runtime configuration for chatgate.
type Config struct {
	Log        LogConfig          `mapstructure:"log"`
	Versions   VersionsConfig     `mapstructure:"versions"`
	Client     rocketchat.Options `mapstructure:"client"`
	Retry      retry.Policy       `mapstructure:"retry"`
	Database   DatabaseConfig     `mapstructure:"database"`
	Server     ServerConfig       `mapstructure:"server"`
	Monitoring MonitoringConfig   `mapstructure:"monitoring"`
	Settings   SettingsConfig     `mapstructure:"settings"`
}

// LogConfig configures the global logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

// VersionsConfig holds the server version thresholds.
type VersionsConfig struct {
	Required    string `mapstructure:"required" validate:"required"`
	Recommended string `mapstructure:"recommended" validate:"required"`
}

// ServerConfig configures the HTTP probe service.
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`

	// LogLevel overrides log.level while serving.
	LogLevel string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// RateLimit is the number of requests allowed per client and route each minute; 0 disables it.
	RateLimit int `mapstructure:"rate_limit" validate:"min=0"`
}

// DatabaseConfig describes connection options for the settings cache.
type DatabaseConfig struct {
	Driver   string            `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres postgresql mysql memory"`
	Path     string            `mapstructure:"path"`
	DSN      string            `mapstructure:"dsn"`
	Host     string            `mapstructure:"host"`
	Port     int               `mapstructure:"port"`
	Name     string            `mapstructure:"name"`
	Username string            `mapstructure:"username"`
	Password string            `mapstructure:"password"`
	Options  map[string]string `mapstructure:"options"`
}

// MonitoringConfig enables metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// SettingsConfig controls the background settings refresh.
type SettingsConfig struct {
	RefreshSchedule string   `mapstructure:"refresh_schedule"`
	Servers         []string `mapstructure:"servers" validate:"dive,serverurl"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("CHATGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.ValidateStruct(&config); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("versions.required", RequiredServerVersion)
	v.SetDefault("versions.recommended", RecommendedServerVersion)

	v.SetDefault("client.timeout", "30s")
	v.SetDefault("client.user_agent", "chatgate/"+Version)

	def := retry.DefaultPolicy()
	v.SetDefault("retry.attempts", def.Attempts)
	v.SetDefault("retry.initial_delay", def.InitialDelay.String())
	v.SetDefault("retry.max_delay", def.MaxDelay.String())
	v.SetDefault("retry.multiplier", def.Multiplier)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/chatgate.sqlite")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "")
	v.SetDefault("server.rate_limit", 60)

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")

	v.SetDefault("settings.refresh_schedule", "@every 15m")
	v.SetDefault("settings.servers", []string{})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// ConnectionConfig adapts the database section for database.Open. The
// "memory" driver selects an in-memory SQLite database.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	cfg := database.Config{
		Driver:   c.Driver,
		Path:     c.Path,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		Name:     c.Name,
		User:     c.Username,
		Password: c.Password,
		Options:  c.Options,
	}
	if strings.EqualFold(c.Driver, "memory") {
		cfg.Driver = "sqlite"
		cfg.Path = ":memory:"
	}
	return cfg
}

// PresenterConfig returns the thresholds and retry policy for presenters.
func (c *Config) PresenterConfig() presenter.Config {
	return presenter.Config{
		RequiredVersion:    c.Versions.Required,
		RecommendedVersion: c.Versions.Recommended,
		Retry:              c.Retry,
	}
}

// ClientTimeout returns the configured HTTP timeout, defaulting to 30s.
func (c *Config) ClientTimeout() time.Duration {
	if c.Client.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Client.Timeout
}
