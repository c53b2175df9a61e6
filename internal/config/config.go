// Package config provides Viper-based configuration loading for the guilde daemon.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig holds durable save-store settings.
type StorageConfig struct {
	// Path is the SQLite database file backing the save store.
	Path string `mapstructure:"path"`
	// Key is the single save slot key inside the store.
	Key string `mapstructure:"key"`
}

// EngineConfig holds simulation loop timing settings.
type EngineConfig struct {
	// TickInterval is the cadence of the combat loop.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// DeltaCap bounds the simulated delta applied per combat step, so a
	// suspended process does not replay the whole gap on resume.
	DeltaCap time.Duration `mapstructure:"delta_cap"`
	// RecruitTickInterval is the cadence of the recruit task ticker.
	RecruitTickInterval time.Duration `mapstructure:"recruit_tick_interval"`
	// AutosaveInterval is the cadence of the safety-net autosave.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval"`
}

// ServerConfig holds the HTTP surface settings for the presentation layer.
type ServerConfig struct {
	// Enabled toggles the HTTP listener; the engine runs headless when false.
	Enabled bool `mapstructure:"enabled"`
	// Host is the bind address for the HTTP listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the HTTP listener.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig holds catalogue content settings.
type ContentConfig struct {
	// Dir is an optional directory of YAML catalogue overrides
	// (enemies.yaml, missions.yaml). Empty means compiled-in defaults.
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Server  ServerConfig  `mapstructure:"server"`
	Content ContentConfig `mapstructure:"content"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateEngine(c.Engine); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	var errs []string
	if s.Path == "" {
		errs = append(errs, "storage.path must not be empty")
	}
	if s.Key == "" {
		errs = append(errs, "storage.key must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateEngine(e EngineConfig) error {
	var errs []string
	if e.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.tick_interval must be positive, got %s", e.TickInterval))
	}
	if e.DeltaCap <= 0 {
		errs = append(errs, fmt.Sprintf("engine.delta_cap must be positive, got %s", e.DeltaCap))
	}
	if e.RecruitTickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("engine.recruit_tick_interval must be positive, got %s", e.RecruitTickInterval))
	}
	if e.AutosaveInterval < 0 {
		errs = append(errs, fmt.Sprintf("engine.autosave_interval must not be negative, got %s", e.AutosaveInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if !s.Enabled {
		return nil
	}
	var errs []string
	if s.Host == "" {
		errs = append(errs, "server.host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with GUILDE_ prefix
	v.SetEnvPrefix("GUILDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration used when no file is supplied.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are statically valid; Unmarshal over them cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", "guilde.db")
	v.SetDefault("storage.key", "idle-game-save")

	v.SetDefault("engine.tick_interval", "50ms")
	v.SetDefault("engine.delta_cap", "250ms")
	v.SetDefault("engine.recruit_tick_interval", "250ms")
	v.SetDefault("engine.autosave_interval", "45s")

	v.SetDefault("server.enabled", true)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8420)

	v.SetDefault("content.dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
