// Package config loads kernel start-up options — guest OS revision,
// default log level, UTC offset mode, metrics switch — from an optional
// YAML/env layer via spf13/viper, falling back to literal-struct defaults
// when no file is present: an env-prefixed viper instance,
// config-file-optional Load, defaults registered first at the lowest
// precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// UTCOffsetMode names how UTCOffset SVC calls are answered. It is loaded
// and validated here; the UTCOffset handler reads the kernel's Clock
// collaborator and does not consult this setting.
type UTCOffsetMode string

const (
	// UTCOffsetLive reads the host's live timezone offset (clock.HostClock).
	UTCOffsetLive UTCOffsetMode = "live"
	// UTCOffsetFixed uses a fixed offset configured in FixedUTCOffsetSeconds.
	UTCOffsetFixed UTCOffsetMode = "fixed"
)

// Config is the kernel's start-up configuration.
type Config struct {
	// Revision selects the guest OS ABI generation: "9.3" (minimal) or
	// "9.4" (full).
	Revision string `mapstructure:"revision"`

	// LogLevel is the default logging.LogLevel name: debug, info, warn,
	// error, critical.
	LogLevel string `mapstructure:"log_level"`

	// UTCOffsetMode selects live or fixed UTC offset reporting.
	UTCOffsetMode UTCOffsetMode `mapstructure:"utc_offset_mode"`

	// FixedUTCOffsetSeconds is used when UTCOffsetMode is "fixed".
	FixedUTCOffsetSeconds int32 `mapstructure:"fixed_utc_offset_seconds"`

	// MetricsEnabled is the metrics on/off switch. It is loaded and
	// validated here; NewKernel does not read it.
	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

// Default returns the literal-struct default configuration: "9.4",
// info-level logging, live UTC offset, metrics on.
func Default() *Config {
	return &Config{
		Revision:       "9.4",
		LogLevel:       "info",
		UTCOffsetMode:  UTCOffsetLive,
		MetricsEnabled: true,
	}
}

// envPrefix is the environment variable prefix viper recognizes:
// KERNELCORE_REVISION, KERNELCORE_LOG_LEVEL, etc.
const envPrefix = "KERNELCORE"

// Load reads configuration from an optional YAML file at configPath,
// then KERNELCORE_*-prefixed environment variables, then the literal
// defaults, in ascending precedence (env overrides file overrides
// defaults). An empty configPath skips the file layer entirely rather
// than erroring, matching dittofs's "config file not found is
// acceptable" behavior.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("revision", def.Revision)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("utc_offset_mode", string(def.UTCOffsetMode))
	v.SetDefault("fixed_utc_offset_seconds", def.FixedUTCOffsetSeconds)
	v.SetDefault("metrics_enabled", def.MetricsEnabled)

	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("stat config file: %w", statErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Revision {
	case "9.3", "9.4":
	default:
		return fmt.Errorf("config: revision must be \"9.3\" or \"9.4\", got %q", cfg.Revision)
	}
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error", "critical":
	default:
		return fmt.Errorf("config: log_level must be one of debug/info/warn/error/critical, got %q", cfg.LogLevel)
	}
	switch cfg.UTCOffsetMode {
	case UTCOffsetLive, UTCOffsetFixed, "":
	default:
		return fmt.Errorf("config: utc_offset_mode must be \"live\" or \"fixed\", got %q", cfg.UTCOffsetMode)
	}
	return nil
}

// DefaultPath returns the conventional config file location,
// $XDG_CONFIG_HOME/symkern/config.yaml, falling back to
// ~/.config/symkern/config.yaml.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "symkern", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "symkern-config.yaml")
	}
	return filepath.Join(home, ".config", "symkern", "config.yaml")
}
