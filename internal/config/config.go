// Package config loads sift settings from an optional file and SIFT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SIFT_LOG_LEVEL.
const EnvPrefix = "SIFT"

// Config holds all configuration for the application
type Config struct {
	// Log configuration
	Log LogConfig `mapstructure:"log"`

	// Compiler settings
	Compiler CompilerConfig `mapstructure:"compiler"`

	// Mapping file configuration
	Mapping MappingConfig `mapstructure:"mapping"`

	// Document store configuration
	Store StoreConfig `mapstructure:"store"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

// CompilerConfig holds query compiler settings
type CompilerConfig struct {
	AllowLeadingWildcard bool `mapstructure:"allow_leading_wildcard"`
}

// MappingConfig points at the default mapping file
type MappingConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig holds document store configuration
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// Load reads configuration. path may be empty, in which case only defaults
// and environment variables apply. A named file that does not exist is an
// error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// Defaults always decode.
	_ = v.Unmarshal(cfg)
	return cfg
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("compiler.allow_leading_wildcard", false)

	v.SetDefault("mapping.path", "")

	v.SetDefault("store.path", "sift.db")
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path: must not be empty"))
	}
	return errors.Join(errs...)
}
