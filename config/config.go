/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package config loads labwave settings from an optional labwave.yaml,
// LABWAVE_ environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/humaidq/labwave/catalog"
)

// Config is the complete runtime configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
}

// DatabaseConfig selects and configures the store.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	URL        string `mapstructure:"url"`
	SQLitePath string `mapstructure:"sqlite_path"`
	MaxConns   int32  `mapstructure:"max_conns"`
}

type PipelineConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	Workers        int   `mapstructure:"workers"`
}

type ResolverConfig struct {
	Threshold float64 `mapstructure:"threshold"`
	Margin    float64 `mapstructure:"margin"`
	CacheSize int     `mapstructure:"cache_size"`
}

type ClassifierConfig struct {
	Tolerance float64 `mapstructure:"tolerance"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration. An explicit path must exist; otherwise
// labwave.yaml is searched for and may be absent.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("labwave")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/labwave/")
	}

	v.SetEnvPrefix("LABWAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	_ = v.Unmarshal(cfg)

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", "labwave.db")
	v.SetDefault("database.max_conns", 20)

	v.SetDefault("pipeline.max_upload_bytes", 50<<20)
	v.SetDefault("pipeline.workers", 4)

	v.SetDefault("resolver.threshold", catalog.DefaultMatchThreshold)
	v.SetDefault("resolver.margin", catalog.DefaultMatchMargin)
	v.SetDefault("resolver.cache_size", 4096)

	v.SetDefault("classifier.tolerance", catalog.DefaultTolerance)

	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")
}

// Tuning returns the resolver and classifier constants.
func (c *Config) Tuning() catalog.Tuning {
	return catalog.Tuning{
		Threshold: c.Resolver.Threshold,
		Margin:    c.Resolver.Margin,
		Tolerance: c.Classifier.Tolerance,
	}
}

// Validate rejects values outside their meaningful range.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("%w: database.driver %q is not postgres or sqlite", ErrInvalidConfig, c.Database.Driver)
	}

	if c.Database.MaxConns < 1 {
		return fmt.Errorf("%w: database.max_conns must be positive", ErrInvalidConfig)
	}

	if c.Pipeline.MaxUploadBytes < 1 {
		return fmt.Errorf("%w: pipeline.max_upload_bytes must be positive", ErrInvalidConfig)
	}

	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > 256 {
		return fmt.Errorf("%w: pipeline.workers %d not in [1, 256]", ErrInvalidConfig, c.Pipeline.Workers)
	}

	if c.Resolver.CacheSize < 0 {
		return fmt.Errorf("%w: resolver.cache_size must not be negative", ErrInvalidConfig)
	}

	if err := c.Tuning().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d", ErrInvalidConfig, c.Server.Port)
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level %q", ErrInvalidConfig, c.Log.Level)
	}

	return nil
}
