// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package config loads the device configuration from file and environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the CLI needs to reach the API and the local
// database.
type Config struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	DBPath         string        `mapstructure:"db_path"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	LogFile        string        `mapstructure:"log_file"`
}

// Load reads configuration from the given file (optional), falling back to
// a fieldsync.yaml in the working directory, then environment variables with
// the FIELDSYNC_ prefix, then defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("api_base_url", "")
	v.SetDefault("db_path", "fieldsync.db")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("log_file", "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("fieldsync")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("FIELDSYNC")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// An explicitly named file must exist; the default one is optional.
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("api_base_url must be configured")
	}
	return &cfg, nil
}
