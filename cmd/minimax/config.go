// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the command line configuration, read from a YAML file.
//
type Config struct {
	LogLevel    string `yaml:"log_level" validate:"oneof=debug info warn error"`
	MaxUpdates  int    `yaml:"max_updates" validate:"gte=0"`
	MetricsAddr string `yaml:"metrics_addr,omitempty" validate:"omitempty,hostname_port"`
	TraceDB     string `yaml:"trace_db,omitempty"`
	StepLimit   uint64 `yaml:"step_limit"`
	Machine     string `yaml:"machine,omitempty" validate:"omitempty,file"`
}

// DefaultConfig returns the configuration used when no file exists.
//
func DefaultConfig() Config {
	return Config{
		LogLevel:  "info",
		StepLimit: 1 << 20,
	}
}

// LoadConfig reads the configuration file at path. Fields missing from the
// file keep their default value. A missing file yields the default
// configuration.
//
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, errors.Wrap(err, "read configuration")
	}
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parse configuration %s", path)
	}
	if err = cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return errors.Wrap(validator.New().Struct(c), "invalid configuration")
}

// Level returns the configured log level.
//
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
