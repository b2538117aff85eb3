// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates DepositFlow service configuration.
//
// Configuration is a single YAML file validated with struct tags. Every
// field has a sensible default so an empty file (or no file at all) still
// produces a runnable service. A companion Watcher re-loads the file on
// change for settings that can apply at runtime, such as the autosave
// interval.
//
// Thread Safety:
//
//	Load returns an independent value; concurrent loads are safe. The
//	Watcher serializes its callbacks.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// MaxConfigFileSize caps the YAML file size (1MB) to avoid loading
// runaway files into memory.
const MaxConfigFileSize = 1024 * 1024

// Duration wraps time.Duration so YAML values like "90s" or "5m"
// decode with time.ParseDuration semantics.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the root configuration for the depositd service.
type Config struct {
	// Server configures the debug/metrics HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Repository configures the upstream repository REST API.
	Repository RepositoryConfig `yaml:"repository"`

	// Autosave configures the background save trigger.
	Autosave AutosaveConfig `yaml:"autosave"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the local HTTP listener.
type ServerConfig struct {
	// Addr is the listen address for /healthz, /metrics and the state
	// debug endpoint.
	Addr string `yaml:"addr" validate:"required"`
}

// RepositoryConfig configures the upstream repository connection.
type RepositoryConfig struct {
	// WorkspaceItemsURL is the collection endpoint for in-progress
	// submissions.
	WorkspaceItemsURL string `yaml:"workspaceitems_url" validate:"required,url"`

	// WorkflowItemsURL is the collection endpoint for submissions under
	// review.
	WorkflowItemsURL string `yaml:"workflowitems_url" validate:"required,url"`

	// RequestTimeout bounds each REST round-trip.
	RequestTimeout Duration `yaml:"request_timeout" validate:"min=0"`

	// RateLimitPerSecond throttles outbound requests. Zero disables
	// throttling.
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second" validate:"min=0"`
}

// AutosaveConfig configures the periodic background save.
type AutosaveConfig struct {
	// Interval between automatic saves. Zero disables autosave.
	Interval Duration `yaml:"interval" validate:"min=0"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir enables file logging when non-empty.
	Dir string `yaml:"dir"`

	// JSON switches stderr output to JSON format.
	JSON bool `yaml:"json"`
}

var validate = validator.New()

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8490",
		},
		Repository: RepositoryConfig{
			WorkspaceItemsURL:  "http://localhost:8080/server/api/submission/workspaceitems",
			WorkflowItemsURL:   "http://localhost:8080/server/api/workflow/workflowitems",
			RequestTimeout:     Duration(30 * time.Second),
			RateLimitPerSecond: 10,
		},
		Autosave: AutosaveConfig{
			Interval: Duration(5 * time.Minute),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the YAML file at path, applies defaults for absent fields,
// and validates the result. An empty path returns DefaultConfig.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return cfg, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > MaxConfigFileSize {
		return cfg, fmt.Errorf("config file exceeds %d bytes", MaxConfigFileSize)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks all struct-level constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
