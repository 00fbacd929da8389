// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/fleetrelay/config.yaml",
	"/etc/fleetrelay/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load loads configuration with layered sources (highest priority wins):
//
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	processSliceFields(k)

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps environment variable names to koanf config paths.
// Only listed variables are honored, so unrelated environment noise never
// leaks into the configuration.
var envMappings = map[string]string{
	"RELAY_HOST":             "server.host",
	"RELAY_PORT":             "server.port",
	"RELAY_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"RELAY_CORS_ORIGINS":     "server.cors_origins",
	"RELAY_RATE_LIMIT":       "server.rate_limit",

	"UPSTREAM_MODE":              "upstream.mode",
	"UPSTREAM_URL":               "upstream.url",
	"UPSTREAM_PRESENCE_URL":      "upstream.presence_url",
	"UPSTREAM_HANDSHAKE_TIMEOUT": "upstream.handshake_timeout",
	"UPSTREAM_BACKOFF_BASE":      "upstream.data.base",
	"UPSTREAM_BACKOFF_CAP":       "upstream.data.cap",
	"PRESENCE_BACKOFF_BASE":      "upstream.presence.base",
	"PRESENCE_BACKOFF_CAP":       "upstream.presence.cap",

	"BUFFER_CAPACITY": "buffer.capacity",

	"MOCK_RATE":   "mock.rate",
	"MOCK_AGENTS": "mock.agents",
	"MOCK_SEED":   "mock.seed",

	"LOG_LEVEL":  "logging.level",
	"LOG_FORMAT": "logging.format",
	"LOG_CALLER": "logging.caller",
}

// envTransform maps an environment variable to its koanf path, or drops
// it by returning an empty string.
func envTransform(key string) string {
	if path, ok := envMappings[strings.ToUpper(key)]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths are the paths parsed as comma-separated slices when
// they arrive as plain strings from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"mock.agents",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields; values already parsed as slices (from YAML) are
// left alone.
func processSliceFields(k *koanf.Koanf) {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		_ = k.Set(path, parts)
	}
}
