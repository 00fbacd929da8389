// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/AgentWorkforce/fleetrelay/internal/reconnect"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 8701 {
		t.Errorf("server defaults = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Upstream.Mode != "mock" {
		t.Errorf("default mode = %q, want mock", cfg.Upstream.Mode)
	}
	if cfg.Upstream.Data != reconnect.SlowProfile() {
		t.Errorf("data backoff = %+v, want slow profile", cfg.Upstream.Data)
	}
	if cfg.Upstream.Presence != reconnect.FastProfile() {
		t.Errorf("presence backoff = %+v, want fast profile", cfg.Upstream.Presence)
	}
	if cfg.Buffer.Capacity != 500 {
		t.Errorf("buffer capacity = %d, want 500", cfg.Buffer.Capacity)
	}
	if cfg.Mock.Rate != 2 {
		t.Errorf("mock rate = %v, want 2", cfg.Mock.Rate)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("RELAY_PORT", "9100")
	t.Setenv("RELAY_CORS_ORIGINS", "https://fleet.example.com, https://staging.example.com")
	t.Setenv("UPSTREAM_MODE", "relay")
	t.Setenv("UPSTREAM_URL", "ws://daemon:9200/ws")
	t.Setenv("UPSTREAM_BACKOFF_BASE", "2s")
	t.Setenv("UPSTREAM_BACKOFF_CAP", "1m")
	t.Setenv("BUFFER_CAPACITY", "1000")
	t.Setenv("MOCK_AGENTS", "alpha,beta")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want 9100", cfg.Server.Port)
	}
	wantOrigins := []string{"https://fleet.example.com", "https://staging.example.com"}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, wantOrigins) {
		t.Errorf("cors origins = %v, want %v", cfg.Server.CORSOrigins, wantOrigins)
	}
	if cfg.Upstream.Mode != "relay" || cfg.Upstream.URL != "ws://daemon:9200/ws" {
		t.Errorf("upstream = %s %s", cfg.Upstream.Mode, cfg.Upstream.URL)
	}
	if cfg.Upstream.Data.Base != 2*time.Second || cfg.Upstream.Data.Cap != time.Minute {
		t.Errorf("data backoff = %+v", cfg.Upstream.Data)
	}
	if cfg.Buffer.Capacity != 1000 {
		t.Errorf("buffer capacity = %d, want 1000", cfg.Buffer.Capacity)
	}
	if !reflect.DeepEqual(cfg.Mock.Agents, []string{"alpha", "beta"}) {
		t.Errorf("mock agents = %v", cfg.Mock.Agents)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 8800
  cors_origins:
    - https://fleet.example.com
buffer:
  capacity: 250
mock:
  rate: 5
`)
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8800 {
		t.Errorf("port = %d, want 8800", cfg.Server.Port)
	}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, []string{"https://fleet.example.com"}) {
		t.Errorf("cors origins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Buffer.Capacity != 250 {
		t.Errorf("buffer capacity = %d, want 250", cfg.Buffer.Capacity)
	}
	if cfg.Mock.Rate != 5 {
		t.Errorf("mock rate = %v, want 5", cfg.Mock.Rate)
	}
	// Untouched sections keep their defaults.
	if cfg.Upstream.Mode != "mock" {
		t.Errorf("mode = %q, want default mock", cfg.Upstream.Mode)
	}
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := writeConfigFile(t, "server:\n  port: 8800\n")
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("RELAY_PORT", "9300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9300 {
		t.Errorf("port = %d, env should override file", cfg.Server.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"RELAY_PORT": "70000"}},
		{"zero buffer capacity", map[string]string{"BUFFER_CAPACITY": "0"}},
		{"unknown mode", map[string]string{"UPSTREAM_MODE": "proxy"}},
		{"relay mode without url", map[string]string{"UPSTREAM_MODE": "relay"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("Load() accepted invalid configuration")
			}
		})
	}
}

func TestServerConfigAddr(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 8701}
	if got := s.Addr(); got != "127.0.0.1:8701" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"RELAY_PORT", "server.port"},
		{"relay_port", "server.port"},
		{"UPSTREAM_URL", "upstream.url"},
		{"PATH", ""},
		{"UNRELATED_VAR", ""},
	}

	for _, tt := range tests {
		if got := envTransform(tt.key); got != tt.want {
			t.Errorf("envTransform(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}
