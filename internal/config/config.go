// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/reconnect"
)

// Config is the full gateway configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Buffer   BufferConfig   `koanf:"buffer"`
	Mock     MockConfig     `koanf:"mock"`
	Logging  logging.Config `koanf:"logging"`
}

// ServerConfig configures the HTTP/WebSocket listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists allowed dashboard origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimit is the per-IP request budget per minute for API routes.
	RateLimit int `koanf:"rate_limit" validate:"min=1"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UpstreamConfig configures the upstream daemon leg.
type UpstreamConfig struct {
	// Mode selects "relay" (proxy a real daemon) or "mock" (synthetic
	// frames, no upstream leg).
	Mode string `koanf:"mode" validate:"oneof=relay mock"`

	// URL is the daemon's WebSocket endpoint. Required in relay mode.
	URL string `koanf:"url"`

	// PresenceURL is the daemon's separate presence endpoint. Optional;
	// when empty, no presence leg is dialed.
	PresenceURL string `koanf:"presence_url"`

	// HandshakeTimeout bounds the WebSocket handshake on each dial.
	HandshakeTimeout time.Duration `koanf:"handshake_timeout"`

	// Data is the backoff schedule for the main data link.
	Data reconnect.Policy `koanf:"data"`

	// Presence is the faster schedule used for presence/channel links.
	Presence reconnect.Policy `koanf:"presence"`
}

// BufferConfig configures the replay ring buffer.
type BufferConfig struct {
	Capacity int `koanf:"capacity" validate:"min=1"`
}

// MockConfig configures the synthetic frame generator.
type MockConfig struct {
	Rate   float64  `koanf:"rate" validate:"min=0"`
	Agents []string `koanf:"agents"`
	Seed   int64    `koanf:"seed"`
}

// defaultConfig returns a Config with all defaults applied. Defaults are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8701,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       600,
		},
		Upstream: UpstreamConfig{
			Mode:             "mock", // runs standalone out of the box
			URL:              "",
			HandshakeTimeout: 10 * time.Second,
			Data:             reconnect.SlowProfile(),
			Presence:         reconnect.FastProfile(),
		},
		Buffer: BufferConfig{
			Capacity: 500,
		},
		Mock: MockConfig{
			Rate:   2,
			Agents: nil, // mockgen falls back to its fixture names
			Seed:   0,
		},
		Logging: logging.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if c.Upstream.Mode == "relay" && c.Upstream.URL == "" {
		return fmt.Errorf("upstream.url is required in relay mode")
	}
	return nil
}
