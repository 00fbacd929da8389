// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package main is the entry point for the FleetRelay gateway.
//
// FleetRelay sits between a browser dashboard and an upstream AI coding
// agent daemon. It relays frames in both directions over WebSocket,
// buffers everything that passes through so reconnecting clients can
// replay exactly the frames they missed, and answers which conversation
// participants currently owe a reply.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered loading (defaults, YAML, env)
//  2. Logging: process-wide zerolog sink
//  3. Gateway: ring buffer, upstream reconnecting link or mock generator
//  4. Supervisor tree: relay layer and API layer under suture
//  5. HTTP server: health, WebSocket attach, catchup, attention, metrics
//
// # Modes
//
// Relay mode proxies a real daemon:
//
//	export UPSTREAM_MODE=relay
//	export UPSTREAM_URL=ws://agentd:9300/stream
//	./fleetrelay
//
// Mock mode (the default) serves a synthetic stream with no upstream:
//
//	./fleetrelay
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests, the relay loop closes attached clients, and the
// upstream link cancels any pending reconnect timer.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AgentWorkforce/fleetrelay/internal/api"
	"github.com/AgentWorkforce/fleetrelay/internal/config"
	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/mockgen"
	"github.com/AgentWorkforce/fleetrelay/internal/reconnect"
	"github.com/AgentWorkforce/fleetrelay/internal/relay"
	"github.com/AgentWorkforce/fleetrelay/internal/supervisor"
	"github.com/AgentWorkforce/fleetrelay/internal/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging)
	logging.Info().
		Str("mode", cfg.Upstream.Mode).
		Str("addr", cfg.Server.Addr()).
		Int("buffer_capacity", cfg.Buffer.Capacity).
		Msg("Starting FleetRelay")

	gateway := relay.New(relay.Config{
		Mode:           relay.Mode(cfg.Upstream.Mode),
		BufferCapacity: cfg.Buffer.Capacity,
	})

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	switch relay.Mode(cfg.Upstream.Mode) {
	case relay.ModeRelay:
		dialer := transport.Dialer{
			URL:              cfg.Upstream.URL,
			HandshakeTimeout: cfg.Upstream.HandshakeTimeout,
		}
		link := reconnect.NewLink(reconnect.Options{
			Name:    "upstream-data",
			Dial:    dialer.Dial,
			Backoff: cfg.Upstream.Data,
			OnFrame: gateway.HandleUpstreamPayload,
		})
		gateway.AttachUpstream(link)

		if cfg.Upstream.PresenceURL != "" {
			presenceDialer := transport.Dialer{
				URL:              cfg.Upstream.PresenceURL,
				HandshakeTimeout: cfg.Upstream.HandshakeTimeout,
			}
			presence := reconnect.NewLink(reconnect.Options{
				Name:    "upstream-presence",
				Dial:    presenceDialer.Dial,
				Backoff: cfg.Upstream.Presence,
				OnFrame: gateway.HandleUpstreamPayload,
			})
			tree.AddRelayService(reconnect.NewService(presence))
		}
		logging.Info().Str("upstream_url", cfg.Upstream.URL).Msg("Relay mode: proxying upstream daemon")

	case relay.ModeMock:
		generator := mockgen.New(gateway, mockgen.Config{
			FramesPerSecond: cfg.Mock.Rate,
			Agents:          cfg.Mock.Agents,
			Seed:            cfg.Mock.Seed,
		})
		tree.AddRelayService(generator)
		logging.Info().Msg("Mock mode: serving synthetic frames, no upstream leg")
	}

	tree.AddRelayService(gateway)

	router := api.NewRouter(gateway, cfg)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Msg("Supervisor tree starting")
	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
		os.Exit(1)
	}
	logging.Info().Msg("Shutdown complete")
}
