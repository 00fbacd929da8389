// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package api provides the HTTP surface around the gateway core: health,
// the WebSocket attach point, buffer-backed catchup, the attention
// computation, and Prometheus metrics, routed with Chi.
package api
