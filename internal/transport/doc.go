// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package transport carries frames over gorilla WebSocket connections for
// both relay legs: Session wraps an upgraded client connection with
// read/write pumps and keepalive deadlines, and Dialer produces upstream
// transports for the reconnecting link.
package transport
