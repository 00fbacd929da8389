// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package models defines the wire shapes shared across the gateway:
// transport frames, catchup cursors, and the directed-message shape
// consumed by the attention computation.
package models
