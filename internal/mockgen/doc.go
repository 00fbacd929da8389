// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package mockgen feeds the gateway with synthetic agent chat and status
// frames when no upstream daemon is configured, so the dashboard can be
// developed and demoed against a live-looking stream.
package mockgen
