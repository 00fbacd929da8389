// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package supervisor builds the suture supervision tree for the gateway:
// a relay layer (gateway run loop, mock generator) and an API layer (HTTP
// server), isolated so a crash in one restarts without disturbing the
// other.
package supervisor
