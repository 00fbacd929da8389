// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package config loads gateway configuration via Koanf v2 with layered
// sources: built-in defaults, an optional YAML file, then environment
// variables. The merged result is validated before use.
package config
