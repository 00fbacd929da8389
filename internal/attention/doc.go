// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

// Package attention computes which conversation participants currently owe
// a reply, given an ordered message history. It is a pure reducer with no
// persistent state; the dashboard calls it to render indicator badges.
package attention
