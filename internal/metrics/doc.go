// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

/*
Package metrics provides Prometheus metrics collection and export for
observability.

Metrics cover the relay path (frames relayed and dropped by direction),
the replay ring buffer (size, evictions, replay request volume), the
reconnecting upstream link (state, connect attempts), the upstream
circuit breaker, the mock generator, and the HTTP API surface.

Metrics are exposed at the /metrics endpoint in Prometheus text format.
*/
package metrics
