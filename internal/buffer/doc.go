// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

/*
Package buffer implements the sequenced ring buffer that bridges client
reconnect gaps.

Every frame the gateway relays is pushed here with a monotonically
increasing id and a millisecond timestamp. A client that drops its
WebSocket and comes back asks for everything after its last-seen cursor
(id or timestamp) and receives the retained records in id order.

The buffer is volatile and bounded (default 500 records). It is a
best-effort short-gap bridge, not a durable log: a cursor older than the
retained window silently under-delivers, and callers must treat a replay
that starts "too late" as unrecoverable loss rather than a fault.
*/
package buffer
