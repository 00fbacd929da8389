// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

/*
Package reconnect implements a transport-agnostic reconnecting link.

A Link wraps a single logical connection: it dials through a caller
supplied factory, pumps inbound frames to a callback, and when the
transport drops it schedules the next dial on an exponential backoff
schedule with jitter. The state machine core is a pure function of
(state, event), kept separate from the timer and dial side effects so
transitions are testable without a socket.

Transport failures are never surfaced as hard errors; callers observe
them only as state transitions. Stop is the sole cancellation primitive
and is safe from any state, including concurrently with an in-flight
dial. A generation counter discards late dial completions so a stopped
link cannot be revived by a straggling connect.
*/
package reconnect
