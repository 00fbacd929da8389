// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

/*
Package relay composes the gateway core: one upstream reconnecting link,
the shared sequenced ring buffer, and the set of attached dashboard
clients.

Inbound frames from the upstream leg (or the mock generator) are pushed
into the ring buffer, stamped with their sequence id, and fanned out to
every attached client. Outbound frames from a client are forwarded to the
upstream leg verbatim, fire-and-forget, behind a circuit breaker; when
the upstream is down they are dropped and logged.

Failure isolation is strict in both directions: an upstream disconnect
never closes client connections (clients just stop receiving fresh frames
until the link redials), and client churn never affects the upstream leg
or other clients.
*/
package relay
