// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package reconnect

// State is the connection state of a Link.
type State int

const (
	// StateDisconnected is the initial and terminal state; the link does
	// nothing until Start is called.
	StateDisconnected State = iota

	// StateConnecting means a transport dial is in flight.
	StateConnecting

	// StateConnected means the transport is live and frames flow.
	StateConnected

	// StateReconnecting means the link is waiting out a backoff delay
	// before the next dial.
	StateReconnecting
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// event drives the link state machine.
type event int

const (
	eventStart event = iota
	eventDialOK
	eventDialFail
	eventTransportClosed
	eventRetryElapsed
	eventStop
	eventNudge
)

// transition is the pure state-machine core: given the current state and
// an event it yields the next state and whether the event is valid in the
// current state. Side effects (timers, dials, callbacks) live in Link.
func transition(s State, e event) (State, bool) {
	switch e {
	case eventStop:
		// Stop is unconditional from every state.
		return StateDisconnected, true
	case eventStart:
		if s == StateDisconnected {
			return StateConnecting, true
		}
	case eventDialOK:
		if s == StateConnecting {
			return StateConnected, true
		}
	case eventDialFail:
		if s == StateConnecting {
			return StateReconnecting, true
		}
	case eventTransportClosed:
		if s == StateConnected {
			return StateReconnecting, true
		}
	case eventRetryElapsed:
		if s == StateReconnecting {
			return StateConnecting, true
		}
	case eventNudge:
		// Out-of-band reconnect is a no-op while already connecting or
		// connected.
		if s == StateDisconnected || s == StateReconnecting {
			return StateConnecting, true
		}
	}
	return s, false
}
