// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package models

import "errors"

// BroadcastTarget is the sentinel recipient meaning "everyone in the channel".
const BroadcastTarget = "*"

// ErrMissingFrameType is returned when a decoded frame has no type field.
var ErrMissingFrameType = errors.New("frame missing type")

// DirectedMessage is one entry of a conversation history as materialized by
// the dashboard's fetch layer. It is the input shape for the attention
// computation and is never stored by the gateway itself.
type DirectedMessage struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Timestamp   string `json:"timestamp"` // ISO-8601
	Thread      string `json:"thread,omitempty"`
	Body        string `json:"body,omitempty"`
	IsBroadcast bool   `json:"isBroadcast,omitempty"`
}

// Broadcast reports whether the message is addressed to the whole channel.
func (m DirectedMessage) Broadcast() bool {
	return m.IsBroadcast || m.To == BroadcastTarget
}
