// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package models

import (
	"github.com/goccy/go-json"
)

// Frame types exchanged between browser clients, the gateway, and the
// upstream agent daemon. The gateway relays most of these verbatim; only
// ping/pong and catchup are answered locally.
const (
	FrameTypeChat        = "chat"
	FrameTypeAgentStatus = "agent_status"
	FrameTypePresence    = "presence"
	FrameTypePing        = "ping"
	FrameTypePong        = "pong"
	FrameTypeCatchup     = "catchup"
	FrameTypeCatchupEnd  = "catchup_end"
)

// Frame is the envelope for every message unit crossing a transport leg.
//
// Seq and Timestamp are assigned by the gateway when the frame passes
// through the ring buffer; frames originating from a client carry Seq 0.
// Data is kept raw so the gateway never needs to understand payloads it
// only relays.
type Frame struct {
	Type      string          `json:"type"`
	Seq       uint64          `json:"seq,omitempty"`
	Timestamp int64           `json:"ts,omitempty"` // milliseconds since epoch
	Data      json.RawMessage `json:"data,omitempty"`
}

// DecodeFrame parses raw transport bytes into a Frame.
// A frame without a type is rejected so the relay loop can drop it early.
func DecodeFrame(raw []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Frame{}, err
	}
	if f.Type == "" {
		return Frame{}, ErrMissingFrameType
	}
	return f, nil
}

// Encode serializes the frame for transport.
func (f Frame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// CatchupRequest is the payload of a FrameTypeCatchup frame sent by a
// client that wants a buffer-backed replay. Exactly one cursor should be
// set; SinceID wins when both are present.
type CatchupRequest struct {
	SinceID uint64 `json:"since_id,omitempty"`
	SinceTS int64  `json:"since_ts,omitempty"` // milliseconds since epoch
}
