// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package api

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/AgentWorkforce/fleetrelay/internal/attention"
	"github.com/AgentWorkforce/fleetrelay/internal/buffer"
	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/models"
)

// healthData is the payload of the health endpoint.
type healthData struct {
	Status        string `json:"status"`
	Mode          string `json:"mode"`
	UpstreamState string `json:"upstream_state"`
	Clients       int    `json:"clients"`
	BufferSize    int    `json:"buffer_size"`
	BufferCap     int    `json:"buffer_capacity"`
	CurrentID     uint64 `json:"current_id"`
}

// Health reports gateway status: mode, upstream link state, attached
// clients, and buffer occupancy.
func (rt *Router) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, healthData{
		Status:        "ok",
		Mode:          string(rt.gateway.Mode()),
		UpstreamState: rt.gateway.UpstreamState().String(),
		Clients:       rt.gateway.ClientCount(),
		BufferSize:    rt.gateway.Buffer().Len(),
		BufferCap:     rt.gateway.Buffer().Capacity(),
		CurrentID:     rt.gateway.Buffer().CurrentID(),
	})
}

// HealthLive is the liveness probe.
func (rt *Router) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe. The gateway is ready as soon as the
// relay loop runs; a down upstream is a degraded state the dashboard
// renders, not a reason to pull the gateway from rotation.
func (rt *Router) HealthReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ready"})
}

// catchupData is the payload of the catchup endpoint.
type catchupData struct {
	Frames    []models.Frame `json:"frames"`
	CurrentID uint64         `json:"current_id"`
}

// Catchup serves a buffer-backed replay over REST, for clients that want
// to re-seed outside the WebSocket. Cursor is since_id or since_ts
// (milliseconds); since_id wins when both are given. A cursor older than
// the retained window silently under-delivers.
func (rt *Router) Catchup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var sinceID uint64
	var sinceTS int64
	var err error
	if raw := q.Get("since_id"); raw != "" {
		if sinceID, err = strconv.ParseUint(raw, 10, 64); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "since_id must be an unsigned integer")
			return
		}
	}
	if raw := q.Get("since_ts"); raw != "" {
		if sinceTS, err = strconv.ParseInt(raw, 10, 64); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "since_ts must be a millisecond timestamp")
			return
		}
	}

	buf := rt.gateway.Buffer()
	var records []buffer.Record
	if sinceID == 0 && sinceTS > 0 {
		records = buf.GetAfterTimestamp(sinceTS)
	} else {
		records = buf.GetAfter(sinceID)
	}

	frames := make([]models.Frame, 0, len(records))
	for _, rec := range records {
		frames = append(frames, models.Frame{
			Type:      rec.Kind,
			Seq:       rec.ID,
			Timestamp: rec.Timestamp,
			Data:      rec.Payload,
		})
	}
	respondJSON(w, r, http.StatusOK, catchupData{Frames: frames, CurrentID: buf.CurrentID()})
}

// attentionRequest is the body of the attention endpoint.
type attentionRequest struct {
	Messages []models.DirectedMessage `json:"messages"`

	// Now optionally pins the evaluation instant (RFC3339), mainly for
	// reproducible dashboard tests.
	Now string `json:"now,omitempty"`

	// Local names the caller's own participant, who is never flagged.
	// Defaults to the dashboard operator name.
	Local string `json:"local,omitempty"`
}

// attentionData is the payload of the attention endpoint.
type attentionData struct {
	NeedsAttention []string `json:"needs_attention"`
}

// Attention computes which participants have an unanswered inbound
// message within the trailing window, from the message history the
// caller materialized. Malformed individual messages are skipped, never
// an error.
func (rt *Router) Attention(w http.ResponseWriter, r *http.Request) {
	var req attentionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	now := time.Now()
	if req.Now != "" {
		parsed, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "now must be RFC3339")
			return
		}
		now = parsed
	}

	local := req.Local
	if local == "" {
		local = attention.DefaultLocal
	}

	set := attention.Compute(req.Messages, now, local)
	participants := make([]string, 0, len(set))
	for p := range set {
		participants = append(participants, p)
	}
	sort.Strings(participants)

	logging.Debug().
		Int("messages", len(req.Messages)).
		Int("flagged", len(participants)).
		Msg("attention computed")
	respondJSON(w, r, http.StatusOK, attentionData{NeedsAttention: participants})
}
