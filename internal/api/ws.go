// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/models"
	"github.com/AgentWorkforce/fleetrelay/internal/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin policy is enforced by the CORS layer in front; the upgrade
	// itself accepts any origin so local dashboards work out of the box.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocket upgrades the connection and attaches it to the gateway.
// An optional since_id query parameter seeds the client from that replay
// cursor instead of the full retained window, so a reconnecting dashboard
// receives exactly the frames it missed.
func (rt *Router) WebSocket(w http.ResponseWriter, r *http.Request) {
	var lastSeen uint64
	if raw := r.URL.Query().Get("since_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "since_id must be an unsigned integer")
			return
		}
		lastSeen = parsed
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("websocket upgrade error")
		return
	}

	session := transport.NewSession(conn)
	rt.gateway.Attach(session, lastSeen)
	session.Run(
		func(frame models.Frame) { rt.gateway.HandleClientFrame(session, frame) },
		func() { rt.gateway.Detach(session) },
	)
}
