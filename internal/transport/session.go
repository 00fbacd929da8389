// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package transport

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024 // 512 KB
)

// sessionIDCounter generates unique, monotonically increasing session ids.
// Ids give the gateway a stable fan-out order.
var sessionIDCounter atomic.Uint64

// Session is the gateway-side handle for one connected dashboard client.
// It owns the read and write pumps for the underlying WebSocket and
// exposes a non-blocking Send with a drop-on-full policy: a client that
// cannot drain its queue loses frames rather than stalling the relay loop.
type Session struct {
	id   uint64
	conn *websocket.Conn
	send chan models.Frame

	quit     chan struct{}
	stopOnce sync.Once
}

// NewSession wraps an upgraded WebSocket connection.
func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		id:   sessionIDCounter.Add(1),
		conn: conn,
		send: make(chan models.Frame, 256),
		quit: make(chan struct{}),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() uint64 {
	return s.id
}

// Send queues a frame for delivery. Returns false when the session's send
// queue is full or the session is stopped; the frame is dropped in that
// case.
func (s *Session) Send(frame models.Frame) bool {
	select {
	case <-s.quit:
		return false
	default:
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// Stop terminates the write pump and closes the connection. Idempotent.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
}

// Run starts the pumps. onFrame is called for every decoded inbound frame;
// onClose is called exactly once when the read side terminates for any
// reason. Ping frames are answered locally and not passed to onFrame.
func (s *Session) Run(onFrame func(models.Frame), onClose func()) {
	go s.writePump()
	go s.readPump(onFrame, onClose)
}

// readPump pumps frames from the WebSocket toward the gateway.
func (s *Session) readPump(onFrame func(models.Frame), onClose func()) {
	defer func() {
		onClose()
		s.Stop()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logging.Warn().Err(err).Uint64("session", s.id).Msg("unexpected websocket close")
			}
			return
		}

		frame, err := models.DecodeFrame(raw)
		if err != nil {
			// Malformed payloads are dropped at the point of decode; they
			// never close the connection.
			logging.Warn().Err(err).Uint64("session", s.id).Msg("dropping undecodable client frame")
			continue
		}

		if frame.Type == models.FrameTypePing {
			s.Send(models.Frame{Type: models.FrameTypePong})
			continue
		}
		onFrame(frame)
	}
}

// writePump pumps frames from the gateway toward the WebSocket.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}
			if err := s.conn.WriteJSON(frame); err != nil {
				logging.Warn().Err(err).Uint64("session", s.id).Msg("failed to write frame")
				return
			}

		case <-s.quit:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
