// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/AgentWorkforce/fleetrelay/internal/reconnect"
)

const defaultHandshakeTimeout = 10 * time.Second

// Dialer produces upstream WebSocket transports for a reconnect.Link.
type Dialer struct {
	// URL is the upstream daemon's WebSocket endpoint.
	URL string

	// HandshakeTimeout bounds the WebSocket handshake.
	// Defaults to 10 seconds.
	HandshakeTimeout time.Duration
}

// Dial implements reconnect.Factory.
func (d Dialer) Dial(ctx context.Context) (reconnect.Transport, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	conn, resp, err := dialer.DialContext(ctx, d.URL, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsTransport{conn: conn}, nil
}

// wsTransport adapts a gorilla connection to reconnect.Transport.
// Writes are serialized; gorilla permits one concurrent writer only.
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (t *wsTransport) Send(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *wsTransport) Receive() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
