// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package relay

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/AgentWorkforce/fleetrelay/internal/buffer"
	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/metrics"
	"github.com/AgentWorkforce/fleetrelay/internal/models"
	"github.com/AgentWorkforce/fleetrelay/internal/reconnect"
)

// Mode selects where gateway frames come from.
type Mode string

const (
	// ModeRelay proxies a real upstream agent daemon.
	ModeRelay Mode = "relay"

	// ModeMock serves synthetic frames with no upstream leg.
	ModeMock Mode = "mock"
)

// Client is the gateway's view of one attached dashboard connection.
// Satisfied by *transport.Session.
type Client interface {
	ID() uint64
	// Send queues a frame; false means the client could not take it.
	Send(models.Frame) bool
	// Stop tears the client's transport down. Idempotent.
	Stop()
}

// Config holds gateway construction parameters.
type Config struct {
	Mode           Mode
	BufferCapacity int
}

type registration struct {
	client   Client
	lastSeen uint64
}

// Gateway relays frames between dashboard clients and the upstream agent
// daemon, buffering everything that passes through for reconnect replay.
//
// A single run loop owns the client set and all buffer pushes, so the
// attach-time seed read and live-subscription registration are atomic with
// respect to new frames: no frame is both in the seed and skipped from the
// live feed, and none is delivered twice within an attach session.
//
// Client-originated frames bypass the run loop: forwarding upstream can
// block on the network and must not stall fan-out.
type Gateway struct {
	mode     Mode
	buf      *buffer.Ring
	upstream *reconnect.Link
	breaker  *gobreaker.CircuitBreaker[struct{}]

	register   chan registration
	unregister chan Client
	inbound    chan models.Frame

	mu      sync.RWMutex
	clients map[uint64]Client
}

// New creates a gateway. In ModeRelay, AttachUpstream must be called
// before Serve.
func New(cfg Config) *Gateway {
	g := &Gateway{
		mode:       cfg.Mode,
		buf:        buffer.New(cfg.BufferCapacity),
		register:   make(chan registration),
		unregister: make(chan Client),
		inbound:    make(chan models.Frame, 256),
		clients:    make(map[uint64]Client),
	}
	g.breaker = newUpstreamBreaker()
	return g
}

// AttachUpstream wires the upstream reconnecting link. The link should
// have been built with HandleUpstreamPayload as its OnFrame callback.
func (g *Gateway) AttachUpstream(link *reconnect.Link) {
	g.upstream = link
}

// Mode returns the configured gateway mode.
func (g *Gateway) Mode() Mode {
	return g.mode
}

// Buffer exposes the ring buffer for replay reads.
func (g *Gateway) Buffer() *buffer.Ring {
	return g.buf
}

// UpstreamState reports the upstream link state. Mock mode has no
// upstream leg and always reports disconnected.
func (g *Gateway) UpstreamState() reconnect.State {
	if g.upstream == nil {
		return reconnect.StateDisconnected
	}
	return g.upstream.State()
}

// ClientCount returns the number of attached clients.
func (g *Gateway) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// Attach registers a client. The client is first seeded with every
// buffered frame after lastSeen (0 means the full retained window), then
// receives the live feed with no gap or duplicate at the boundary.
func (g *Gateway) Attach(c Client, lastSeen uint64) {
	g.register <- registration{client: c, lastSeen: lastSeen}
}

// Detach removes a client from the fan-out set and stops it. Idempotent;
// detaching an unknown client is a no-op.
func (g *Gateway) Detach(c Client) {
	g.unregister <- c
}

// Publish injects a frame into the relay: pushed into the ring buffer,
// stamped with its sequence id, then fanned out to attached clients. This
// is the entry point for decoded upstream frames and for the mock
// generator. Drops (with a log) when the relay loop is saturated.
func (g *Gateway) Publish(frame models.Frame) {
	select {
	case g.inbound <- frame:
	default:
		metrics.FramesDropped.WithLabelValues("downstream", "relay_full").Inc()
		logging.Warn().Str("type", frame.Type).Msg("relay loop saturated, dropping frame")
	}
}

// HandleUpstreamPayload decodes raw upstream bytes and publishes the
// frame. Undecodable payloads are dropped and logged, never fatal.
func (g *Gateway) HandleUpstreamPayload(raw []byte) {
	frame, err := models.DecodeFrame(raw)
	if err != nil {
		metrics.FramesDropped.WithLabelValues("downstream", "decode").Inc()
		logging.Warn().Err(err).Msg("dropping undecodable upstream frame")
		return
	}
	g.Publish(frame)
}

// HandleClientFrame processes one frame received from a client: catchup
// requests are answered from the ring buffer, everything else is
// forwarded verbatim to the upstream leg. Outbound forwarding is
// fire-and-forget; when the upstream is down the frame is dropped and
// logged, there is no client-side queue.
func (g *Gateway) HandleClientFrame(c Client, frame models.Frame) {
	if frame.Type == models.FrameTypeCatchup {
		g.serveCatchup(c, frame)
		return
	}

	if g.upstream == nil {
		metrics.FramesDropped.WithLabelValues("upstream", "no_upstream").Inc()
		logging.Debug().Str("type", frame.Type).Msg("mock mode, dropping client frame")
		return
	}

	raw, err := frame.Encode()
	if err != nil {
		metrics.FramesDropped.WithLabelValues("upstream", "encode").Inc()
		logging.Warn().Err(err).Msg("dropping unencodable client frame")
		return
	}

	_, err = g.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, g.upstream.Send(raw)
	})
	if err != nil {
		reason := "upstream_down"
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			reason = "breaker_open"
		}
		metrics.FramesDropped.WithLabelValues("upstream", reason).Inc()
		logging.Warn().
			Err(err).
			Uint64("session", c.ID()).
			Str("type", frame.Type).
			Msg("upstream unavailable, dropping client frame")
		return
	}
	metrics.FramesRelayed.WithLabelValues("upstream", frame.Type).Inc()
}

// serveCatchup replays buffered frames to a single client. The replayed
// frames may overlap the live feed at the boundary; clients deduplicate on
// sequence id when merging.
func (g *Gateway) serveCatchup(c Client, frame models.Frame) {
	var req models.CatchupRequest
	if len(frame.Data) > 0 {
		if err := json.Unmarshal(frame.Data, &req); err != nil {
			logging.Warn().Err(err).Uint64("session", c.ID()).Msg("malformed catchup request")
			return
		}
	}

	var records []buffer.Record
	if req.SinceID > 0 || req.SinceTS == 0 {
		metrics.ReplayRequests.WithLabelValues("id").Inc()
		records = g.buf.GetAfter(req.SinceID)
	} else {
		metrics.ReplayRequests.WithLabelValues("timestamp").Inc()
		records = g.buf.GetAfterTimestamp(req.SinceTS)
	}
	metrics.ReplayRecords.Observe(float64(len(records)))

	for _, r := range records {
		c.Send(recordFrame(r))
	}
	c.Send(models.Frame{Type: models.FrameTypeCatchupEnd, Seq: g.buf.CurrentID()})

	logging.Debug().
		Uint64("session", c.ID()).
		Int("records", len(records)).
		Uint64("since_id", req.SinceID).
		Msg("served catchup replay")
}

// Serve runs the relay loop until the context is canceled. Implements
// suture.Service. In relay mode the upstream link's connect loop is
// started here and stopped on the way out.
//
// Selection is priority based, matching the rest of the codebase: shutdown
// first, then client lifecycle, then frame relay, so the client set is
// always settled before frames fan out.
func (g *Gateway) Serve(ctx context.Context) error {
	if g.upstream != nil {
		g.upstream.Start()
		defer g.upstream.Stop()
	}

	for {
		// Priority 1: shutdown.
		select {
		case <-ctx.Done():
			g.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle.
		select {
		case reg := <-g.register:
			g.handleRegister(reg)
			continue
		case c := <-g.unregister:
			g.handleUnregister(c)
			continue
		default:
		}

		// Priority 3: frame relay, or block until anything arrives.
		select {
		case <-ctx.Done():
			g.shutdown(ctx)
			return ctx.Err()
		case reg := <-g.register:
			g.handleRegister(reg)
		case c := <-g.unregister:
			g.handleUnregister(c)
		case frame := <-g.inbound:
			g.handlePublish(frame)
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (g *Gateway) String() string {
	return "relay-gateway"
}

// handleRegister seeds the client from the buffer and adds it to the
// fan-out set. Runs on the relay loop, so the seed snapshot and the
// subscription are atomic with respect to handlePublish.
func (g *Gateway) handleRegister(reg registration) {
	for _, r := range g.buf.GetAfter(reg.lastSeen) {
		reg.client.Send(recordFrame(r))
	}

	g.mu.Lock()
	g.clients[reg.client.ID()] = reg.client
	total := len(g.clients)
	g.mu.Unlock()

	metrics.ClientsActive.Set(float64(total))
	metrics.ClientAttachTotal.Inc()
	logging.Info().
		Uint64("session", reg.client.ID()).
		Uint64("last_seen", reg.lastSeen).
		Int("total_clients", total).
		Msg("client attached")
}

func (g *Gateway) handleUnregister(c Client) {
	g.mu.Lock()
	_, ok := g.clients[c.ID()]
	if ok {
		delete(g.clients, c.ID())
	}
	total := len(g.clients)
	g.mu.Unlock()

	if !ok {
		return
	}
	c.Stop()
	metrics.ClientsActive.Set(float64(total))
	logging.Info().
		Uint64("session", c.ID()).
		Int("total_clients", total).
		Msg("client detached")
}

// handlePublish pushes the frame into the ring buffer and fans it out in
// ascending session-id order. A client that cannot take the frame is
// detached; the shared buffer is the only catch-up mechanism, so there is
// no per-client queueing obligation.
func (g *Gateway) handlePublish(frame models.Frame) {
	// One clock read: the live frame carries the same timestamp a replay
	// of the same sequence id will.
	frame.Seq, frame.Timestamp = g.buf.Push(frame.Type, frame.Data)
	metrics.FramesRelayed.WithLabelValues("downstream", frame.Type).Inc()

	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]uint64, 0, len(g.clients))
	for id := range g.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var toRemove []Client
	for _, id := range ids {
		c := g.clients[id]
		if !c.Send(frame) {
			metrics.FramesDropped.WithLabelValues("downstream", "client_slow").Inc()
			toRemove = append(toRemove, c)
		}
	}

	for _, c := range toRemove {
		delete(g.clients, c.ID())
		c.Stop()
		logging.Warn().Uint64("session", c.ID()).Msg("client too slow, detaching")
	}
	metrics.ClientsActive.Set(float64(len(g.clients)))
}

// shutdown stops all attached clients. Upstream teardown is handled by
// the deferred link Stop in Serve.
func (g *Gateway) shutdown(ctx context.Context) {
	g.mu.Lock()
	ids := make([]uint64, 0, len(g.clients))
	for id := range g.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		g.clients[id].Stop()
		delete(g.clients, id)
	}
	g.mu.Unlock()

	reason := "context_canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		reason = "context_deadline"
	}
	metrics.ClientsActive.Set(0)
	logging.Info().
		Str("component", "relay-gateway").
		Str("reason", reason).
		Int("clients_closed", len(ids)).
		Msg("relay gateway stopped")
}

// recordFrame rebuilds the wire frame for a buffered record.
func recordFrame(r buffer.Record) models.Frame {
	return models.Frame{
		Type:      r.Kind,
		Seq:       r.ID,
		Timestamp: r.Timestamp,
		Data:      r.Payload,
	}
}
