// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package reconnect

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/metrics"
)

// ErrNotConnected is returned by Send when the transport is not live.
var ErrNotConnected = errors.New("reconnect: link not connected")

// Transport is one established duplex connection. Receive blocks until the
// next inbound frame and returns an error once the transport closes.
type Transport interface {
	Send(payload []byte) error
	Receive() ([]byte, error)
	Close() error
}

// Factory establishes a single transport attempt. The context is canceled
// when the link is stopped while the dial is still in flight.
type Factory func(ctx context.Context) (Transport, error)

// Options configures a Link.
type Options struct {
	// Name identifies the link in logs and metrics ("upstream-data",
	// "upstream-presence").
	Name string

	// Dial is the transport factory. Required.
	Dial Factory

	// Backoff is the retry schedule. Zero values fall back to SlowProfile.
	Backoff Policy

	// OnFrame receives every inbound payload while connected. May be nil.
	OnFrame func(payload []byte)

	// OnState observes state transitions. Called with the link's lock
	// held; it must not call back into the Link. May be nil.
	OnState func(State)

	// Jitter overrides the backoff jitter draw, for tests. Must return a
	// value in [0, 1). Defaults to rand.Float64.
	Jitter func() float64
}

// Link wraps one logical connection with automatic reconnection.
//
// It owns the dial lifecycle, the backoff timer, and the read loop for the
// current transport. A generation counter invalidates in-flight work: a
// dial that completes after Stop (or after a Nudge superseded it) is
// discarded instead of reviving the link.
type Link struct {
	opts Options

	mu        sync.Mutex
	state     State
	attempt   uint32
	gen       uint64
	transport Transport
	timer     *time.Timer
	cancel    context.CancelFunc
	retryAt   time.Time
}

// NewLink creates a stopped link. Call Start to begin dialing.
func NewLink(opts Options) *Link {
	if opts.Jitter == nil {
		opts.Jitter = rand.Float64 //nolint:gosec // jitter spread, not crypto
	}
	if opts.Name == "" {
		opts.Name = "link"
	}
	l := &Link{opts: opts, state: StateDisconnected}
	metrics.LinkState.WithLabelValues(opts.Name).Set(float64(StateDisconnected))
	return l
}

// State returns the current connection state.
func (l *Link) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Attempt returns the number of consecutive failed connect attempts.
// Resets to zero on a successful connect.
func (l *Link) Attempt() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempt
}

// RetryAt returns when the next dial is scheduled. Zero unless the link is
// reconnecting.
func (l *Link) RetryAt() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.retryAt
}

// Start begins the connect loop. No-op unless the link is disconnected.
func (l *Link) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.applyLocked(eventStart) {
		return
	}
	l.dialLocked()
}

// Stop cancels any pending retry timer and in-flight dial, closes the
// transport, and moves to Disconnected. Safe to call from any state and
// concurrently with a dial; a dial that resolves after Stop is ignored.
func (l *Link) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.transport != nil {
		_ = l.transport.Close()
		l.transport = nil
	}
	l.retryAt = time.Time{}
	l.applyLocked(eventStop)
}

// Nudge requests an immediate out-of-band reconnect, bypassing any
// scheduled backoff delay and resetting the attempt counter. Used when a
// background tab becomes foreground. No-op while connecting or connected.
func (l *Link) Nudge() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := transition(l.state, eventNudge); !ok {
		return
	}
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.attempt = 0
	l.retryAt = time.Time{}
	l.applyLocked(eventNudge)
	l.dialLocked()
}

// Send forwards a payload over the live transport.
// Returns ErrNotConnected when the transport is down; the caller decides
// whether that means drop (fire-and-forget) or retry.
func (l *Link) Send(payload []byte) error {
	l.mu.Lock()
	t := l.transport
	l.mu.Unlock()
	if t == nil {
		return ErrNotConnected
	}
	return t.Send(payload)
}

// applyLocked runs the pure transition and the state-change side effects.
func (l *Link) applyLocked(e event) bool {
	next, ok := transition(l.state, e)
	if !ok {
		return false
	}
	if next != l.state {
		logging.Debug().
			Str("link", l.opts.Name).
			Str("from", l.state.String()).
			Str("to", next.String()).
			Msg("link state transition")
		l.state = next
		metrics.LinkState.WithLabelValues(l.opts.Name).Set(float64(next))
		if l.opts.OnState != nil {
			l.opts.OnState(next)
		}
	}
	return true
}

// dialLocked launches a dial for the current generation. The link must be
// in StateConnecting.
func (l *Link) dialLocked() {
	gen := l.gen
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	go l.dial(ctx, gen)
}

func (l *Link) dial(ctx context.Context, gen uint64) {
	t, err := l.opts.Dial(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.gen {
		// Stopped or superseded while dialing; the result is void.
		if err == nil {
			_ = t.Close()
		}
		return
	}
	l.cancel = nil

	if err != nil {
		metrics.LinkConnectAttempts.WithLabelValues(l.opts.Name, "failure").Inc()
		logging.Warn().
			Err(err).
			Str("link", l.opts.Name).
			Uint32("attempt", l.attempt).
			Msg("transport connect failed")
		l.scheduleRetryLocked(eventDialFail)
		return
	}

	metrics.LinkConnectAttempts.WithLabelValues(l.opts.Name, "success").Inc()
	l.transport = t
	l.attempt = 0
	l.retryAt = time.Time{}
	l.applyLocked(eventDialOK)
	logging.Info().Str("link", l.opts.Name).Msg("transport connected")

	go l.readLoop(t, gen)
}

func (l *Link) readLoop(t Transport, gen uint64) {
	for {
		payload, err := t.Receive()
		if err != nil {
			l.mu.Lock()
			defer l.mu.Unlock()
			if gen != l.gen {
				return
			}
			_ = t.Close()
			l.transport = nil
			logging.Warn().
				Err(err).
				Str("link", l.opts.Name).
				Msg("transport closed")
			l.scheduleRetryLocked(eventTransportClosed)
			return
		}
		if l.stale(gen) {
			return
		}
		if l.opts.OnFrame != nil {
			l.opts.OnFrame(payload)
		}
	}
}

func (l *Link) stale(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return gen != l.gen
}

// scheduleRetryLocked moves to Reconnecting and arms the backoff timer.
// The timer callback re-checks generation and state so a Stop between
// scheduling and firing wins.
func (l *Link) scheduleRetryLocked(e event) {
	l.applyLocked(e)

	delay := l.opts.Backoff.Delay(l.attempt, l.opts.Jitter)
	l.attempt++
	l.retryAt = time.Now().Add(delay)
	gen := l.gen

	logging.Debug().
		Str("link", l.opts.Name).
		Dur("delay", delay).
		Uint32("attempt", l.attempt).
		Msg("reconnect scheduled")

	l.timer = time.AfterFunc(delay, func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if gen != l.gen || l.state != StateReconnecting {
			return
		}
		l.timer = nil
		l.retryAt = time.Time{}
		l.applyLocked(eventRetryElapsed)
		l.dialLocked()
	})
}
