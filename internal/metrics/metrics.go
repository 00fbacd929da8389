// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebSocket client metrics
	ClientsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_clients_active",
			Help: "Current number of attached dashboard clients",
		},
	)

	ClientAttachTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_client_attach_total",
			Help: "Total number of client attachments",
		},
	)

	// Frame relay metrics
	FramesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frames_total",
			Help: "Total number of frames relayed",
		},
		[]string{"direction", "type"}, // direction: upstream, downstream
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_frames_dropped_total",
			Help: "Total number of frames dropped",
		},
		[]string{"direction", "reason"}, // reason: decode, upstream_down, client_slow, breaker_open
	)

	// Ring buffer metrics
	BufferSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_buffer_records",
			Help: "Current number of live records in the replay ring buffer",
		},
	)

	BufferEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_buffer_evictions_total",
			Help: "Total number of records silently evicted by wraparound",
		},
	)

	ReplayRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_replay_requests_total",
			Help: "Total number of buffer-backed replay requests",
		},
		[]string{"cursor"}, // "id" or "timestamp"
	)

	ReplayRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_replay_records",
			Help:    "Number of records served per replay request",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	// Reconnecting link metrics
	LinkState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_link_state",
			Help: "Current reconnecting link state (0=disconnected, 1=connecting, 2=connected, 3=reconnecting)",
		},
		[]string{"link"},
	)

	LinkConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_link_connect_attempts_total",
			Help: "Total number of transport connect attempts",
		},
		[]string{"link", "result"}, // result: success, failure
	)

	// Circuit breaker metrics (upstream forwards)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Mock generator metrics
	MockFramesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_mock_frames_generated_total",
			Help: "Total number of synthetic frames emitted by the mock generator",
		},
		[]string{"type"},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)
