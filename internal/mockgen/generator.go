// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package mockgen

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/metrics"
	"github.com/AgentWorkforce/fleetrelay/internal/models"
)

// DefaultAgents are the fixture participants used when none are
// configured.
var DefaultAgents = []string{"forge", "quill", "sketch", "probe"}

// Publisher receives generated frames. Satisfied by *relay.Gateway.
type Publisher interface {
	Publish(frame models.Frame)
}

// Config controls the synthetic stream.
type Config struct {
	// FramesPerSecond paces emission. Default 2.
	FramesPerSecond float64 `koanf:"rate"`

	// Agents are the fixture agent names chatting with "user".
	Agents []string `koanf:"agents"`

	// Seed pins the random source for reproducible streams. 0 seeds from
	// the clock.
	Seed int64 `koanf:"seed"`
}

// chatPayload mirrors the daemon's chat frame payload.
type chatPayload struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

// statusPayload mirrors the daemon's agent_status frame payload.
type statusPayload struct {
	Agent  string `json:"agent"`
	Status string `json:"status"`
}

var statuses = []string{"idle", "thinking", "editing", "running_tests", "blocked"}

var bodies = []string{
	"picked up the ticket, starting on the parser changes",
	"tests are green on my branch",
	"need a decision on the retry semantics before I continue",
	"pushed a fix for the flaky integration test",
	"opening a PR for review",
	"rebasing onto main, conflicts in the config layer",
}

// Generator emits synthetic agent traffic into the gateway when no real
// upstream exists. It runs as a supervised service and paces itself with
// a rate limiter so a misconfigured rate cannot melt the relay loop.
type Generator struct {
	sink    Publisher
	limiter *rate.Limiter
	agents  []string
	rng     *rand.Rand
}

// New creates a generator feeding sink.
func New(sink Publisher, cfg Config) *Generator {
	fps := cfg.FramesPerSecond
	if fps <= 0 {
		fps = 2
	}
	agents := cfg.Agents
	if len(agents) == 0 {
		agents = DefaultAgents
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(fps), 1),
		agents:  agents,
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // fixture data, not crypto
	}
}

// Serve implements suture.Service: emit frames until the context ends.
func (g *Generator) Serve(ctx context.Context) error {
	logging.Info().
		Int("agents", len(g.agents)).
		Float64("rate", float64(g.limiter.Limit())).
		Msg("mock generator started")

	for {
		if err := g.limiter.Wait(ctx); err != nil {
			logging.Info().Msg("mock generator stopped")
			return ctx.Err()
		}
		frame := g.next()
		g.sink.Publish(frame)
		metrics.MockFramesGenerated.WithLabelValues(frame.Type).Inc()
	}
}

// String implements fmt.Stringer for supervisor logging.
func (g *Generator) String() string {
	return "mock-generator"
}

// next fabricates the next frame: mostly chat, occasionally a status
// change, with a sprinkling of broadcasts so the attention badge logic
// has something to chew on.
func (g *Generator) next() models.Frame {
	agent := g.agents[g.rng.Intn(len(g.agents))]

	if g.rng.Intn(4) == 0 {
		data, _ := json.Marshal(statusPayload{
			Agent:  agent,
			Status: statuses[g.rng.Intn(len(statuses))],
		})
		return models.Frame{Type: models.FrameTypeAgentStatus, Data: data}
	}

	p := chatPayload{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Body:      bodies[g.rng.Intn(len(bodies))],
	}
	switch g.rng.Intn(5) {
	case 0: // user pings an agent
		p.From, p.To = "user", agent
	case 1: // agent broadcasts to the channel
		p.From, p.To = agent, models.BroadcastTarget
	default: // agent replies to the user
		p.From, p.To = agent, "user"
	}
	if p.From == "user" {
		p.Body = fmt.Sprintf("@%s %s?", p.To, "can you take a look at this")
	}

	data, _ := json.Marshal(p)
	return models.Frame{Type: models.FrameTypeChat, Data: data}
}
