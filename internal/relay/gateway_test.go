// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package relay

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/AgentWorkforce/fleetrelay/internal/logging"
	"github.com/AgentWorkforce/fleetrelay/internal/models"
	"github.com/AgentWorkforce/fleetrelay/internal/reconnect"
)

func init() {
	logging.Init(logging.Config{Level: "error", Format: "json", Output: io.Discard})
}

// fakeClient records delivered frames; reject makes Send report a full
// queue.
type fakeClient struct {
	id uint64

	mu     sync.Mutex
	frames []models.Frame
	reject bool
	stops  int
}

func (f *fakeClient) ID() uint64 { return f.id }

func (f *fakeClient) Send(frame models.Frame) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reject {
		return false
	}
	f.frames = append(f.frames, frame)
	return true
}

func (f *fakeClient) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeClient) seqs() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]uint64, len(f.frames))
	for i, fr := range f.frames {
		out[i] = fr.Seq
	}
	return out
}

func (f *fakeClient) frameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames)
}

func (f *fakeClient) stopCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops
}

// upstreamTransport is a live fake for the reconnecting link.
type upstreamTransport struct {
	mu   sync.Mutex
	sent [][]byte
	quit chan struct{}
	once sync.Once
}

func newUpstreamTransport() *upstreamTransport {
	return &upstreamTransport{quit: make(chan struct{})}
}

func (u *upstreamTransport) Send(payload []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.sent = append(u.sent, payload)
	return nil
}

func (u *upstreamTransport) Receive() ([]byte, error) {
	<-u.quit
	return nil, errors.New("closed")
}

func (u *upstreamTransport) Close() error {
	u.once.Do(func() { close(u.quit) })
	return nil
}

func (u *upstreamTransport) sentCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sent)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// startGateway runs the relay loop and returns a cleanup that waits for it
// to exit.
func startGateway(t *testing.T, g *Gateway) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = g.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("relay loop did not exit")
		}
	})
	return cancel
}

func chatFrame(body string) models.Frame {
	return models.Frame{Type: models.FrameTypeChat, Data: []byte(`{"body":"` + body + `"}`)}
}

func TestGateway_AttachSeedsAndStreamsWithoutGap(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	startGateway(t, g)

	for i := 0; i < 3; i++ {
		g.Publish(chatFrame("early"))
	}
	waitFor(t, "buffered frames", func() bool { return g.Buffer().CurrentID() == 3 })

	c := &fakeClient{id: 1}
	g.Attach(c, 1)
	waitFor(t, "attach", func() bool { return g.ClientCount() == 1 })

	g.Publish(chatFrame("live"))
	waitFor(t, "live frame", func() bool { return c.frameCount() == 3 })

	got := c.seqs()
	want := []uint64{2, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("delivered seqs %v, want %v (no gap, no duplicate)", got, want)
		}
	}
}

func TestGateway_AttachWithZeroCursorSeedsFullWindow(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	startGateway(t, g)

	g.Publish(chatFrame("a"))
	g.Publish(chatFrame("b"))
	waitFor(t, "buffered frames", func() bool { return g.Buffer().CurrentID() == 2 })

	c := &fakeClient{id: 7}
	g.Attach(c, 0)
	waitFor(t, "seed", func() bool { return c.frameCount() == 2 })

	got := c.seqs()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("seed seqs = %v, want [1 2]", got)
	}
}

func TestGateway_FanOutReachesAllClients(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	startGateway(t, g)

	a := &fakeClient{id: 1}
	b := &fakeClient{id: 2}
	g.Attach(a, 0)
	g.Attach(b, 0)
	waitFor(t, "both attached", func() bool { return g.ClientCount() == 2 })

	g.Publish(chatFrame("hello"))
	waitFor(t, "fan-out", func() bool { return a.frameCount() == 1 && b.frameCount() == 1 })

	if a.seqs()[0] != b.seqs()[0] {
		t.Errorf("clients saw different seqs: %v vs %v", a.seqs(), b.seqs())
	}
}

func TestGateway_SlowClientDetached(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	startGateway(t, g)

	slow := &fakeClient{id: 1, reject: true}
	ok := &fakeClient{id: 2}
	g.Attach(slow, 0)
	g.Attach(ok, 0)
	waitFor(t, "both attached", func() bool { return g.ClientCount() == 2 })

	g.Publish(chatFrame("x"))
	waitFor(t, "slow client removed", func() bool { return g.ClientCount() == 1 })

	if slow.stopCount() != 1 {
		t.Errorf("slow client Stop called %d times, want 1", slow.stopCount())
	}
	if ok.frameCount() != 1 {
		t.Errorf("healthy client got %d frames, want 1", ok.frameCount())
	}
}

func TestGateway_DetachIsIdempotent(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	startGateway(t, g)

	c := &fakeClient{id: 1}
	g.Attach(c, 0)
	waitFor(t, "attach", func() bool { return g.ClientCount() == 1 })

	g.Detach(c)
	waitFor(t, "detach", func() bool { return g.ClientCount() == 0 })
	g.Detach(c)

	waitFor(t, "stop settled", func() bool { return c.stopCount() == 1 })
	if n := c.stopCount(); n != 1 {
		t.Errorf("Stop called %d times across double detach, want 1", n)
	}
}

func TestGateway_ShutdownStopsClients(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	cancel := startGateway(t, g)

	c := &fakeClient{id: 1}
	g.Attach(c, 0)
	waitFor(t, "attach", func() bool { return g.ClientCount() == 1 })

	cancel()
	waitFor(t, "client stopped", func() bool { return c.stopCount() == 1 })
}

func TestGateway_HandleUpstreamPayload(t *testing.T) {
	g := New(Config{Mode: ModeRelay, BufferCapacity: 32})
	startGateway(t, g)

	g.HandleUpstreamPayload([]byte(`{"type":"chat","data":{"body":"hi"}}`))
	waitFor(t, "decoded frame buffered", func() bool { return g.Buffer().CurrentID() == 1 })

	// Undecodable payloads are dropped without touching the buffer.
	g.HandleUpstreamPayload([]byte(`{not json`))
	g.HandleUpstreamPayload([]byte(`{"data":{"no":"type"}}`))
	time.Sleep(10 * time.Millisecond)
	if got := g.Buffer().CurrentID(); got != 1 {
		t.Errorf("CurrentID = %d after malformed payloads, want 1", got)
	}
}

func TestGateway_ClientFrameForwardedUpstream(t *testing.T) {
	ut := newUpstreamTransport()
	link := reconnect.NewLink(reconnect.Options{
		Name:    "test-upstream",
		Backoff: reconnect.Policy{Base: time.Millisecond, Cap: time.Millisecond},
		Dial:    func(context.Context) (reconnect.Transport, error) { return ut, nil },
	})
	link.Start()
	defer link.Stop()
	waitFor(t, "upstream connected", func() bool { return link.State() == reconnect.StateConnected })

	g := New(Config{Mode: ModeRelay, BufferCapacity: 32})
	g.AttachUpstream(link)

	c := &fakeClient{id: 1}
	g.HandleClientFrame(c, chatFrame("outbound"))

	if ut.sentCount() != 1 {
		t.Fatalf("upstream received %d frames, want 1", ut.sentCount())
	}
}

func TestGateway_ClientFrameDroppedWithoutUpstream(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})

	c := &fakeClient{id: 1}
	g.HandleClientFrame(c, chatFrame("nowhere"))

	// Fire-and-forget: dropped silently, nothing echoes back.
	if c.frameCount() != 0 {
		t.Errorf("client received %d frames, want 0", c.frameCount())
	}
	if g.Buffer().CurrentID() != 0 {
		t.Errorf("client frame leaked into the buffer")
	}
}

func TestGateway_ClientFrameDroppedWhileUpstreamDown(t *testing.T) {
	link := reconnect.NewLink(reconnect.Options{
		Name:    "test-down",
		Backoff: reconnect.Policy{Base: time.Hour, Cap: time.Hour},
		Dial: func(context.Context) (reconnect.Transport, error) {
			return nil, errors.New("refused")
		},
	})

	g := New(Config{Mode: ModeRelay, BufferCapacity: 32})
	g.AttachUpstream(link)

	// Never started, so Send returns ErrNotConnected; the frame is dropped
	// without blocking or panicking.
	c := &fakeClient{id: 1}
	g.HandleClientFrame(c, chatFrame("dropped"))
}

func TestGateway_ServeCatchup(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	for i := 0; i < 5; i++ {
		g.Buffer().Push(models.FrameTypeChat, []byte(`{}`))
	}

	tests := []struct {
		name      string
		data      string
		wantSeqs  []uint64
		wantTotal int // replayed frames plus the end marker
	}{
		{"by id", `{"since_id":3}`, []uint64{4, 5}, 3},
		{"empty request replays everything", ``, []uint64{1, 2, 3, 4, 5}, 6},
		{"cursor at head yields only end marker", `{"since_id":5}`, nil, 1},
		{"id wins over timestamp", `{"since_id":4,"since_ts":1}`, []uint64{5}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClient{id: 1}
			frame := models.Frame{Type: models.FrameTypeCatchup, Data: []byte(tt.data)}
			g.HandleClientFrame(c, frame)

			if c.frameCount() != tt.wantTotal {
				t.Fatalf("delivered %d frames, want %d", c.frameCount(), tt.wantTotal)
			}
			got := c.seqs()
			for i, want := range tt.wantSeqs {
				if got[i] != want {
					t.Fatalf("replayed seqs %v, want %v", got[:len(got)-1], tt.wantSeqs)
				}
			}

			c.mu.Lock()
			last := c.frames[len(c.frames)-1]
			c.mu.Unlock()
			if last.Type != models.FrameTypeCatchupEnd {
				t.Errorf("last frame type = %q, want %q", last.Type, models.FrameTypeCatchupEnd)
			}
			if last.Seq != 5 {
				t.Errorf("end marker seq = %d, want 5", last.Seq)
			}
		})
	}
}

func TestGateway_ServeCatchupByTimestamp(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	g.Buffer().Push(models.FrameTypeChat, []byte(`{}`))
	g.Buffer().Push(models.FrameTypeChat, []byte(`{}`))

	c := &fakeClient{id: 1}
	frame := models.Frame{Type: models.FrameTypeCatchup, Data: []byte(`{"since_ts":1}`)}
	g.HandleClientFrame(c, frame)

	// Both records are newer than 1ms epoch; expect a full replay.
	if c.frameCount() != 3 {
		t.Errorf("delivered %d frames, want 3", c.frameCount())
	}
}

func TestGateway_ServeCatchupMalformedRequest(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	g.Buffer().Push(models.FrameTypeChat, []byte(`{}`))

	c := &fakeClient{id: 1}
	frame := models.Frame{Type: models.FrameTypeCatchup, Data: []byte(`{broken`)}
	g.HandleClientFrame(c, frame)

	if c.frameCount() != 0 {
		t.Errorf("malformed catchup produced %d frames, want 0", c.frameCount())
	}
}

func TestGateway_PublishStampsSequenceAndTimestamp(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	startGateway(t, g)

	c := &fakeClient{id: 1}
	g.Attach(c, 0)
	waitFor(t, "attach", func() bool { return g.ClientCount() == 1 })

	g.Publish(chatFrame("stamped"))
	waitFor(t, "delivery", func() bool { return c.frameCount() == 1 })

	c.mu.Lock()
	got := c.frames[0]
	c.mu.Unlock()
	if got.Seq != 1 {
		t.Errorf("Seq = %d, want 1", got.Seq)
	}
	if got.Timestamp == 0 {
		t.Error("Timestamp not stamped on publish")
	}

	// A replay of the same sequence id must carry the exact timestamp the
	// live frame did.
	records := g.Buffer().GetAfter(0)
	if len(records) != 1 {
		t.Fatalf("buffered records = %d, want 1", len(records))
	}
	if records[0].Timestamp != got.Timestamp {
		t.Errorf("replay Timestamp = %d, live frame carried %d", records[0].Timestamp, got.Timestamp)
	}
}

func TestGateway_UpstreamStateWithoutLink(t *testing.T) {
	g := New(Config{Mode: ModeMock, BufferCapacity: 32})
	if got := g.UpstreamState(); got != reconnect.StateDisconnected {
		t.Errorf("UpstreamState() = %v without a link, want disconnected", got)
	}
	if g.Mode() != ModeMock {
		t.Errorf("Mode() = %v, want mock", g.Mode())
	}
}
