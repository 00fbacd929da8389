// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package buffer

import (
	"sort"
	"sync"
	"time"

	"github.com/AgentWorkforce/fleetrelay/internal/metrics"
)

// DefaultCapacity is the number of records retained when no capacity is
// configured. Sized for a short reconnect gap, not durable history.
const DefaultCapacity = 500

// Record is one buffered frame with its replay cursor metadata.
// ID is strictly increasing per Ring instance, assigned exactly once at
// push time, and never reused even after the slot is overwritten.
type Record struct {
	ID        uint64 `json:"id"`
	Timestamp int64  `json:"ts"` // milliseconds since epoch
	Kind      string `json:"kind"`
	Payload   []byte `json:"payload"`
}

// Ring is a fixed-capacity circular store of sequenced records.
//
// The gateway run loop is the only writer; replay reads may come from any
// goroutine, so all access is guarded by a mutex. Eviction is silent slot
// reuse: once the buffer wraps, the oldest record is simply overwritten.
// A replay cursor older than the retained window under-delivers rather
// than erroring; callers treat silence as potential loss.
type Ring struct {
	mu    sync.RWMutex
	slots []Record
	write int    // next slot to overwrite, wraps mod capacity
	count int    // occupied slots, grows to capacity and stays there
	seq   uint64 // last assigned id, 0 when nothing was ever pushed

	now func() time.Time
}

// New creates a ring buffer with the given capacity.
// Capacity values below 1 fall back to DefaultCapacity.
func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ring{
		slots: make([]Record, capacity),
		now:   time.Now,
	}
}

// Push stores a record, assigning the next sequence id and stamping the
// record's timestamp. Both are returned so the caller can put the exact
// values a later replay will carry onto the live frame. Never fails; when
// the buffer is full the oldest record is evicted. O(1).
func (r *Ring) Push(kind string, payload []byte) (uint64, int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	ts := r.now().UnixMilli()
	r.slots[r.write] = Record{
		ID:        r.seq,
		Timestamp: ts,
		Kind:      kind,
		Payload:   payload,
	}
	r.write = (r.write + 1) % len(r.slots)
	if r.count < len(r.slots) {
		r.count++
	} else {
		metrics.BufferEvictions.Inc()
	}
	metrics.BufferSize.Set(float64(r.count))
	return r.seq, ts
}

// GetAfter returns all live records with id > sinceID in ascending id
// order. Slot order is not insertion order once the buffer has wrapped,
// so results are sorted before returning. O(capacity).
//
// A sinceID at or past CurrentID yields an empty result, not an error.
// If sinceID refers to an already-evicted record the gap is undetectable;
// whatever is still retained is returned.
func (r *Ring) GetAfter(sinceID uint64) []Record {
	return r.collect(func(rec Record) bool { return rec.ID > sinceID })
}

// GetAfterTimestamp returns all live records with timestamp >= sinceTS in
// ascending id order. Used when a client has no prior sequence id, e.g.
// a first connect after a long gap.
func (r *Ring) GetAfterTimestamp(sinceTS int64) []Record {
	return r.collect(func(rec Record) bool { return rec.Timestamp >= sinceTS })
}

// CurrentID returns the last assigned id, or 0 if nothing was ever pushed.
func (r *Ring) CurrentID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.seq
}

// Len returns the number of live records.
func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// Capacity returns the fixed slot count.
func (r *Ring) Capacity() int {
	return len(r.slots)
}

func (r *Ring) collect(keep func(Record) bool) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Record, 0, r.count)
	for i := 0; i < r.count; i++ {
		if keep(r.slots[i]) {
			out = append(out, r.slots[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
