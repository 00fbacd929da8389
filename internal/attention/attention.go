// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package attention

import (
	"time"

	"github.com/AgentWorkforce/fleetrelay/internal/models"
)

// Window is the trailing span within which an unanswered inbound message
// keeps a participant flagged. The boundary is inclusive: a message exactly
// Window old still counts.
const Window = 30 * time.Minute

// DefaultLocal is the participant name the dashboard uses for its own
// operator. The mock fixtures chat with this name.
const DefaultLocal = "user"

// parsedMessage is a DirectedMessage that survived validation.
type parsedMessage struct {
	from      string
	to        string
	ts        time.Time
	broadcast bool
}

// Compute returns the set of participants who have an inbound message they
// have not yet answered, evaluated against now.
//
// The computation is a full pass over the supplied history rather than
// incremental state: the caller already materializes this list for
// rendering, and a separately-synchronized state would drift from it after
// a history reload. O(messages) per call, acceptable because the caller
// bounds the list to recent history.
//
// Messages are grouped by conversation key (thread if present, else the
// canonical unordered sender/recipient pair). Within a key, participant P
// needs attention when the newest non-broadcast message addressed to P is
// strictly newer than anything P has sent there, and that inbound message
// is within Window. A broadcast sent by P counts as P having spoken and
// clears P's obligation, but a broadcast never creates an obligation for
// its recipients.
//
// The local participant is the dashboard operator viewing the badges.
// The attention set marks agents that owe the operator a reply, so the
// operator themselves is never a member, even when an agent's reply is
// the newest message in a conversation. An empty local excludes nobody.
//
// Malformed entries (empty from/to, unparsable timestamp) contribute
// nothing; they are skipped rather than failing the scan.
func Compute(messages []models.DirectedMessage, now time.Time, local string) map[string]struct{} {
	cutoff := now.Add(-Window)

	byKey := make(map[string][]parsedMessage)
	lastBroadcast := make(map[string]time.Time)

	for _, m := range messages {
		if m.From == "" || m.To == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, m.Timestamp)
		if err != nil {
			// Unparseable dates sort indeterminately; excluding the
			// message avoids false positives.
			continue
		}
		pm := parsedMessage{from: m.From, to: m.To, ts: ts, broadcast: m.Broadcast()}
		if pm.broadcast && ts.After(lastBroadcast[m.From]) {
			lastBroadcast[m.From] = ts
		}
		key := conversationKey(m)
		byKey[key] = append(byKey[key], pm)
	}

	needs := make(map[string]struct{})
	for _, msgs := range byKey {
		lastSent := make(map[string]time.Time)    // newest message sent by participant
		lastInbound := make(map[string]time.Time) // newest non-broadcast message addressed to participant

		for _, m := range msgs {
			if m.ts.After(lastSent[m.from]) {
				lastSent[m.from] = m.ts
			}
			if !m.broadcast && m.ts.After(lastInbound[m.to]) {
				lastInbound[m.to] = m.ts
			}
		}

		for participant, inbound := range lastInbound {
			if participant == local {
				continue
			}
			if inbound.Before(cutoff) {
				continue
			}
			sent, spoke := lastSent[participant]
			// A broadcast by the participant satisfies the obligation even
			// when it was keyed elsewhere (broadcasts carry no recipient
			// pair of their own).
			if b, ok := lastBroadcast[participant]; ok && b.After(sent) {
				sent = b
				spoke = true
			}
			if !spoke || inbound.After(sent) {
				needs[participant] = struct{}{}
			}
		}
	}
	return needs
}

// ComputeNow is Compute evaluated against the wall clock.
func ComputeNow(messages []models.DirectedMessage, local string) map[string]struct{} {
	return Compute(messages, time.Now(), local)
}

// conversationKey groups messages into conversations: the thread when one
// is set, otherwise the unordered sender/recipient pair. Broadcast
// recipients are not canonicalized against the sender so that a pairwise
// conversation and a broadcast never collide.
func conversationKey(m models.DirectedMessage) string {
	if m.Thread != "" {
		return "t:" + m.Thread
	}
	if m.Broadcast() {
		return "b:" + m.From
	}
	a, b := m.From, m.To
	if b < a {
		a, b = b, a
	}
	return "p:" + a + "|" + b
}
