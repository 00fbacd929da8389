// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package reconnect

import "time"

// Policy describes an exponential backoff schedule with full jitter on the
// upper half: delay for attempt n (0-indexed) is min(Base*2^n, Cap) scaled
// by a factor drawn uniformly from [0.5, 1.0). The jitter spreads reconnect
// storms when many clients lose the same upstream at once.
type Policy struct {
	Base time.Duration `koanf:"base"`
	Cap  time.Duration `koanf:"cap"`
}

// FastProfile is the schedule used for presence and channel links.
func FastProfile() Policy {
	return Policy{Base: 500 * time.Millisecond, Cap: 15 * time.Second}
}

// SlowProfile is the schedule used for the main data link.
func SlowProfile() Policy {
	return Policy{Base: time.Second, Cap: 30 * time.Second}
}

// Delay computes the jittered delay for the given attempt. jitter must
// return a value in [0, 1); the caller supplies it so tests can pin the
// draw.
func (p Policy) Delay(attempt uint32, jitter func() float64) time.Duration {
	base := p.Base
	if base <= 0 {
		base = time.Second
	}
	ceiling := p.Cap
	if ceiling <= 0 {
		ceiling = 30 * time.Second
	}

	d := base
	for i := uint32(0); i < attempt; i++ {
		d *= 2
		// Doubling past the cap (or into overflow) pins to the cap.
		if d >= ceiling || d <= 0 {
			d = ceiling
			break
		}
	}
	if d > ceiling {
		d = ceiling
	}

	return time.Duration(float64(d) * (0.5 + 0.5*jitter()))
}
