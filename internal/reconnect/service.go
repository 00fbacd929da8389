// FleetRelay - Real-time Continuity Gateway for Agent Fleet Dashboards
// Copyright 2026 AgentWorkforce
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/AgentWorkforce/fleetrelay

package reconnect

import "context"

// Service adapts a Link to suture.Service for links that are not owned by
// another service's run loop (the presence leg). The link dials for as
// long as the service runs and stops when the context ends.
type Service struct {
	link *Link
}

// NewService wraps link as a supervised service.
func NewService(link *Link) *Service {
	return &Service{link: link}
}

// Serve implements suture.Service.
func (s *Service) Serve(ctx context.Context) error {
	s.link.Start()
	<-ctx.Done()
	s.link.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *Service) String() string {
	return s.link.opts.Name
}
