// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import "github.com/groupsio/loolcoord/internal/queue"

// RunHandlerLoop drains a session's queue, handing each payload to the
// handler in order. It returns when the queue yields queue.EOF or the
// handler reports it is done. Worker-facing sessions don't queue at
// all (every frame is forwarded with ForwardDirect) so they have no
// use for this loop.
func RunHandlerLoop(s *Session) {
	for {
		payload := s.queue.Get()
		if payload == queue.EOF {
			return
		}
		s.Touch()
		if !s.handler.HandleInput(payload) {
			return
		}
	}
}
