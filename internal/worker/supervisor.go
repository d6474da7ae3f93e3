// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrWorkerGone reports that a worker process died. The Broker owning
// that jail detaches its sessions and marks itself for destruction in
// response (spec.md §7).
var ErrWorkerGone = errors.New("worker: gone")

// GoneFunc is notified, with the jail id and an error wrapping
// ErrWorkerGone, when a worker exits without having been asked to via
// Kill.
type GoneFunc func(jailID string, err error)

// Supervisor owns the registry of live worker handles and reaps each
// one via a dedicated goroutine blocking on the launcher's wait, per
// spec.md's "any mechanism that reaps terminated workers" (§9 Open
// Questions) — no polling loop.
type Supervisor struct {
	launcher Launcher
	onGone   GoneFunc

	mu      sync.Mutex
	workers map[string]*WorkerHandle
}

// NewSupervisor creates a Supervisor that spawns workers via launcher
// and reports unexpected exits to onGone.
func NewSupervisor(launcher Launcher, onGone GoneFunc) *Supervisor {
	return &Supervisor{
		launcher: launcher,
		onGone:   onGone,
		workers:  make(map[string]*WorkerHandle),
	}
}

// Spawn launches a new worker for jailID and begins supervising it.
func (s *Supervisor) Spawn(ctx context.Context, jailID string) (*WorkerHandle, error) {
	handle, err := s.launcher.Spawn(ctx, jailID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.workers[jailID] = handle
	s.mu.Unlock()

	go s.reap(jailID, handle)

	return handle, nil
}

func (s *Supervisor) reap(jailID string, handle *WorkerHandle) {
	<-handle.Dead()

	s.mu.Lock()
	delete(s.workers, jailID)
	s.mu.Unlock()

	handle.mu.Lock()
	killed := handle.killed
	handle.mu.Unlock()

	if !killed && s.onGone != nil {
		s.onGone(jailID, wrapGone(jailID))
	}
}

// Kill terminates and deregisters the worker for jailID, if any.
func (s *Supervisor) Kill(jailID string) {
	s.mu.Lock()
	handle := s.workers[jailID]
	s.mu.Unlock()
	if handle != nil {
		handle.Kill()
	}
}

// Lookup returns the live handle for jailID, if any.
func (s *Supervisor) Lookup(jailID string) (*WorkerHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.workers[jailID]
	return h, ok
}

// PIDs returns the PIDs of every currently supervised worker, used by
// the memory sampler to total RSS across the fleet.
func (s *Supervisor) PIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pids := make([]int, 0, len(s.workers))
	for _, h := range s.workers {
		pids = append(pids, h.PID)
	}
	return pids
}

func wrapGone(jailID string) error {
	return fmt.Errorf("worker: jail %s: %w", jailID, ErrWorkerGone)
}
