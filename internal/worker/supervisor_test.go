// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeLauncher struct {
	mu      sync.Mutex
	next    int
	handles map[string]*WorkerHandle
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{handles: make(map[string]*WorkerHandle)}
}

func (f *fakeLauncher) Spawn(ctx context.Context, jailID string) (*WorkerHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	h := newHandle(f.next, jailID, func() {})
	f.handles[jailID] = h
	return h, nil
}

func (f *fakeLauncher) exit(jailID string) {
	f.mu.Lock()
	h := f.handles[jailID]
	f.mu.Unlock()
	h.markDead()
}

func TestSupervisorSpawnAndLookup(t *testing.T) {
	l := newFakeLauncher()
	sup := NewSupervisor(l, nil)

	h, err := sup.Spawn(context.Background(), "jail-1")
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	found, ok := sup.Lookup("jail-1")
	if !ok || found != h {
		t.Fatal("expected Lookup to find the spawned handle")
	}
	pids := sup.PIDs()
	if len(pids) != 1 || pids[0] != h.PID {
		t.Fatalf("got %v", pids)
	}
}

func TestSupervisorKillSuppressesGoneNotification(t *testing.T) {
	l := newFakeLauncher()
	var goneCalled bool
	var mu sync.Mutex
	sup := NewSupervisor(l, func(jailID string, err error) {
		mu.Lock()
		goneCalled = true
		mu.Unlock()
	})

	sup.Spawn(context.Background(), "jail-1")
	sup.Kill("jail-1")
	l.exit("jail-1")

	waitForReap(t, sup, "jail-1")

	mu.Lock()
	defer mu.Unlock()
	if goneCalled {
		t.Fatal("expected no WorkerGone notification for a requested kill")
	}
}

func TestSupervisorUnexpectedExitNotifiesGone(t *testing.T) {
	l := newFakeLauncher()
	done := make(chan error, 1)
	sup := NewSupervisor(l, func(jailID string, err error) {
		done <- err
	})

	sup.Spawn(context.Background(), "jail-1")
	l.exit("jail-1")

	select {
	case err := <-done:
		if !errors.Is(err, ErrWorkerGone) {
			t.Fatalf("got %v, want ErrWorkerGone", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected onGone to fire")
	}

	if _, ok := sup.Lookup("jail-1"); ok {
		t.Fatal("expected worker to be deregistered after exit")
	}
}

func waitForReap(t *testing.T, sup *Supervisor, jailID string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := sup.Lookup(jailID); !ok {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("worker %s was not reaped in time", jailID)
}
