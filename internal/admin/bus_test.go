// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"errors"
	"sync"
	"testing"
)

type fakeSink struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSink) SendTextFrame(message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeSink) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	copy(out, f.sent)
	return out
}

type fakeKiller struct {
	killed []int
	err    error
}

func (k *fakeKiller) Kill(pid int) error {
	if k.err != nil {
		return k.err
	}
	k.killed = append(k.killed, pid)
	return nil
}

func TestBusNotifyFanOutToAllByDefault(t *testing.T) {
	model := NewModel(nil, 10, 10)
	bus := NewBus(model, nil)
	sink := &fakeSink{}
	bus.Register("admin-1", sink)

	bus.Notify("adddoc doc-1")

	if got := sink.snapshot(); len(got) != 1 || got[0] != "adddoc doc-1" {
		t.Fatalf("got %v", got)
	}
}

func TestBusSubscribeNarrowsInterest(t *testing.T) {
	model := NewModel(nil, 10, 10)
	bus := NewBus(model, nil)
	sink := &fakeSink{}
	bus.Register("admin-1", sink)
	bus.Subscribe("admin-1", []string{"mem_stats"})

	bus.Notify("adddoc doc-1")
	bus.Notify("mem_stats 100")

	got := sink.snapshot()
	if len(got) != 1 || got[0] != "mem_stats 100" {
		t.Fatalf("got %v", got)
	}
}

func TestBusUnsubscribeRevertsToNothingFiltered(t *testing.T) {
	model := NewModel(nil, 10, 10)
	bus := NewBus(model, nil)
	sink := &fakeSink{}
	bus.Register("admin-1", sink)
	bus.Subscribe("admin-1", []string{"mem_stats"})
	bus.Unsubscribe("admin-1", []string{"mem_stats"})

	bus.Notify("adddoc doc-1")

	got := sink.snapshot()
	if len(got) != 1 {
		t.Fatalf("expected unsubscribe to widen back to everything, got %v", got)
	}
}

func TestHandleCommandKillRejectsUnknownPID(t *testing.T) {
	model := NewModel(nil, 10, 10)
	killer := &fakeKiller{}
	bus := NewBus(model, killer)

	reply := bus.HandleCommand("admin-1", "kill 4242")
	if reply == "" || reply[:5] != "error" {
		t.Fatalf("got %q, want an error reply", reply)
	}
	if len(killer.killed) != 0 {
		t.Fatal("expected kill not to be dispatched for an unknown pid")
	}
}

func TestHandleCommandKillAcceptsKnownPID(t *testing.T) {
	model := NewModel(nil, 10, 10)
	model.AddDocument("doc-1", 4242, "test.odt", "sess-1")
	killer := &fakeKiller{}
	bus := NewBus(model, killer)

	reply := bus.HandleCommand("admin-1", "kill 4242")
	if reply != "kill 4242" {
		t.Fatalf("got %q", reply)
	}
	if len(killer.killed) != 1 || killer.killed[0] != 4242 {
		t.Fatalf("got %v", killer.killed)
	}
}

func TestHandleCommandKillSurfacesKillerError(t *testing.T) {
	model := NewModel(nil, 10, 10)
	model.AddDocument("doc-1", 4242, "test.odt", "sess-1")
	killer := &fakeKiller{err: errors.New("no such process")}
	bus := NewBus(model, killer)

	reply := bus.HandleCommand("admin-1", "kill 4242")
	if reply[:5] != "error" {
		t.Fatalf("got %q", reply)
	}
}

func TestHandleCommandSet(t *testing.T) {
	model := NewModel(nil, 10, 10)
	bus := NewBus(model, nil)

	reply := bus.HandleCommand("admin-1", "set mem_stats_size=5 cpu_stats_size=7 bogus=1")
	if reply != "settings mem_stats_size=5 cpu_stats_size=7" {
		t.Fatalf("got %q", reply)
	}
	if model.MemStatsSize() != 5 || model.CPUStatsSize() != 7 {
		t.Fatalf("got mem=%d cpu=%d", model.MemStatsSize(), model.CPUStatsSize())
	}
}

func TestHandleCommandDelegatesQueries(t *testing.T) {
	model := NewModel(nil, 10, 10)
	model.AddDocument("doc-1", 1, "test.odt", "sess-1")
	bus := NewBus(model, nil)

	reply := bus.HandleCommand("admin-1", "active_docs_count")
	if reply != "active_docs_count 1" {
		t.Fatalf("got %q", reply)
	}
}
