// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"testing"
	"time"

	"github.com/groupsio/loolcoord/internal/queue"
)

func TestRunHandlerLoopStopsOnEOF(t *testing.T) {
	h := &recordingHandler{}
	s := New("sess-1", ToClient, &fakeSink{}, h)

	done := make(chan struct{})
	go func() {
		RunHandlerLoop(s)
		close(done)
	}()

	s.queue.Put("tile part=0")
	s.queue.Put(queue.EOF)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunHandlerLoop did not return after EOF")
	}

	got := h.snapshot()
	if len(got) != 1 || got[0] != "tile part=0" {
		t.Fatalf("got %v", got)
	}
}

func TestRunHandlerLoopStopsWhenHandlerReturnsFalse(t *testing.T) {
	h := &recordingHandler{stopOn: "stop"}
	s := New("sess-1", ToClient, &fakeSink{}, h)

	done := make(chan struct{})
	go func() {
		RunHandlerLoop(s)
		close(done)
	}()

	s.queue.Put("a")
	s.queue.Put("stop")
	// Should never be processed: loop already exited.
	s.queue.Put("b")

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunHandlerLoop did not return after handler declined")
	}
}
