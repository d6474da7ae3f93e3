// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"testing"

	"github.com/groupsio/loolcoord/internal/queue"
)

func TestEnqueueClientFrameClosePushesEOF(t *testing.T) {
	s := New("sess-1", ToClient, &fakeSink{}, &recordingHandler{})
	cont := s.EnqueueClientFrame(true, "")
	if cont {
		t.Fatal("expected close frame to stop the read loop")
	}
	if got := s.queue.Get(); got != queue.EOF {
		t.Fatalf("got %q, want EOF", got)
	}
}

func TestEnqueueClientFrameDedup(t *testing.T) {
	s := New("sess-1", ToClient, &fakeSink{}, &recordingHandler{})
	s.EnqueueClientFrame(false, "tile part=0 width=1 height=1 tileposx=0 tileposy=0 tilewidth=1 tileheight=1")
	s.EnqueueClientFrame(false, "tile part=0 width=1 height=1 tileposx=0 tileposy=0 tilewidth=1 tileheight=1")
	if s.queue.Len() != 1 {
		t.Fatalf("expected duplicate tile request to be dropped, queue len=%d", s.queue.Len())
	}
}

func TestEnqueueClientFrameCancelTilesBypassesQueue(t *testing.T) {
	h := &recordingHandler{}
	s := New("sess-1", ToClient, &fakeSink{}, h)
	s.EnqueueClientFrame(false, "tile part=0 width=1 height=1 tileposx=0 tileposy=0 tilewidth=1 tileheight=1")
	if s.queue.Len() != 1 {
		t.Fatalf("expected tile request to be queued first, got len=%d", s.queue.Len())
	}

	cont := s.EnqueueClientFrame(false, "canceltiles")
	if !cont {
		t.Fatal("canceltiles should not stop the read loop")
	}
	if s.queue.Len() != 0 {
		t.Fatalf("expected canceltiles to drop the pending tile request, len=%d", s.queue.Len())
	}
	got := h.snapshot()
	if len(got) != 1 || got[0] != "canceltiles" {
		t.Fatalf("expected canceltiles forwarded directly to handler, got %v", got)
	}
}

func TestEnqueueClientFrameCancelTilesPreservesNonCancelable(t *testing.T) {
	h := &recordingHandler{}
	s := New("sess-1", ToClient, &fakeSink{}, h)
	s.EnqueueClientFrame(false, "tile part=0 width=1 height=1 tileposx=0 tileposy=0 tilewidth=1 tileheight=1 id=1")
	s.EnqueueClientFrame(false, "canceltiles")
	if s.queue.Len() != 1 {
		t.Fatalf("expected tagged tile request to survive canceltiles, len=%d", s.queue.Len())
	}
}

func TestNextMessageSize(t *testing.T) {
	cases := []struct {
		line     string
		wantSize int
		wantOk   bool
	}{
		{"nextmessage: size=1024", 1024, true},
		{"nextmessage:size=0", 0, true},
		{"tile part=0", 0, false},
		{"nextmessage: size=abc", 0, false},
		{"nextmessage: size=-1", 0, false},
	}
	for _, c := range cases {
		size, ok := NextMessageSize(c.line)
		if size != c.wantSize || ok != c.wantOk {
			t.Errorf("NextMessageSize(%q) = (%d, %v), want (%d, %v)", c.line, size, ok, c.wantSize, c.wantOk)
		}
	}
}
