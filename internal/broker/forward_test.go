// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package broker

import "testing"

func TestSendToWorkerFailsWithoutConnection(t *testing.T) {
	b, _ := newTestBroker(t)
	if err := b.SendToWorker("tile part=0 width=1 height=1 tileposx=0 tileposy=0 tilewidth=1 tileheight=1"); err == nil {
		t.Fatal("expected an error with no worker connected")
	}
}

func TestSendToWorkerForwardsMessage(t *testing.T) {
	b, _ := newTestBroker(t)
	sink := &fakeFrameSink{}
	b.SetWorkerSink(sink)

	if err := b.SendToWorker("canceltiles"); err != nil {
		t.Fatalf("SendToWorker: %v", err)
	}
	if sink.last() != "canceltiles" {
		t.Fatalf("got %q", sink.last())
	}
}
