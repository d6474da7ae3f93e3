// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"testing"
	"time"
)

type fakePIDSource struct{ pids []int }

func (f fakePIDSource) PIDs() []int { return f.pids }

func TestMemSamplerAppendsSamples(t *testing.T) {
	model := NewModel(nil, 10, 10)
	sampler := NewMemSampler(model, fakePIDSource{}, 0, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
	defer cancel()

	if err := sampler.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(model.MemStats()) < 2 {
		t.Fatalf("expected at least 2 samples, got %v", model.MemStats())
	}
}

func TestCPUSamplerNeverSamples(t *testing.T) {
	model := NewModel(nil, 10, 10)
	sampler := NewCPUSampler(model, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	if err := sampler.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(model.CPUStats()) != 0 {
		t.Fatalf("expected no CPU samples ever, got %v", model.CPUStats())
	}
}

func TestRescheduleMemTimerClearsBuffer(t *testing.T) {
	model := NewModel(nil, 10, 10)
	sampler := NewMemSampler(model, fakePIDSource{}, 0, time.Second)
	model.AddMemStats(1)
	model.AddMemStats(2)

	sampler.RescheduleMemTimer(5*time.Second, 4)

	if len(model.MemStats()) != 0 {
		t.Fatalf("expected reschedule to clear buffer, got %v", model.MemStats())
	}
	if model.MemStatsSize() != 4 {
		t.Fatalf("got %d", model.MemStatsSize())
	}
}
