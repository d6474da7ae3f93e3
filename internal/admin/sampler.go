// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// PIDSource reports the PIDs of every currently live worker process, so
// the memory sampler can total RSS across the whole fleet.
type PIDSource interface {
	PIDs() []int
}

// MemSampler periodically computes total RSS (coordinator + worker-
// parent + every live worker PID) and appends it to the Model's memory
// ring buffer, per spec.md §4.7.
type MemSampler struct {
	model     *Model
	workers   PIDSource
	parentPID int
	interval  time.Duration
}

// NewMemSampler creates a sampler that reports every interval.
// parentPID is the worker-parent's PID (0 to omit it from the total).
func NewMemSampler(model *Model, workers PIDSource, parentPID int, interval time.Duration) *MemSampler {
	return &MemSampler{model: model, workers: workers, parentPID: parentPID, interval: interval}
}

// Run samples on a ticker until ctx is canceled. Intended to run under
// an errgroup alongside the rest of internal/app's supervised
// goroutines.
func (s *MemSampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.model.AddMemStats(s.totalRSSKB())
		}
	}
}

func (s *MemSampler) totalRSSKB() int64 {
	pids := []int32{int32(os.Getpid())}
	if s.parentPID > 0 {
		pids = append(pids, int32(s.parentPID))
	}
	if s.workers != nil {
		for _, pid := range s.workers.PIDs() {
			pids = append(pids, int32(pid))
		}
	}

	var total int64
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			continue
		}
		info, err := proc.MemoryInfo()
		if err != nil || info == nil {
			continue
		}
		total += int64(info.RSS / 1024)
	}
	return total
}

// RescheduleMemTimer records a new sampling period and resizes the
// ring buffer (clearing it and emitting a settings notification), per
// spec.md §4.7's reschedule_mem_timer. A Run already in progress keeps
// the ticker it started with; the new period applies to a later Run.
func (s *MemSampler) RescheduleMemTimer(interval time.Duration, newBufferSize int) {
	s.interval = interval
	s.model.SetMemStatsSize(newBufferSize)
}

// CPUSampler is the reserved hook matching the original's empty
// CpuStats::run(): spec.md §9 Open Question 1 resolves this as a
// deliberate no-op, so Run never calls Model.AddCPUStats.
type CPUSampler struct {
	model    *Model
	interval time.Duration
}

// NewCPUSampler creates a CPU sampler. Run never samples anything; it
// only exists so cpu_stats_size and the timer-reschedule surface have
// a concrete owner to reschedule.
func NewCPUSampler(model *Model, interval time.Duration) *CPUSampler {
	return &CPUSampler{model: model, interval: interval}
}

// Run blocks until ctx is canceled without sampling, reserved for a
// future CPU accounting implementation.
func (s *CPUSampler) Run(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

// RescheduleCPUTimer changes the nominal period and buffer size
// without starting any sampling.
func (s *CPUSampler) RescheduleCPUTimer(interval time.Duration, newBufferSize int) {
	s.interval = interval
	s.model.SetCPUStatsSize(newBufferSize)
}
