// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"fmt"
	"syscall"

	ps "github.com/mitchellh/go-ps"
)

// Logger is the minimal logging seam this package's collaborators
// take, matching broker.Logger and trellis's own Process/ServiceManager
// injected-logger convention (internal/service/process.go).
type Logger interface {
	Printf(format string, args ...any)
}

// Killer implements admin.PIDKiller: it sends SIGINT to a worker
// process, but first confirms via go-ps that the pid is actually a
// live process, logging (rather than erroring the admin connection)
// when it isn't — matching spec.md §4.4's "log failure if the process
// does not exist" for the kill admin command.
type Killer struct {
	logger Logger
}

// NewKiller creates a Killer that logs through logger (may be nil).
func NewKiller(logger Logger) *Killer {
	return &Killer{logger: logger}
}

// Kill sends SIGINT to pid if go-ps reports it alive.
func (k *Killer) Kill(pid int) error {
	proc, err := ps.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("worker: look up pid %d: %w", pid, err)
	}
	if proc == nil {
		k.logf("worker: kill: pid %d does not exist", pid)
		return fmt.Errorf("worker: pid %d does not exist", pid)
	}
	if err := syscall.Kill(pid, syscall.SIGINT); err != nil {
		k.logf("worker: kill: signal pid %d: %v", pid, err)
		return fmt.Errorf("worker: signal pid %d: %w", pid, err)
	}
	return nil
}

func (k *Killer) logf(format string, args ...any) {
	if k.logger != nil {
		k.logger.Printf(format, args...)
	}
}
