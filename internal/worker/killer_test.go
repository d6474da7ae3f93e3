// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"fmt"
	"os/exec"
	"testing"
)

func TestKillerKillsLiveProcess(t *testing.T) {
	cmd := exec.Command("sleep", "30")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start sleeper: %v", err)
	}
	defer cmd.Process.Kill()

	k := NewKiller(nil)
	if err := k.Kill(cmd.Process.Pid); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	cmd.Wait()
}

func TestKillerRejectsUnknownPID(t *testing.T) {
	k := NewKiller(nil)
	// A pid vanishingly unlikely to be alive.
	if err := k.Kill(1 << 30); err == nil {
		t.Fatal("expected an error for a nonexistent pid")
	}
}

type loggerFunc func(format string, args ...any)

func (f loggerFunc) Printf(format string, args ...any) { f(format, args...) }

func TestKillerLogsFailure(t *testing.T) {
	var logged string
	logger := loggerFunc(func(format string, args ...any) { logged = fmt.Sprintf(format, args...) })
	k := NewKiller(logger)
	k.Kill(1 << 30)
	if logged == "" {
		t.Fatal("expected a log message for the failed kill")
	}
}
