// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package worker

import (
	"context"
	"fmt"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
)

// LocalJailLauncher spawns a worker process inside a creack/pty
// pseudo-terminal, the way trellis's terminal handler gives each tmux
// pane a controlling tty (internal/api/handlers/terminal.go). The
// spawned command is configurable so tests can point it at a harmless
// placeholder; it defaults to a no-op sleeper.
type LocalJailLauncher struct {
	// Command is the argv used to start the worker-kit process. The
	// jail id is appended as the final argument. Defaults to a sleep
	// loop when empty.
	Command []string
}

// NewLocalJailLauncher returns a launcher that runs cmd (or a no-op
// sleeper if cmd is empty) for each jail.
func NewLocalJailLauncher(cmd []string) *LocalJailLauncher {
	return &LocalJailLauncher{Command: cmd}
}

func (l *LocalJailLauncher) Spawn(ctx context.Context, jailID string) (*WorkerHandle, error) {
	argv := l.Command
	if len(argv) == 0 {
		argv = []string{"sleep", "infinity"}
	}
	argv = append(append([]string{}, argv...), jailID)

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("worker: spawn jail %s: %w", jailID, err)
	}

	handle := newHandle(cmd.Process.Pid, jailID, func() {
		syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	})

	go func() {
		cmd.Wait()
		ptmx.Close()
		handle.markDead()
	}()

	return handle, nil
}
