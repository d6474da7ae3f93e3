// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// FrameSink sends one text frame to a subscriber's connection. Held
// weakly in spirit: the admin request handler owns the sink's
// lifetime, exactly as spec.md §5's ownership policy describes for
// the admin bus (internal/transport owns the websocket, the Bus only
// holds a reference for as long as the handler keeps it registered).
type FrameSink interface {
	SendTextFrame(message string) error
}

// PIDKiller sends a termination signal to a worker process. Kept as a
// narrow seam so this package doesn't need to import internal/worker.
type PIDKiller interface {
	Kill(pid int) error
}

// Subscriber is one admin console connection.
type subscriber struct {
	id   string
	sink FrameSink

	mu       sync.Mutex
	commands map[string]struct{} // empty set == subscribed to everything
}

// Bus fans Model mutation notifications out to admin console
// subscribers, and dispatches the admin command protocol (spec.md
// §4.4). Grounded on Admin.cpp's command dispatch and AdminModel's
// subscriber list (original_source/loolwsd/Admin.cpp).
type Bus struct {
	model  *Model
	killer PIDKiller

	mu   sync.Mutex
	subs map[string]*subscriber
}

// NewBus creates a Bus backed by model. killer may be nil, in which
// case kill <pid> always fails.
func NewBus(model *Model, killer PIDKiller) *Bus {
	return &Bus{model: model, killer: killer, subs: make(map[string]*subscriber)}
}

// Notify implements admin.Notifier: it is called by Model mutators and
// fans the message out to every matching subscriber, in the order
// mutators committed (spec.md §5 ordering guarantee).
func (b *Bus) Notify(message string) {
	command := strings.SplitN(message, " ", 2)[0]

	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.mu.Lock()
		_, explicit := s.commands[command]
		wantsAll := len(s.commands) == 0
		s.mu.Unlock()
		if explicit || wantsAll {
			if err := s.sink.SendTextFrame(message); err != nil {
				b.mu.Lock()
				if b.subs[s.id] == s {
					delete(b.subs, s.id)
				}
				b.mu.Unlock()
			}
		}
	}
}

// Register attaches a subscriber connection, subscribed to everything
// until it narrows its interest via Subscribe.
func (b *Bus) Register(id string, sink FrameSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = &subscriber{id: id, sink: sink, commands: make(map[string]struct{})}
}

// Deregister removes a subscriber connection.
func (b *Bus) Deregister(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}

// Subscribe narrows id's interest to the given command tokens.
func (b *Bus) Subscribe(id string, tokens []string) {
	b.mu.Lock()
	s := b.subs[id]
	b.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	for _, t := range tokens {
		s.commands[t] = struct{}{}
	}
	s.mu.Unlock()
}

// Unsubscribe removes tokens from id's subscription set.
func (b *Bus) Unsubscribe(id string, tokens []string) {
	b.mu.Lock()
	s := b.subs[id]
	b.mu.Unlock()
	if s == nil {
		return
	}
	s.mu.Lock()
	for _, t := range tokens {
		delete(s.commands, t)
	}
	s.mu.Unlock()
}

// HandleCommand dispatches one admin console request line, returning
// the reply frame. Unknown commands and malformed arguments reply
// with an error frame rather than closing the connection, matching
// spec.md §7's forgiving wire protocol.
func (b *Bus) HandleCommand(id, line string) string {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return "error: empty command"
	}

	switch tokens[0] {
	case "subscribe":
		b.Subscribe(id, tokens[1:])
		return "subscribe " + strings.Join(tokens[1:], " ")
	case "unsubscribe":
		b.Unsubscribe(id, tokens[1:])
		return "unsubscribe " + strings.Join(tokens[1:], " ")
	case "kill":
		return b.handleKill(tokens[1:])
	case "set":
		return b.handleSet(tokens[1:])
	default:
		return b.model.Query(tokens[0])
	}
}

func (b *Bus) handleKill(args []string) string {
	if len(args) != 1 {
		return "error: kill requires exactly one pid"
	}
	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Sprintf("error: invalid pid %q", args[0])
	}
	if !b.model.KnownPID(pid) {
		return fmt.Sprintf("error: pid %d is not a known worker", pid)
	}
	if b.killer == nil {
		return "error: kill not supported"
	}
	if err := b.killer.Kill(pid); err != nil {
		return fmt.Sprintf("error: kill %d: %v", pid, err)
	}
	return fmt.Sprintf("kill %d", pid)
}

func (b *Bus) handleSet(args []string) string {
	applied := make([]string, 0, len(args))
	for _, kv := range args {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key, val := parts[0], parts[1]
		n, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		switch key {
		case "mem_stats_size":
			b.model.SetMemStatsSize(n)
		case "cpu_stats_size":
			b.model.SetCPUStatsSize(n)
		case "mem_stats_interval", "cpu_stats_interval":
			// Interval keys are only echoed in the reply: nothing
			// reschedules a sampler from this command.
		default:
			continue
		}
		applied = append(applied, kv)
	}
	return "settings " + strings.Join(applied, " ")
}
