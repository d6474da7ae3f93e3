// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session models one participant of a document: a client-facing
// session backed by a browser connection, or a worker-facing session
// backed by the rendering process's connection. Grounded on
// MasterProcessSession in the original loolwsd sources and on the
// queue-draining handler-goroutine pattern trellis uses for its
// service output pumps (internal/service/process.go).
package session

import (
	"sync"
	"time"

	"github.com/groupsio/loolcoord/internal/queue"
)

// Kind distinguishes the two participant roles a Broker rendezvouses.
type Kind int

const (
	// ToClient sessions are bound to a browser connection.
	ToClient Kind = iota
	// ToWorker sessions are bound to the worker-jail connection.
	ToWorker
)

func (k Kind) String() string {
	if k == ToWorker {
		return "to-worker"
	}
	return "to-client"
}

// Handler answers or forwards the payloads a session's queue delivers.
// It returns false to signal that the session's handler loop should
// stop.
type Handler interface {
	HandleInput(payload string) bool
}

// FrameSink sends a single text frame out over a session's connection.
type FrameSink interface {
	SendTextFrame(message string) error
}

// Session is one participant of a document.
type Session struct {
	id    string
	kind  Kind
	queue *queue.Queue
	sink  FrameSink

	mu           sync.RWMutex
	editLock     bool
	lastActivity time.Time
	handler      Handler
}

// New creates a session bound to its own queue, ready to be registered
// with a Broker.
func New(id string, kind Kind, sink FrameSink, handler Handler) *Session {
	return &Session{
		id:           id,
		kind:         kind,
		queue:        queue.New(),
		sink:         sink,
		handler:      handler,
		lastActivity: time.Now(),
	}
}

// ID returns the session's opaque identifier.
func (s *Session) ID() string { return s.id }

// Kind reports whether this is a client-facing or worker-facing session.
func (s *Session) Kind() Kind { return s.kind }

// Queue returns the session's input queue handle.
func (s *Session) Queue() *queue.Queue { return s.queue }

// SetEditLock sets the session's edit-lock flag. It sends no frame;
// the broker sends the editlock frames.
func (s *Session) SetEditLock(held bool) {
	s.mu.Lock()
	s.editLock = held
	s.mu.Unlock()
}

// IsEditLocked reports whether this session currently holds the edit
// lock.
func (s *Session) IsEditLocked() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editLock
}

// SendTextFrame forwards message to the session's connection.
func (s *Session) SendTextFrame(message string) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.SendTextFrame(message)
}

// Touch records activity now, resetting the idle clock used by
// auto-save.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// InactivityMS returns how long it has been since the session was last
// touched.
func (s *Session) InactivityMS() float64 {
	s.mu.RLock()
	last := s.lastActivity
	s.mu.RUnlock()
	return float64(time.Since(last).Milliseconds())
}
