// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"fmt"

	"github.com/groupsio/loolcoord/internal/session"
)

// AddSession registers sess with the document. A session added while
// no other session is registered is granted the edit lock and notified with "editlock: 1"; the
// worker is told about the new session via "session <id> <doc_key>".
// Returns the new session count.
func (b *Broker) AddSession(sess *session.Session) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[sess.ID()] = sess
	b.order = append(b.order, sess.ID())

	if len(b.sessions) == 1 {
		sess.SetEditLock(true)
		sess.SendTextFrame("editlock: 1")
	}

	if b.workerSink != nil {
		b.workerSink.SendTextFrame(fmt.Sprintf("session %s %s", sess.ID(), b.docKey))
	}

	return len(b.sessions)
}

// RemoveSession deregisters id. If it held the edit lock, the lock is
// transferred to the next remaining session (insertion order),
// notified with "editlock: 1". Returns the new session count.
func (b *Broker) RemoveSession(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, ok := b.sessions[id]
	if !ok {
		return len(b.sessions)
	}

	held := sess.IsEditLocked()
	delete(b.sessions, id)
	b.removeFromOrder(id)

	if held {
		if next := b.firstRemainingLocked(); next != nil {
			next.SetEditLock(true)
			next.SendTextFrame("editlock: 1")
		}
	}

	return len(b.sessions)
}

// TakeEditLock unconditionally transfers the edit lock to id, clearing
// it from every other session and emitting "editlock: 0" / "editlock:
// 1" frames as appropriate.
func (b *Broker) TakeEditLock(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	target, ok := b.sessions[id]
	if !ok {
		return
	}

	for sid, sess := range b.sessions {
		if sid == id {
			continue
		}
		if sess.IsEditLocked() {
			sess.SetEditLock(false)
			sess.SendTextFrame("editlock: 0")
		}
	}

	if !target.IsEditLocked() {
		target.SetEditLock(true)
		target.SendTextFrame("editlock: 1")
	}
}

// SessionCount returns the number of registered sessions.
func (b *Broker) SessionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func (b *Broker) removeFromOrder(id string) {
	for i, sid := range b.order {
		if sid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			return
		}
	}
}

// firstRemainingLocked returns the earliest-registered remaining
// session; caller must hold b.mu.
func (b *Broker) firstRemainingLocked() *session.Session {
	if len(b.order) == 0 {
		return nil
	}
	return b.sessions[b.order[0]]
}
