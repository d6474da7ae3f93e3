// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/groupsio/loolcoord/internal/session"
)

// CanDestroy marks the broker for destruction and returns true the
// first time it is called while exactly one session remains; on every
// other call it returns the current mark without changing it.
func (b *Broker) CanDestroy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return true
	}
	if len(b.sessions) == 1 {
		b.destroyed = true
		return true
	}
	return false
}

// MarkWorkerGone detaches every session and marks the broker for
// destruction, per spec.md §7's WorkerGone handling.
func (b *Broker) MarkWorkerGone() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.destroyed = true
	b.sessions = make(map[string]*session.Session)
	b.order = nil
}

// Save instructs storage to persist the local (jailed) file. On
// success it updates last_save_time, folds editing/ into persistent/
// via tile_cache.DocumentSaved, and wakes every waiter on the save
// condition.
func (b *Broker) Save(ctx context.Context) (bool, error) {
	b.mu.Lock()
	jailedURI := b.jailedURI
	cache := b.cache
	b.mu.Unlock()

	if jailedURI == "" {
		return false, fmt.Errorf("broker: save %s: not loaded", b.docURL)
	}

	if err := b.store.SaveLocalFileToStorage(ctx, b.docURL, jailedURI); err != nil {
		return false, fmt.Errorf("broker: save %s: %w", b.docURL, err)
	}

	if cache != nil {
		if err := cache.DocumentSaved(); err != nil {
			return false, fmt.Errorf("broker: fold tile cache for %s: %w", b.docURL, err)
		}
	}

	b.saveMu.Lock()
	b.mu.Lock()
	b.lastSave = time.Now()
	b.mu.Unlock()
	b.saveCond.Broadcast()
	b.saveMu.Unlock()

	return true, nil
}

// AutoSave computes min_inactivity_ms across sessions and
// time_since_last_save_ms. If there has been editing since the last
// save and either the idle or hard-save threshold is crossed (or
// force is true), it dispatches "uno .uno:Save" into the edit-lock
// holder's queue and reports whether the dispatch happened.
func (b *Broker) AutoSave(force bool) bool {
	b.mu.Lock()

	idleSaveMS, autoSaveMS := b.idleSaveMS, b.autoSaveMS
	var minInactivityMS float64 = -1
	var holder string
	for id, sess := range b.sessions {
		inactivity := sess.InactivityMS()
		if minInactivityMS < 0 || inactivity < minInactivityMS {
			minInactivityMS = inactivity
		}
		if sess.IsEditLocked() {
			holder = id
		}
	}
	timeSinceLastSaveMS := float64(time.Since(b.lastSave)) / float64(time.Millisecond)
	holderSess, ok := b.sessions[holder]
	b.mu.Unlock()

	if minInactivityMS < 0 || !ok {
		return false
	}

	editedSinceLastSave := minInactivityMS < timeSinceLastSaveMS
	if !editedSinceLastSave {
		return false
	}

	if !(minInactivityMS >= idleSaveMS || timeSinceLastSaveMS >= autoSaveMS || force) {
		return false
	}

	holderSess.Queue().Put("uno .uno:Save")
	return true
}

// WaitSave waits up to timeout for the save condition, returning true
// if it was signaled or if last_save_time advanced while waiting
// (avoids the lost-wakeup race between checking and sleeping).
func (b *Broker) WaitSave(timeout time.Duration) bool {
	b.mu.Lock()
	before := b.lastSave
	b.mu.Unlock()

	b.saveMu.Lock()
	defer b.saveMu.Unlock()

	b.mu.Lock()
	advanced := b.lastSave.After(before)
	b.mu.Unlock()
	if advanced {
		return true
	}

	timedOut := make(chan struct{})
	timer := time.AfterFunc(timeout, func() {
		close(timedOut)
		b.saveMu.Lock()
		b.saveCond.Broadcast()
		b.saveMu.Unlock()
	})
	defer timer.Stop()

	b.saveCond.Wait()

	b.mu.Lock()
	advanced = b.lastSave.After(before)
	b.mu.Unlock()

	select {
	case <-timedOut:
		return advanced
	default:
		return true
	}
}
