// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package tilecache

import (
	"sync"

	"github.com/groupsio/loolcoord/internal/tileid"
)

// Subscriber is an opaque handle a caller registers on a BeingRendered
// entry to be notified when the in-flight render resolves. The cache
// does not interpret it; Go has no portable weak-reference primitive
// equivalent to the original's std::weak_ptr, so subscribers (one per
// requesting client connection) are held as ordinary references until
// ForgetTileBeingRendered drops the entry.
type Subscriber any

// BeingRendered is the in-flight marker for one tile identity: it
// coalesces concurrent render requests so at most one render per
// identity is ever in flight.
type BeingRendered struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

// Subscribe registers s to be notified when the render completes.
func (b *BeingRendered) Subscribe(s Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, s)
}

// Subscribers returns a snapshot of the currently registered
// subscribers.
func (b *BeingRendered) Subscribers() []Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Subscriber, len(b.subscribers))
	copy(out, b.subscribers)
	return out
}

// TilesBeingRenderedLock returns the mutex guarding the in-flight
// registry, exposed so callers can atomically check-then-insert (find,
// and if absent, remember) without a race against a concurrent
// renderer finishing in between.
func (c *Cache) TilesBeingRenderedLock() *sync.Mutex {
	return &c.renderedMu
}

// RememberTileAsBeingRendered inserts an in-flight entry for id if one
// is not already present; it is idempotent for the same identity.
// Callers needing check-then-insert atomicity must hold
// TilesBeingRenderedLock() across the paired Find/Remember calls.
func (c *Cache) RememberTileAsBeingRendered(id tileid.ID) *BeingRendered {
	name := id.FileName()
	if existing, ok := c.rendered[name]; ok {
		return existing
	}
	br := &BeingRendered{}
	c.rendered[name] = br
	return br
}

// FindTileBeingRendered returns the in-flight entry for id, if any.
func (c *Cache) FindTileBeingRendered(id tileid.ID) (*BeingRendered, bool) {
	br, ok := c.rendered[id.FileName()]
	return br, ok
}

// ForgetTileBeingRendered removes the in-flight entry for id. Callers
// are responsible for having already notified subscribers.
func (c *Cache) ForgetTileBeingRendered(id tileid.ID) {
	delete(c.rendered, id.FileName())
}
