// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package tilecache

import (
	"os"
	"path/filepath"

	"github.com/groupsio/loolcoord/internal/tileid"
)

// InvalidateTiles removes every cached tile intersecting r from the
// current generation, and schedules its removal from persistent/ on
// the next save (so a subsequent DocumentSaved cleans up tiles that
// were invalidated while only present in persistent/).
func (c *Cache) InvalidateTiles(r tileid.Rect) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.currentDir()
	if err := c.removeMatching(cur, r); err != nil {
		return err
	}
	if cur != c.persDir {
		if err := c.scheduleMatching(c.persDir, r); err != nil {
			return err
		}
	}
	return nil
}

// InvalidateTilesMessage parses and applies a wire-form
// "invalidatetiles: part x y w h" message from a worker.
func (c *Cache) InvalidateTilesMessage(message string) error {
	r, err := tileid.ParseInvalidateTiles(message)
	if err != nil {
		return err
	}
	return c.InvalidateTiles(r)
}

func (c *Cache) removeMatching(dir string, r tileid.Rect) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := tileid.Parse(e.Name())
		if !ok || !r.Intersects(id) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
		c.toBeRemoved[e.Name()] = struct{}{}
	}
	return nil
}

func (c *Cache) scheduleMatching(dir string, r tileid.Rect) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, ok := tileid.Parse(e.Name())
		if !ok || !r.Intersects(id) {
			continue
		}
		c.toBeRemoved[e.Name()] = struct{}{}
	}
	return nil
}
