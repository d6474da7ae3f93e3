// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tilecache implements the per-document two-generation tile
// store described in spec.md §4.2: a "persistent" generation that
// always reflects the last saved document state, and an "editing"
// generation holding in-memory, unsaved edits. Grounded on
// TileCache.hpp/the TileCache class in the original loolwsd sources,
// reworked as a directory-backed Go store with write-temp-then-rename
// writes in place of direct fstream writes.
package tilecache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/groupsio/loolcoord/internal/tileid"
)

const (
	persistentDir = "persistent"
	editingDir    = "editing"
	modTimeFile   = "modtime.txt"
)

// Cache is the tile store for one document.
type Cache struct {
	docURL string
	root   string
	persDir string
	editDir string

	mu                sync.Mutex
	isEditing         bool
	hasUnsavedChanges bool
	toBeRemoved       map[string]struct{}

	renderedMu sync.Mutex
	rendered   map[string]*BeingRendered
}

// New constructs the cache for docURL rooted at rootCacheDir
// (typically dockey.CachePath(cacheRoot, docURL)). editing/ is always
// cleared on construction, matching spec.md §3. For non-local URIs,
// modifiedTime gates whether the persistent generation is trusted: a
// stale modtime.txt wipes both generations before use, so tiles cached
// for an earlier version of the document are never served.
func New(docURL string, modifiedTime time.Time, rootCacheDir string, isLocal bool) (*Cache, error) {
	c := &Cache{
		docURL:      docURL,
		root:        rootCacheDir,
		persDir:     filepath.Join(rootCacheDir, persistentDir),
		editDir:     filepath.Join(rootCacheDir, editingDir),
		toBeRemoved: make(map[string]struct{}),
		rendered:    make(map[string]*BeingRendered),
	}

	if err := os.MkdirAll(c.persDir, 0755); err != nil {
		return nil, fmt.Errorf("tilecache: create persistent dir: %w", err)
	}

	if !isLocal {
		stored, ok := c.readLastModified()
		if ok && stored.Unix() != modifiedTime.Unix() {
			if err := wipeDir(c.persDir); err != nil {
				return nil, fmt.Errorf("tilecache: wipe stale persistent dir: %w", err)
			}
			if err := os.MkdirAll(c.persDir, 0755); err != nil {
				return nil, err
			}
		}
		if err := c.saveLastModified(modifiedTime); err != nil {
			return nil, fmt.Errorf("tilecache: write modtime: %w", err)
		}
	}

	// editing/ is always cleared at startup.
	if err := wipeDir(c.editDir); err != nil {
		return nil, fmt.Errorf("tilecache: clear editing dir: %w", err)
	}
	if err := os.MkdirAll(c.editDir, 0755); err != nil {
		return nil, fmt.Errorf("tilecache: create editing dir: %w", err)
	}

	return c, nil
}

func wipeDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cache) readLastModified() (time.Time, bool) {
	data, err := os.ReadFile(filepath.Join(c.persDir, modTimeFile))
	if err != nil {
		return time.Time{}, false
	}
	var epoch int64
	if _, err := fmt.Sscanf(string(data), "%d", &epoch); err != nil {
		return time.Time{}, false
	}
	return time.Unix(epoch, 0), true
}

func (c *Cache) saveLastModified(t time.Time) error {
	return atomicWrite(filepath.Join(c.persDir, modTimeFile), []byte(fmt.Sprintf("%d", t.Unix())))
}

// SetEditing toggles whether the cache is serving/writing from the
// editing generation.
func (c *Cache) SetEditing(editing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isEditing = editing
}

// HasUnsavedChanges reports whether the editing generation currently
// holds content not yet folded into persistent/.
func (c *Cache) HasUnsavedChanges() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasUnsavedChanges
}

// currentDir implements the generation-selection rule from spec.md §3:
// while editing with unsaved changes, editing/ is the current
// generation; otherwise persistent/ is authoritative. Writes pick their
// generation through writeDir instead.
func (c *Cache) currentDir() string {
	if c.isEditing && c.hasUnsavedChanges {
		return c.editDir
	}
	return c.persDir
}

// writeDir is the generation writes land in: editing/ while editing,
// persistent/ otherwise (independent of hasUnsavedChanges, since the
// first write during an editing session is what sets the flag).
func (c *Cache) writeDir() string {
	if c.isEditing {
		return c.editDir
	}
	return c.persDir
}

// LookupTile opens the current-generation cached tile for id, if
// present. While editing with unsaved changes, editing/ is consulted
// first with a fallback to persistent/, per spec.md §3.
func (c *Cache) LookupTile(id tileid.ID) (io.ReadCloser, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := id.FileName()
	if c.isEditing && c.hasUnsavedChanges {
		if f, err := os.Open(filepath.Join(c.editDir, name)); err == nil {
			return f, true
		}
	}
	if f, err := os.Open(filepath.Join(c.persDir, name)); err == nil {
		return f, true
	}
	return nil, false
}

// SaveTile atomically writes data to the current generation for id. It
// cancels any pending removal scheduled for this identity.
func (c *Cache) SaveTile(id tileid.ID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := id.FileName()
	dir := c.writeDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("tilecache: save tile: %w", err)
	}
	if err := atomicWrite(filepath.Join(dir, name), data); err != nil {
		return fmt.Errorf("tilecache: save tile: %w", err)
	}

	if dir == c.editDir {
		c.hasUnsavedChanges = true
	}
	delete(c.toBeRemoved, name)
	return nil
}

// atomicWrite writes data to path via a temp file + rename, so
// concurrent LookupTile calls never observe a partially written tile.
func atomicWrite(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// DocumentSaved executes the save-time transition from spec.md §3:
// scheduled removals are applied to persistent/, then editing/ is
// folded into persistent/ (overwriting), then editing/ is cleared and
// hasUnsavedChanges becomes false.
func (c *Cache) DocumentSaved() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name := range c.toBeRemoved {
		if err := os.Remove(filepath.Join(c.persDir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("tilecache: apply removal for %s: %w", name, err)
		}
	}
	c.toBeRemoved = make(map[string]struct{})

	entries, err := os.ReadDir(c.editDir)
	if err != nil {
		if os.IsNotExist(err) {
			entries = nil
		} else {
			return fmt.Errorf("tilecache: document saved: %w", err)
		}
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := copyDir(filepath.Join(c.editDir, e.Name()), filepath.Join(c.persDir, e.Name())); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.editDir, e.Name()))
		if err != nil {
			return fmt.Errorf("tilecache: document saved: read %s: %w", e.Name(), err)
		}
		if err := atomicWrite(filepath.Join(c.persDir, e.Name()), data); err != nil {
			return fmt.Errorf("tilecache: document saved: write %s: %w", e.Name(), err)
		}
	}

	if err := wipeDir(c.editDir); err != nil {
		return fmt.Errorf("tilecache: document saved: clear editing: %w", err)
	}
	c.hasUnsavedChanges = false
	return nil
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := copyDir(filepath.Join(src, e.Name()), filepath.Join(dst, e.Name())); err != nil {
				return err
			}
			continue
		}
		data, err := os.ReadFile(filepath.Join(src, e.Name()))
		if err != nil {
			return err
		}
		if err := atomicWrite(filepath.Join(dst, e.Name()), data); err != nil {
			return err
		}
	}
	return nil
}
