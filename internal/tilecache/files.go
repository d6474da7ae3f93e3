// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package tilecache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SaveTextFile writes a non-tile artifact (e.g. a slide preview index
// or a style list) under the current generation, applying the same
// generation rules as tiles.
func (c *Cache) SaveTextFile(name, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := c.writeDir()
	if err := atomicWrite(filepath.Join(dir, name), []byte(text)); err != nil {
		return fmt.Errorf("tilecache: save text file %s: %w", name, err)
	}
	if dir == c.editDir {
		c.hasUnsavedChanges = true
	}
	return nil
}

// GetTextFile reads name from the current generation.
func (c *Cache) GetTextFile(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isEditing && c.hasUnsavedChanges {
		if data, err := os.ReadFile(filepath.Join(c.editDir, name)); err == nil {
			return string(data), nil
		}
	}
	data, err := os.ReadFile(filepath.Join(c.persDir, name))
	if err != nil {
		return "", fmt.Errorf("tilecache: get text file %s: %w", name, err)
	}
	return string(data), nil
}

// RemoveFile removes name from both generations.
func (c *Cache) RemoveFile(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, dir := range []string{c.persDir, c.editDir} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("tilecache: remove file %s: %w", name, err)
		}
	}
	return nil
}

// SaveRendering saves a font/style/etc. rendering artifact under a
// category sub-directory of the current generation.
func (c *Cache) SaveRendering(name, category string, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Join(c.writeDir(), category)
	if err := atomicWrite(filepath.Join(dir, name), data); err != nil {
		return fmt.Errorf("tilecache: save rendering %s/%s: %w", category, name, err)
	}
	if dir == filepath.Join(c.editDir, category) {
		c.hasUnsavedChanges = true
	}
	return nil
}

// LookupRendering opens a previously saved rendering artifact.
func (c *Cache) LookupRendering(name, category string) (io.ReadCloser, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isEditing && c.hasUnsavedChanges {
		if f, err := os.Open(filepath.Join(c.editDir, category, name)); err == nil {
			return f, true
		}
	}
	if f, err := os.Open(filepath.Join(c.persDir, category, name)); err == nil {
		return f, true
	}
	return nil, false
}
