// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package broker

import (
	"sync"
	"time"

	"github.com/groupsio/loolcoord/internal/dockey"
	"github.com/groupsio/loolcoord/internal/storage"
)

// Registry holds at most one Broker per document key, the Go
// analogue of DocumentBroker's static map in the original, and
// modeled on trellis's ServiceManager map-of-managed-things pattern
// (internal/service/manager.go).
type Registry struct {
	cacheRoot string
	store     storage.Backend
	logger    Logger

	idleSave time.Duration
	autoSave time.Duration

	mu      sync.Mutex
	brokers map[string]*Broker
}

// NewRegistry creates an empty registry. Every Broker it creates
// shares cacheRoot and store, and inherits idleSave/autoSave as its
// autosave thresholds (spec.md §4.6); pass zero values to keep the
// spec defaults.
func NewRegistry(cacheRoot string, store storage.Backend, logger Logger, idleSave, autoSave time.Duration) *Registry {
	return &Registry{
		cacheRoot: cacheRoot,
		store:     store,
		logger:    logger,
		idleSave:  idleSave,
		autoSave:  autoSave,
		brokers:   make(map[string]*Broker),
	}
}

// GetOrCreate returns the existing Broker for docURL's key, or creates
// one if none exists yet. The boolean reports whether a new Broker
// was created.
func (r *Registry) GetOrCreate(docURL string) (*Broker, bool, error) {
	u, err := dockey.Sanitize(docURL)
	if err != nil {
		return nil, false, err
	}
	key := dockey.Key(u)

	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.brokers[key]; ok {
		return b, false, nil
	}

	b, err := New(docURL, r.cacheRoot, r.store, r.logger)
	if err != nil {
		return nil, false, err
	}
	if r.idleSave > 0 || r.autoSave > 0 {
		idleSave, autoSave := r.idleSave, r.autoSave
		if idleSave <= 0 {
			idleSave = IdleSaveMS * time.Millisecond
		}
		if autoSave <= 0 {
			autoSave = AutoSaveMS * time.Millisecond
		}
		b.SetAutosaveThresholds(idleSave, autoSave)
	}
	r.brokers[key] = b
	return b, true, nil
}

// Lookup returns the Broker registered under docKey, if any.
func (r *Registry) Lookup(docKey string) (*Broker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.brokers[docKey]
	return b, ok
}

// Remove deregisters docKey, typically once its Broker reports
// CanDestroy.
func (r *Registry) Remove(docKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.brokers, docKey)
}

// Brokers returns a snapshot of every currently registered Broker.
func (r *Registry) Brokers() []*Broker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Broker, 0, len(r.brokers))
	for _, b := range r.brokers {
		out = append(out, b)
	}
	return out
}
