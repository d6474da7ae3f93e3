// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package broker owns one document's lifecycle: its sessions, its tile
// cache, its storage handle, and the edit lock the sessions compete
// for. Grounded on original_source/loolwsd/DocumentBroker.cpp, adapted
// to Go's mutex/condvar idiom the way trellis's internal/service.Process
// adapts process lifecycle state to a single guarding mutex.
package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/groupsio/loolcoord/internal/dockey"
	"github.com/groupsio/loolcoord/internal/session"
	"github.com/groupsio/loolcoord/internal/storage"
	"github.com/groupsio/loolcoord/internal/tilecache"
)

// Error kinds surfaced per spec.md §7.
var (
	ErrBadRequest      = errors.New("broker: bad request")
	ErrBrokerDestroyed = errors.New("broker: destroyed")
	ErrWorkerGone      = errors.New("broker: worker gone")
)

// Autosave thresholds (spec.md §4.6 default semantics).
const (
	IdleSaveMS = 30_000
	AutoSaveMS = 10 * 60_000
)

// WorkerSink delivers a frame to the worker-facing session, grounding
// "sends session <id> <doc_key> to the worker".
type WorkerSink interface {
	SendTextFrame(message string) error
}

// Broker coordinates every session editing a single document.
type Broker struct {
	docURL string
	docKey string
	store  storage.Backend
	logger Logger

	mu          sync.Mutex
	sessions    map[string]*session.Session
	order       []string // session ids in insertion order, for stable lock handoff
	cache       *tilecache.Cache
	jailID      string
	jailedURI   string
	loaded      bool
	destroyed   bool
	lastSave    time.Time
	workerSink  WorkerSink
	cacheRoot   string

	saveMu   sync.Mutex
	saveCond *sync.Cond

	idleSaveMS float64
	autoSaveMS float64
}

// Logger is the minimal logging seam the Broker takes, mirroring how trellis routes Process and ServiceManager
// output through an injected *log.Logger-shaped dependency.
type Logger interface {
	Printf(format string, args ...any)
}

// New creates a Broker for docURL, not yet loaded. cacheRoot is the
// coordinator-wide tile-cache root shared by every document; Load
// shards it per document via dockey.CachePath before constructing the
// tile cache, so distinct documents never share a persistent/editing
// directory pair.
func New(docURL, cacheRoot string, store storage.Backend, logger Logger) (*Broker, error) {
	u, err := dockey.Sanitize(docURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	b := &Broker{
		docURL:     docURL,
		docKey:     dockey.Key(u),
		store:      store,
		logger:     logger,
		cacheRoot:  cacheRoot,
		sessions:   make(map[string]*session.Session),
		idleSaveMS: IdleSaveMS,
		autoSaveMS: AutoSaveMS,
	}
	b.saveCond = sync.NewCond(&b.saveMu)
	return b, nil
}

// SetAutosaveThresholds overrides the idle-save and hard-save
// thresholds AutoSave uses, e.g. from the coordinator's loaded
// config.Config.Durations(). Call before the broker's first AutoSave.
func (b *Broker) SetAutosaveThresholds(idleSave, autoSave time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.idleSaveMS = float64(idleSave.Milliseconds())
	b.autoSaveMS = float64(autoSave.Milliseconds())
}

// DocKey returns the document's stable cache/admin key.
func (b *Broker) DocKey() string { return b.docKey }

// Validate probes the storage backend for uri, per spec.md §4.6
// validate(uri).
func Validate(ctx context.Context, store storage.Backend, uri string) error {
	if _, err := dockey.Sanitize(uri); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	if err := store.Validate(ctx, uri); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// SetWorkerSink attaches the connection used to notify the worker of
// new sessions.
func (b *Broker) SetWorkerSink(sink WorkerSink) {
	b.mu.Lock()
	b.workerSink = sink
	b.mu.Unlock()
}

// Load creates the storage handle, constructs the tile cache with the
// storage's reported modification time, copies the file into jailID,
// and records the jailed URI. Returns false if already marked for
// destruction; returns true without repeating the work if already
// loaded.
func (b *Broker) Load(ctx context.Context, jailID, localJailPath string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return false, nil
	}
	if b.loaded {
		return true, nil
	}

	info, err := b.store.GetFileInfo(ctx, b.docURL)
	if err != nil {
		return false, fmt.Errorf("broker: load %s: %w", b.docURL, err)
	}

	if _, err := b.store.LoadStorageFileToLocal(ctx, b.docURL, localJailPath); err != nil {
		return false, fmt.Errorf("broker: load %s into jail: %w", b.docURL, err)
	}

	docCacheRoot := dockey.CachePath(b.cacheRoot, b.docURL)
	cache, err := tilecache.New(b.docURL, info.ModifiedTime, docCacheRoot, false)
	if err != nil {
		return false, fmt.Errorf("broker: create tile cache for %s: %w", b.docURL, err)
	}

	b.cache = cache
	b.jailID = jailID
	b.jailedURI = localJailPath
	b.loaded = true
	b.lastSave = time.Now()
	return true, nil
}

// Cache returns the document's tile cache. Only valid after Load.
func (b *Broker) Cache() *tilecache.Cache {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cache
}

// JailedURI returns the chroot-relative URI recorded by Load, used
// only by the worker.
func (b *Broker) JailedURI() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jailedURI
}
