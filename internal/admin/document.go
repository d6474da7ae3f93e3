// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"sync"
	"time"
)

// View is one session's presence in a Document, grounded on
// AdminModel::Document's per-session bookkeeping in the original.
type View struct {
	SessionID string
	UserName  string
	Start     time.Time
	expired   bool
}

// Document tracks the views open against one document key, per
// spec.md §3's Admin Document record: (doc_key, pid, filename,
// views, start_time, end_time?, active_views).
type Document struct {
	DocKey   string
	PID      int
	Filename string
	Start    time.Time

	mu      sync.Mutex
	views   map[string]*View
	end     time.Time
	expired bool
}

func newDocument(docKey string, pid int, filename string) *Document {
	return &Document{
		DocKey:   docKey,
		PID:      pid,
		Filename: filename,
		Start:    time.Now(),
		views:    make(map[string]*View),
	}
}

// AddView registers a new view for sessionID.
func (d *Document) AddView(sessionID, userName string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.views[sessionID] = &View{SessionID: sessionID, UserName: userName, Start: time.Now()}
}

// ExpireView marks sessionID's view as no longer active without
// forgetting its history, mirroring AdminModel::Document::expireView.
// When no view remains active, end_time is recorded (spec.md §3).
func (d *Document) ExpireView(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if v, ok := d.views[sessionID]; ok {
		v.expired = true
	}
	if !d.anyActiveLocked() {
		d.end = time.Now()
		d.expired = true
	}
}

// ActiveViews reports how many registered views are not expired.
func (d *Document) ActiveViews() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, v := range d.views {
		if !v.expired {
			n++
		}
	}
	return n
}

// ActiveViewIDs returns the session ids of every not-yet-expired view,
// used to emit one rmdoc notification per view when a document is
// removed outright.
func (d *Document) ActiveViewIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.views))
	for id, v := range d.views {
		if !v.expired {
			out = append(out, id)
		}
	}
	return out
}

// Expired reports whether the document's active_views has reached
// zero, per spec.md §3's "end_time is set when active_views reaches
// zero; the document is considered expired thereafter."
func (d *Document) Expired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.expired
}

// ElapsedMS reports how long the document has been open.
func (d *Document) ElapsedMS() int64 {
	return time.Since(d.Start).Milliseconds()
}

func (d *Document) anyActiveLocked() bool {
	for _, v := range d.views {
		if !v.expired {
			return true
		}
	}
	return false
}
