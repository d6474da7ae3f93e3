// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"fmt"
	"net/url"
	"strconv"
	"sync"
)

// Notifier receives the text frames a Model mutation produces, so a
// Bus can fan them out to subscribers (spec.md §4.3/§4.4).
type Notifier interface {
	Notify(message string)
}

// Model tracks every live document and its views, and samples memory
// and CPU history into ring buffers.
type Model struct {
	notifier Notifier

	mu         sync.Mutex
	documents  map[string]*Document
	selfPIDs   map[int]struct{}
	memStats   *RingBuffer
	cpuStats   *RingBuffer
}

// NewModel creates a Model. selfPIDs are PIDs considered "known" for
// kill <pid> purposes even before any document registers them — the
// coordinator's own PID and the worker-parent's, per spec.md §9 Open
// Question 2.
func NewModel(notifier Notifier, memStatsSize, cpuStatsSize int, selfPIDs ...int) *Model {
	pids := make(map[int]struct{}, len(selfPIDs))
	for _, p := range selfPIDs {
		pids[p] = struct{}{}
	}
	return &Model{
		notifier:  notifier,
		documents: make(map[string]*Document),
		selfPIDs:  pids,
		memStats:  NewRingBuffer(memStatsSize),
		cpuStats:  NewRingBuffer(cpuStatsSize),
	}
}

// SetNotifier attaches the notifier a Model fans its mutations to,
// once it exists — breaking the construction cycle between Model and
// Bus (a Bus needs a *Model to answer queries, so it can't be built
// before one exists).
func (m *Model) SetNotifier(notifier Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifier = notifier
}

func (m *Model) notify(message string) {
	m.mu.Lock()
	notifier := m.notifier
	m.mu.Unlock()
	if notifier != nil {
		notifier.Notify(message)
	}
}

// AddDocument registers a new document with its worker PID and
// storage filename and its first view, per spec.md §3's
// add_document(doc_key, pid, filename, session_id) and §4.3's
// "adddoc pid urlenc(filename) session_id mem_kb" notification
// format.
func (m *Model) AddDocument(docKey string, pid int, filename, sessionID string) *Document {
	m.mu.Lock()
	doc := newDocument(docKey, pid, filename)
	doc.AddView(sessionID, sessionID)
	m.documents[docKey] = doc
	m.mu.Unlock()

	m.notify(fmt.Sprintf("adddoc %d %s %s %d", pid, url.QueryEscape(filename), sessionID, pidMemoryKB(pid)))
	return doc
}

// AddDocumentView registers a new view within docKey, e.g. when a
// second client joins an already-open document. userName is the
// view's display name; sessionID identifies it for later expiry. Emits
// the same "adddoc pid urlenc(filename) session_id mem_kb" format as
// AddDocument, per spec.md §4.3.
func (m *Model) AddDocumentView(docKey, sessionID, userName string) {
	m.mu.Lock()
	doc := m.documents[docKey]
	m.mu.Unlock()
	if doc == nil {
		return
	}
	doc.AddView(sessionID, userName)
	m.notify(fmt.Sprintf("adddoc %d %s %s %d", doc.PID, url.QueryEscape(doc.Filename), sessionID, pidMemoryKB(doc.PID)))
}

// RemoveDocument expires docKey outright, emitting one rmdoc
// notification per still-active view before removing the document,
// the no-session overload of spec.md §4.3's remove_document.
func (m *Model) RemoveDocument(docKey string) {
	m.mu.Lock()
	doc := m.documents[docKey]
	if doc != nil {
		delete(m.documents, docKey)
	}
	m.mu.Unlock()
	if doc == nil {
		return
	}

	for _, sid := range doc.ActiveViewIDs() {
		m.notify(fmt.Sprintf("rmdoc %d %s", doc.PID, sid))
	}
}

// RemoveDocumentView expires sessionID's view within docKey. When the
// document's active view count reaches zero it is removed entirely
// (spec.md §4.3's "Document removal").
func (m *Model) RemoveDocumentView(docKey, sessionID string) {
	m.mu.Lock()
	doc := m.documents[docKey]
	m.mu.Unlock()
	if doc == nil {
		return
	}
	doc.ExpireView(sessionID)
	m.notify(fmt.Sprintf("rmdoc %d %s", doc.PID, sessionID))

	if doc.ActiveViews() == 0 {
		m.mu.Lock()
		delete(m.documents, docKey)
		m.mu.Unlock()
	}
}

// Documents returns a snapshot of every registered document.
func (m *Model) Documents() []*Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Document, 0, len(m.documents))
	for _, d := range m.documents {
		out = append(out, d)
	}
	return out
}

// ActiveDocsCount reports how many documents are currently tracked.
func (m *Model) ActiveDocsCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.documents)
}

// ActiveUsersCount sums active views across every document.
func (m *Model) ActiveUsersCount() int {
	m.mu.Lock()
	docs := make([]*Document, 0, len(m.documents))
	for _, d := range m.documents {
		docs = append(docs, d)
	}
	m.mu.Unlock()

	total := 0
	for _, d := range docs {
		total += d.ActiveViews()
	}
	return total
}

// KnownPID reports whether pid belongs to a currently tracked document
// or was registered as a self PID at construction — the trust boundary
// spec.md §9 Open Question 2 requires before honoring kill <pid>.
func (m *Model) KnownPID(pid int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.selfPIDs[pid]; ok {
		return true
	}
	for _, d := range m.documents {
		if d.PID == pid {
			return true
		}
	}
	return false
}

// AddMemStats appends an RSS sample and notifies subscribers.
func (m *Model) AddMemStats(kb int64) {
	m.memStats.Add(kb)
	m.notify("mem_stats " + strconv.FormatInt(kb, 10))
}

// AddCPUStats exists to match the original's shape; nothing calls it,
// matching CpuStats::run() being an empty reserved hook in the
// original (spec.md §4.7).
func (m *Model) AddCPUStats(v int64) {
	m.cpuStats.Add(v)
	m.notify("cpu_stats " + strconv.FormatInt(v, 10))
}

// SetMemStatsSize resizes (and clears) the memory ring buffer,
// emitting a settings notification.
func (m *Model) SetMemStatsSize(n int) {
	m.memStats.Resize(n)
	m.notify("settings mem_stats_size=" + strconv.FormatInt(int64(n), 10))
}

// SetCPUStatsSize resizes (and clears) the CPU ring buffer, emitting a
// settings notification.
func (m *Model) SetCPUStatsSize(n int) {
	m.cpuStats.Resize(n)
	m.notify("settings cpu_stats_size=" + strconv.FormatInt(int64(n), 10))
}

// MemStats returns the buffered memory samples, oldest first.
func (m *Model) MemStats() []int64 { return m.memStats.Values() }

// CPUStats returns the buffered CPU samples, oldest first.
func (m *Model) CPUStats() []int64 { return m.cpuStats.Values() }

// MemStatsSize reports the memory ring buffer's capacity.
func (m *Model) MemStatsSize() int { return m.memStats.Cap() }

// CPUStatsSize reports the CPU ring buffer's capacity.
func (m *Model) CPUStatsSize() int { return m.cpuStats.Cap() }
