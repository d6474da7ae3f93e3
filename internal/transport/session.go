// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/groupsio/loolcoord/internal/admin"
	"github.com/groupsio/loolcoord/internal/broker"
	"github.com/groupsio/loolcoord/internal/session"
	"github.com/groupsio/loolcoord/internal/tileid"
	"github.com/groupsio/loolcoord/internal/worker"
)

// SessionHandler mounts the two connection kinds a Broker rendezvouses:
// the client-facing browser session and the worker-facing render-jail
// session, per spec.md §4.5/§4.6. Grounded on trellis's
// internal/api/handlers/events.go websocket loop, generalized from one
// fixed event stream to the load/tile/canceltiles wire protocol.
type SessionHandler struct {
	registry   *broker.Registry
	supervisor *worker.Supervisor
	model      *admin.Model
	jailRoot   string
	logger     *log.Logger
}

// NewSessionHandler creates a handler wiring registry, supervisor, and
// model together. jailRoot is the directory worker jails are rooted
// under (the --childroot CLI flag from spec.md §6).
func NewSessionHandler(registry *broker.Registry, supervisor *worker.Supervisor, model *admin.Model, jailRoot string, logger *log.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, supervisor: supervisor, model: model, jailRoot: jailRoot, logger: logger}
}

// ServeClient handles a browser connection: spec.md §4.5's
// client-facing session.
func (h *SessionHandler) ServeClient(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	mt, data, err := conn.ReadMessage()
	if err != nil || mt != websocket.TextMessage {
		return
	}
	docURL, ok := parseLoad(string(data))
	if !ok {
		conn.WriteMessage(websocket.TextMessage, []byte("error: cmd=load kind=failed"))
		return
	}

	ctx := r.Context()
	b, created, err := h.registry.GetOrCreate(docURL)
	if err != nil {
		conn.WriteMessage(websocket.TextMessage, []byte("error: cmd=load kind=failed"))
		return
	}

	sessionID := uuid.NewString()

	if created {
		pid, err := h.bootstrap(ctx, b, docURL)
		if err != nil {
			h.logf("transport: bootstrap %s: %v", docURL, err)
			conn.WriteMessage(websocket.TextMessage, []byte("error: cmd=load kind=failed"))
			h.registry.Remove(b.DocKey())
			return
		}
		h.model.AddDocument(b.DocKey(), pid, filepath.Base(docURL), sessionID)
	} else {
		h.model.AddDocumentView(b.DocKey(), sessionID, sessionID)
	}

	sink := newWSFrameSink(conn)
	done := make(chan struct{})
	defer close(done)
	sink.startPingLoop(done)

	handler := &clientInputHandler{broker: b, sink: sink}
	sess := session.New(sessionID, session.ToClient, sink, handler)

	b.AddSession(sess)
	defer func() {
		b.RemoveSession(sessionID)
		h.model.RemoveDocumentView(b.DocKey(), sessionID)
		if b.CanDestroy() {
			h.registry.Remove(b.DocKey())
			h.supervisor.Kill(b.DocKey())
		}
	}()

	go session.RunHandlerLoop(sess)
	defer sess.Queue().Put("eof")

	h.readLoop(conn, sess)
}

func (h *SessionHandler) readLoop(conn *websocket.Conn, sess *session.Session) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			sess.EnqueueClientFrame(true, "")
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		line := string(data)

		if size, ok := session.NextMessageSize(line); ok {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				sess.EnqueueClientFrame(true, "")
				return
			}
			if len(payload) != size {
				h.logf("transport: nextmessage size mismatch: declared %d got %d", size, len(payload))
			}
			if !sess.ForwardDirect(string(payload)) {
				return
			}
			continue
		}

		firstLine := strings.SplitN(line, "\n", 2)[0]
		if !sess.EnqueueClientFrame(false, firstLine) {
			return
		}
	}
}

// bootstrap spawns the worker jail and loads the document the first
// time a document key is seen, returning the worker's PID so the
// caller can register it with the admin model.
func (h *SessionHandler) bootstrap(ctx context.Context, b *broker.Broker, docURL string) (int, error) {
	jailID := b.DocKey()
	handle, err := h.supervisor.Spawn(ctx, jailID)
	if err != nil {
		return 0, err
	}
	localPath := filepath.Join(h.jailRoot, jailID, filepath.Base(docURL))
	if _, err := b.Load(ctx, jailID, localPath); err != nil {
		h.supervisor.Kill(jailID)
		return 0, err
	}
	return handle.PID, nil
}

// parseLoad extracts the uri from a "load url=<uri>" first frame
// (spec.md §6). Trailing space-separated session-setup tokens, if any,
// are ignored.
func parseLoad(line string) (string, bool) {
	const prefix = "load "
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	rest := line[len(prefix):]
	for _, tok := range strings.Fields(rest) {
		if v, ok := strings.CutPrefix(tok, "url="); ok {
			return v, true
		}
	}
	return "", false
}

func (h *SessionHandler) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

// ServeWorker handles the worker-jail connection for an already-loaded
// document, per spec.md §4.6 ("sends session <id> <doc_key> to the
// worker"). jailID identifies the path segment the worker connects to.
func (h *SessionHandler) ServeWorker(jailID string, w http.ResponseWriter, r *http.Request) {
	b, ok := h.registry.Lookup(jailID)
	if !ok {
		http.Error(w, "unknown document", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sink := newWSFrameSink(conn)
	b.SetWorkerSink(sink)

	done := make(chan struct{})
	defer close(done)
	sink.startPingLoop(done)

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			b.MarkWorkerGone()
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		line := string(data)

		switch {
		case strings.HasPrefix(line, "invalidatetiles:"):
			if err := b.Cache().InvalidateTilesMessage(line); err != nil {
				h.logf("transport: invalidatetiles %s: %v", b.DocKey(), err)
			}
		case strings.HasPrefix(line, "nextmessage:"):
			size, ok := session.NextMessageSize(line)
			if !ok {
				continue
			}
			_, payload, err := conn.ReadMessage()
			if err != nil {
				b.MarkWorkerGone()
				return
			}
			h.handleRenderedTile(b, payload, size)
		default:
			// Forgiving wire protocol (spec.md §7): unrecognized worker
			// frames are logged and ignored.
			h.logf("transport: unhandled worker frame for %s: %q", b.DocKey(), line)
		}
	}
}

// handleRenderedTile splits a worker's size-prefixed reply into its
// echoed "tile ..." request line and the rendered image bytes, saves
// the tile, and forwards it to every session that subscribed while the
// render was in flight.
func (h *SessionHandler) handleRenderedTile(b *broker.Broker, payload []byte, declaredSize int) {
	nl := bytes.IndexByte(payload, '\n')
	if nl < 0 {
		h.logf("transport: malformed tile render payload for %s", b.DocKey())
		return
	}
	requestLine := string(payload[:nl])
	imageBytes := payload[nl+1:]

	req, err := tileid.ParseRequest(requestLine)
	if err != nil {
		h.logf("transport: %v", err)
		return
	}

	cache := b.Cache()
	if err := cache.SaveTile(req.ID, imageBytes); err != nil {
		h.logf("transport: save tile: %v", err)
		return
	}

	lock := cache.TilesBeingRenderedLock()
	lock.Lock()
	br, ok := cache.FindTileBeingRendered(req.ID)
	if ok {
		cache.ForgetTileBeingRendered(req.ID)
	}
	lock.Unlock()
	if !ok {
		return
	}

	for _, sub := range br.Subscribers() {
		sink, ok := sub.(*wsFrameSink)
		if !ok {
			continue
		}
		sink.sendPrefixed(imageBytes)
	}
}

// clientInputHandler implements session.Handler for a client-facing
// session: it answers tile requests from cache or coalesces/forwards
// them to the worker, starts a save for "uno .uno:Save", ignores a
// repeat load, and relays every other command, per spec.md §4.5/§6.
type clientInputHandler struct {
	broker *broker.Broker
	sink   *wsFrameSink
}

// HandleInput answers or forwards one payload handed over by the
// session's queue (or bypassing it, for canceltiles/nextmessage).
func (h *clientInputHandler) HandleInput(payload string) bool {
	switch {
	case strings.HasPrefix(payload, "tile "):
		h.handleTile(payload)
	case payload == "canceltiles":
		h.broker.SendToWorker(payload)
	case strings.HasPrefix(payload, "uno .uno:Save"):
		go h.broker.Save(context.Background())
	case strings.HasPrefix(payload, "load "):
		// Already handled during connection setup; a repeat load is
		// ignored rather than treated as an error (spec.md §7's
		// forgiving wire protocol).
	default:
		h.broker.SendToWorker(payload)
	}
	return true
}

func (h *clientInputHandler) handleTile(payload string) {
	req, err := tileid.ParseRequest(payload)
	if err != nil {
		return
	}

	if rc, hit := h.broker.Cache().LookupTile(req.ID); hit {
		data, readErr := io.ReadAll(rc)
		rc.Close()
		if readErr == nil {
			h.sink.sendPrefixed(data)
		}
		return
	}

	cache := h.broker.Cache()
	lock := cache.TilesBeingRenderedLock()
	lock.Lock()
	if br, already := cache.FindTileBeingRendered(req.ID); already {
		br.Subscribe(h.sink)
		lock.Unlock()
		return
	}
	br := cache.RememberTileAsBeingRendered(req.ID)
	br.Subscribe(h.sink)
	lock.Unlock()

	h.broker.SendToWorker(payload)
}
