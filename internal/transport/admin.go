// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/groupsio/loolcoord/internal/admin"
)

// AdminHandler mounts the admin console websocket described in
// spec.md §4.4, challenging with HTTP Basic auth (spec.md §7:
// "Unauthorized admin: HTTP 401 with WWW-Authenticate: Basic
// realm=\"online\"").
type AdminHandler struct {
	bus              *admin.Bus
	username, password string
	logger           *log.Logger
}

// NewAdminHandler creates a handler backed by bus. If username is
// empty, authentication is skipped (useful for --test runs).
func NewAdminHandler(bus *admin.Bus, username, password string, logger *log.Logger) *AdminHandler {
	return &AdminHandler{bus: bus, username: username, password: password, logger: logger}
}

func (h *AdminHandler) authorized(r *http.Request) bool {
	if h.username == "" {
		return true
	}
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(h.password)) == 1
	return userOK && passOK
}

// ServeHTTP upgrades the connection and runs the admin command loop
// until the client disconnects.
func (h *AdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		w.Header().Set("WWW-Authenticate", `Basic realm="online"`)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	id := uuid.NewString()
	sink := newWSFrameSink(conn)
	h.bus.Register(id, sink)
	defer h.bus.Deregister(id)

	done := make(chan struct{})
	defer close(done)
	sink.startPingLoop(done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		reply := h.bus.HandleCommand(id, string(data))
		if err := sink.SendTextFrame(reply); err != nil {
			return
		}
	}
}
