// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package transport is the thin HTTP/WebSocket adapter a real binary
// mounts to expose the coordination core at its wire interface
// (spec.md §6). The transport layer itself, TLS, and HTTP Basic auth
// are out of scope per spec.md §1 ("specified only at their
// interface"); this package is that interface point, grounded on
// trellis's internal/api/handlers/events.go (the gorilla/websocket
// upgrade + ping/read-loop pattern) and internal/api/router.go (the
// gorilla/mux route mounting).
package transport

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	pingPeriod = 54 * time.Second
	pongWait   = 60 * time.Second
)

// wsFrameSink adapts a *websocket.Conn to the FrameSink interfaces
// internal/session, internal/broker, and internal/admin each define
// independently (session.FrameSink, broker.WorkerSink, admin.FrameSink
// are all the same one-method shape by convention).
type wsFrameSink struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newWSFrameSink(conn *websocket.Conn) *wsFrameSink {
	return &wsFrameSink{conn: conn}
}

// startPingLoop mirrors trellis's events.go ping/pong keepalive: a
// pong handler pushes the read deadline out, and a ticker sends a
// ping at a shorter period than that deadline. It runs until done is
// closed by the connection's own read loop exiting.
func (s *wsFrameSink) startPingLoop(done <-chan struct{}) {
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				err := s.conn.WriteMessage(websocket.PingMessage, nil)
				s.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()
}

// SendTextFrame writes one text frame. gorilla/websocket forbids
// concurrent writers on the same connection, so every sink for a
// given conn shares one mutex.
func (s *wsFrameSink) SendTextFrame(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, []byte(message))
}

// sendPrefixed writes the "nextmessage: size=N" control frame followed
// by one binary frame carrying payload, the wire form spec.md §6
// defines for large/binary replies (tile bytes, text-file contents).
func (s *wsFrameSink) sendPrefixed(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, []byte(nextMessageHeader(len(payload)))); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, payload)
}

func nextMessageHeader(size int) string {
	return "nextmessage: size=" + strconv.Itoa(size)
}
