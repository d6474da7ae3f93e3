// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"strconv"
	"strings"

	"github.com/groupsio/loolcoord/internal/queue"
)

// EnqueueClientFrame applies the client-facing enqueue rules to one
// inbound frame and reports whether the caller's read loop should
// keep going.
//
//   - A close frame pushes queue.EOF and stops the loop.
//   - "canceltiles" with no trailing tokens drops any queued,
//     cancelable tile requests and is forwarded to the handler
//     directly, bypassing the queue.
//   - Anything else is deduplicated against the queue and enqueued.
//
// "nextmessage: size=N" is not handled here: the transport layer must
// recognize it before calling this function, read the N-byte payload
// itself, and hand it to ForwardDirect instead.
func (s *Session) EnqueueClientFrame(closed bool, firstLine string) bool {
	if closed {
		s.queue.Put(queue.EOF)
		return false
	}

	if firstLine == "canceltiles" {
		s.queue.RemoveIf(queue.CancelableTileRequest)
		return s.ForwardDirect(firstLine)
	}

	if !s.queue.AlreadyInQueue(firstLine) {
		s.queue.Put(firstLine)
	}
	return true
}

// ForwardDirect invokes the handler synchronously, bypassing the
// queue. Used for canceltiles and for size-prefixed payloads read via
// "nextmessage: size=N", and for every frame on a worker-facing
// session, which never queues at all.
func (s *Session) ForwardDirect(payload string) bool {
	s.Touch()
	return s.handler.HandleInput(payload)
}

// NextMessageSize parses a "nextmessage: size=N" control line. It
// reports ok=false if the line is not in that form.
func NextMessageSize(line string) (size int, ok bool) {
	const prefix = "nextmessage:"
	if !strings.HasPrefix(line, prefix) {
		return 0, false
	}
	rest := strings.TrimSpace(line[len(prefix):])
	const sizeKey = "size="
	if !strings.HasPrefix(rest, sizeKey) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest[len(sizeKey):]))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
