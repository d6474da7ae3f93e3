// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package broker

import "fmt"

// SendToWorker forwards message verbatim to the document's worker-facing
// connection, used by the client-facing session handler to relay tile
// requests, canceltiles, and uno .uno:Save commands (spec.md §6).
func (b *Broker) SendToWorker(message string) error {
	b.mu.Lock()
	sink := b.workerSink
	b.mu.Unlock()

	if sink == nil {
		return fmt.Errorf("broker: %s: no worker connected", b.docKey)
	}
	return sink.SendTextFrame(message)
}
