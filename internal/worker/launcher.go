// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package worker

import "context"

// Launcher starts a new worker-jail process for a document and
// returns a handle to supervise it. Capability dropping and chroot(2)
// remain genuinely out of scope (spec.md §1); this is the seam a real
// deployment plugs a sandboxed launcher into.
type Launcher interface {
	Spawn(ctx context.Context, jailID string) (*WorkerHandle, error)
}
