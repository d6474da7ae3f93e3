// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package queue

import "strings"

// CancelableTileRequest is the canonical cancellation filter for the
// canceltiles protocol message: it matches tile requests that can be
// safely dropped from a session's pending queue, i.e. everything that
// begins with "tile " and carries no explicit id= tag.
func CancelableTileRequest(s string) bool {
	if !strings.HasPrefix(s, "tile ") {
		return false
	}
	return !strings.Contains(s, "id=")
}
