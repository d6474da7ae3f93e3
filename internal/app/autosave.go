// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"time"
)

// autosaveSweepInterval is how often runAutosave re-evaluates every
// live broker's idle/hard-save thresholds. It is deliberately finer
// than the default idle-save threshold itself so a document crosses
// it within one interval of going idle.
const autosaveSweepInterval = 5 * time.Second

// runAutosave periodically asks every registered broker to evaluate
// its own AutoSave policy, the coordinator-side analogue of
// DocumentBroker's periodic autoSave poll in the original loolwsd
// sources. Each Broker decides for itself whether a save is due; this
// loop only supplies the tick.
func (a *App) runAutosave(ctx context.Context) error {
	ticker := time.NewTicker(autosaveSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, b := range a.registry.Brokers() {
				b.AutoSave(false)
			}
		}
	}
}
