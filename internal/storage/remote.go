// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
)

// RemoteBackend is the seam for a networked content provider (WOPI-
// style host, object store, etc). No such client ships in this
// module's retrieval pack, so every operation fails with
// ErrUnsupported; a real deployment supplies its own Backend
// implementation instead of this stub.
type RemoteBackend struct {
	Endpoint string
}

func (b *RemoteBackend) Validate(ctx context.Context, uri string) error {
	return fmt.Errorf("storage: remote backend %s: %w", b.Endpoint, ErrUnsupported)
}

func (b *RemoteBackend) GetFileInfo(ctx context.Context, uri string) (FileInfo, error) {
	return FileInfo{}, fmt.Errorf("storage: remote backend %s: %w", b.Endpoint, ErrUnsupported)
}

func (b *RemoteBackend) LoadStorageFileToLocal(ctx context.Context, uri, localPath string) (FileInfo, error) {
	return FileInfo{}, fmt.Errorf("storage: remote backend %s: %w", b.Endpoint, ErrUnsupported)
}

func (b *RemoteBackend) SaveLocalFileToStorage(ctx context.Context, uri, localPath string) error {
	return fmt.Errorf("storage: remote backend %s: %w", b.Endpoint, ErrUnsupported)
}
