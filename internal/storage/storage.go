// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package storage is the document-storage collaborator a Broker drives
// to validate a URI, inspect the remote file, and move bytes in and
// out of the worker's jail. Grounded on DocumentBroker.cpp's use of
// StorageBase::create (original_source/loolwsd/DocumentBroker.cpp),
// which is the only place the original pins this interface's shape;
// no Storage.cpp shipped in the retrieval pack.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned by collaborators that don't implement a
// given operation (the RemoteBackend stub).
var ErrUnsupported = errors.New("storage: unsupported")

// ErrNotFound is returned when the backend has no file at the given
// URI.
var ErrNotFound = errors.New("storage: not found")

// FileInfo is what a Backend reports about the remote document before
// it's copied into the jail.
type FileInfo struct {
	Size         int64
	ModifiedTime time.Time
}

// Backend validates a document URI and moves its bytes between the
// backing store and the worker's local jail.
type Backend interface {
	// Validate probes the backend for access to uri, returning an error
	// (wrapping ErrNotFound where applicable) if it cannot be read.
	Validate(ctx context.Context, uri string) error

	// GetFileInfo reports size and modification time without copying
	// the file.
	GetFileInfo(ctx context.Context, uri string) (FileInfo, error)

	// LoadStorageFileToLocal copies uri's bytes into localPath (inside
	// the worker's jail) and returns the info observed at copy time.
	LoadStorageFileToLocal(ctx context.Context, uri, localPath string) (FileInfo, error)

	// SaveLocalFileToStorage copies localPath's bytes back to uri.
	SaveLocalFileToStorage(ctx context.Context, uri, localPath string) error
}
