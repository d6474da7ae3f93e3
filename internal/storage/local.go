// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalBackend serves documents that live on the coordinator's own
// filesystem, addressed by file:// URIs or bare paths. This is the
// backend exercised by the package's own tests and by any e2e-style
// test elsewhere in the module that needs a real, non-mock Backend.
type LocalBackend struct{}

// NewLocalBackend returns a ready-to-use filesystem-backed Backend.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

func (b *LocalBackend) resolvePath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		u, err := url.Parse(uri)
		if err != nil {
			return "", fmt.Errorf("storage: parse %q: %w", uri, err)
		}
		return u.Path, nil
	}
	return uri, nil
}

func (b *LocalBackend) Validate(ctx context.Context, uri string) error {
	path, err := b.resolvePath(uri)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage: %s: %w", uri, ErrNotFound)
		}
		return fmt.Errorf("storage: validate %s: %w", uri, err)
	}
	return nil
}

func (b *LocalBackend) GetFileInfo(ctx context.Context, uri string) (FileInfo, error) {
	path, err := b.resolvePath(uri)
	if err != nil {
		return FileInfo{}, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileInfo{}, fmt.Errorf("storage: %s: %w", uri, ErrNotFound)
		}
		return FileInfo{}, fmt.Errorf("storage: stat %s: %w", uri, err)
	}
	return FileInfo{Size: fi.Size(), ModifiedTime: fi.ModTime()}, nil
}

func (b *LocalBackend) LoadStorageFileToLocal(ctx context.Context, uri, localPath string) (FileInfo, error) {
	path, err := b.resolvePath(uri)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := b.GetFileInfo(ctx, uri)
	if err != nil {
		return FileInfo{}, err
	}
	if err := copyFile(path, localPath); err != nil {
		return FileInfo{}, fmt.Errorf("storage: load %s to %s: %w", uri, localPath, err)
	}
	return info, nil
}

func (b *LocalBackend) SaveLocalFileToStorage(ctx context.Context, uri, localPath string) error {
	path, err := b.resolvePath(uri)
	if err != nil {
		return err
	}
	if err := copyFile(localPath, path); err != nil {
		return fmt.Errorf("storage: save %s from %s: %w", uri, localPath, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
