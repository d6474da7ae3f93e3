// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalBackendValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.odt")
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewLocalBackend()
	if err := b.Validate(context.Background(), path); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := b.Validate(context.Background(), filepath.Join(dir, "missing.odt")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestLocalBackendLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "doc.odt")
	if err := os.WriteFile(srcPath, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewLocalBackend()
	jailPath := filepath.Join(dir, "jail", "doc.odt")
	info, err := b.LoadStorageFileToLocal(context.Background(), srcPath, jailPath)
	if err != nil {
		t.Fatalf("LoadStorageFileToLocal: %v", err)
	}
	if info.Size != int64(len("original")) {
		t.Fatalf("got size %d", info.Size)
	}
	got, err := os.ReadFile(jailPath)
	if err != nil || string(got) != "original" {
		t.Fatalf("got %q, err %v", got, err)
	}

	if err := os.WriteFile(jailPath, []byte("edited"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := b.SaveLocalFileToStorage(context.Background(), srcPath, jailPath); err != nil {
		t.Fatalf("SaveLocalFileToStorage: %v", err)
	}
	got, err = os.ReadFile(srcPath)
	if err != nil || string(got) != "edited" {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestLocalBackendFileURI(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.odt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := NewLocalBackend()
	if err := b.Validate(context.Background(), "file://"+path); err != nil {
		t.Fatalf("Validate file:// uri: %v", err)
	}
}

func TestRemoteBackendUnsupported(t *testing.T) {
	b := &RemoteBackend{Endpoint: "https://example.com"}
	if _, err := b.GetFileInfo(context.Background(), "x"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v, want ErrUnsupported", err)
	}
	if err := b.Validate(context.Background(), "x"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("got %v, want ErrUnsupported", err)
	}
}
