// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package e2e exercises the coordinator end to end over real HTTP and
// websocket connections, the way trellis's own e2e package drove its
// API server with httptest.NewServer rather than calling handlers
// directly.
package e2e

import (
	"context"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/groupsio/loolcoord/internal/app"
	"github.com/groupsio/loolcoord/internal/config"
	"github.com/groupsio/loolcoord/internal/storage"
	"github.com/groupsio/loolcoord/internal/worker"
)

// fakeLauncher stands in for the real office-renderer process launch,
// out of scope per spec.md §1; it hands back a WorkerHandle for a PID
// that never actually exits during a test run.
type fakeLauncher struct {
	nextPID int
}

func (f *fakeLauncher) Spawn(ctx context.Context, jailID string) (*worker.WorkerHandle, error) {
	f.nextPID++
	return &worker.WorkerHandle{PID: f.nextPID, JailID: jailID}, nil
}

func newTestApp(t *testing.T) (*app.App, string) {
	t.Helper()
	cacheDir := t.TempDir()
	jailRoot := t.TempDir()

	cfg := config.Default()
	logger := log.New(os.Stderr, "e2e: ", log.LstdFlags)

	a := app.New(cfg, app.Options{
		CacheRoot: cacheDir,
		JailRoot:  jailRoot,
		Launcher:  &fakeLauncher{},
		Store:     storage.NewLocalBackend(),
	}, 0, logger)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.Run(ctx)

	return a, jailRoot
}

func dialWS(t *testing.T, serverURL, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// TestLoadDocumentAndFetchTile drives the client protocol from
// spec.md §6: connect, send "load url=...", then request a tile and
// expect a worker round trip to populate it.
func TestLoadDocumentAndFetchTile(t *testing.T) {
	a, _ := newTestApp(t)
	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	docPath := filepath.Join(t.TempDir(), "hello.odt")
	if err := os.WriteFile(docPath, []byte("fake document bytes"), 0o644); err != nil {
		t.Fatalf("write fixture document: %v", err)
	}
	docURL := "file://" + docPath

	client := dialWS(t, srv.URL, "/lool/ws")
	if err := client.WriteMessage(websocket.TextMessage, []byte("load url="+docURL)); err != nil {
		t.Fatalf("send load: %v", err)
	}

	if a.Model().ActiveDocsCount() == 0 {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) && a.Model().ActiveDocsCount() == 0 {
			time.Sleep(10 * time.Millisecond)
		}
	}
	if got := a.Model().ActiveDocsCount(); got != 1 {
		t.Fatalf("ActiveDocsCount() = %d, want 1", got)
	}

	docKey := a.Registry().Brokers()[0].DocKey()
	jailConn := dialWS(t, srv.URL, "/lool/"+docKey+"/ws")

	client.WriteMessage(websocket.TextMessage, []byte("tile part=0 width=256 height=256 tileposx=0 tileposy=0 tilewidth=3840 tileheight=3840"))

	mt, data, err := jailConn.ReadMessage()
	if err != nil {
		t.Fatalf("worker did not receive tile request: %v", err)
	}
	if mt != websocket.TextMessage || !strings.HasPrefix(string(data), "tile ") {
		t.Fatalf("worker got unexpected frame: %q", data)
	}

	image := []byte("fake-png-bytes")
	reply := string(data) + "\n" + string(image)
	header := "nextmessage: size=" + strconv.Itoa(len(reply))
	if err := jailConn.WriteMessage(websocket.TextMessage, []byte(header)); err != nil {
		t.Fatalf("send nextmessage header: %v", err)
	}
	if err := jailConn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
		t.Fatalf("send tile payload: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, lockFrame, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client did not receive edit lock frame: %v", err)
	}
	if string(lockFrame) != "editlock: 1" {
		t.Fatalf("unexpected first client frame: %q", lockFrame)
	}
	_, headerFrame, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client did not receive tile header: %v", err)
	}
	if !strings.HasPrefix(string(headerFrame), "nextmessage: size=") {
		t.Fatalf("unexpected tile header: %q", headerFrame)
	}
	_, tileFrame, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("client did not receive rendered tile bytes: %v", err)
	}
	if !strings.Contains(string(tileFrame), "fake-png-bytes") {
		t.Fatalf("tile frame missing image bytes: %q", tileFrame)
	}
}

// TestUnauthorizedAdminConnection checks the admin console's HTTP
// Basic auth challenge from spec.md §7.
func TestUnauthorizedAdminConnection(t *testing.T) {
	cacheDir := t.TempDir()
	jailRoot := t.TempDir()
	cfg := config.Default()
	cfg.Admin.Username = "admin"
	cfg.Admin.Password = "secret"

	a := app.New(cfg, app.Options{
		CacheRoot: cacheDir,
		JailRoot:  jailRoot,
		Launcher:  &fakeLauncher{},
		Store:     storage.NewLocalBackend(),
	}, 0, log.New(os.Stderr, "e2e: ", log.LstdFlags))

	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/lool/adminws")
	if err != nil {
		t.Fatalf("GET adminws: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if got := resp.Header.Get("WWW-Authenticate"); got != `Basic realm="online"` {
		t.Fatalf("WWW-Authenticate = %q", got)
	}
}
