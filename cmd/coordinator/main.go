// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/groupsio/loolcoord/internal/app"
	"github.com/groupsio/loolcoord/internal/config"
	"github.com/groupsio/loolcoord/internal/storage"
	"github.com/groupsio/loolcoord/internal/worker"
)

// Exit codes per spec.md §6.
const (
	exitOK            = 0
	exitUnavailable   = 69
	exitConfigError   = 78
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		port          int
		cacheDir      string
		sysTemplate   string
		loTemplate    string
		childRoot     string
		loSubpath     string
		numPrespawns  int
		test          bool
		settingsPath  string
	)

	flag.IntVar(&port, "port", 9980, "HTTP listen port")
	flag.StringVar(&cacheDir, "cache", "", "tile cache root directory")
	flag.StringVar(&sysTemplate, "systemplate", "", "system chroot template directory (required)")
	flag.StringVar(&loTemplate, "lotemplate", "", "office install template directory (required)")
	flag.StringVar(&childRoot, "childroot", "", "root directory worker jails are rooted under (required)")
	flag.StringVar(&loSubpath, "losubpath", "", "office install subpath within each jail")
	flag.IntVar(&numPrespawns, "numprespawns", 0, "number of workers to prespawn")
	flag.BoolVar(&test, "test", false, "validate configuration and exit without serving")
	flag.StringVar(&settingsPath, "settings", "", "path to an HJSON settings file (default: spec defaults)")
	flag.Parse()

	logger := log.New(os.Stderr, "coordinator: ", log.LstdFlags)

	if sysTemplate == "" || loTemplate == "" || childRoot == "" {
		logger.Printf("missing required option(s): systemplate=%q lotemplate=%q childroot=%q", sysTemplate, loTemplate, childRoot)
		return exitConfigError
	}

	if cacheDir == "" {
		cacheDir = filepath.Join(childRoot, "cache")
	}
	if err := checkCacheDir(cacheDir); err != nil {
		logger.Printf("cache directory unavailable: %v", err)
		return exitUnavailable
	}

	cfg := config.Default()
	if settingsPath != "" {
		loaded, err := config.NewLoader().Load(settingsPath)
		if err != nil {
			logger.Printf("loading settings: %v", err)
			return exitConfigError
		}
		cfg = loaded
	}

	launcher := worker.NewLocalJailLauncher(prespawnCommand(loSubpath, numPrespawns))
	a := app.New(cfg, app.Options{
		CacheRoot: cacheDir,
		JailRoot:  childRoot,
		Launcher:  launcher,
		Store:     storage.NewLocalBackend(),
	}, 0, logger)

	if test {
		logger.Printf("configuration OK: cache=%s systemplate=%s lotemplate=%s childroot=%s", cacheDir, sysTemplate, loTemplate, childRoot)
		return exitOK
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: a.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(ctx) })
	g.Go(func() error {
		logger.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return srv.Close()
	})

	if err := g.Wait(); err != nil {
		logger.Printf("exiting: %v", err)
		return exitUnavailable
	}
	return exitOK
}

// checkCacheDir verifies the cache root is readable and writable,
// creating it if absent, per spec.md §6's exit code 69.
func checkCacheDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".write-probe")
	f, err := os.Create(probe)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(probe)
}

// prespawnCommand is a placeholder argv for the worker-kit process;
// the actual office renderer binary is out of scope (spec.md §1), so
// this only passes losubpath on to the worker-kit argv; numprespawns is
// accepted and not used.
func prespawnCommand(loSubpath string, numPrespawns int) []string {
	_ = numPrespawns
	if loSubpath == "" {
		return nil
	}
	return []string{"worker-kit", "--losubpath", loSubpath}
}
