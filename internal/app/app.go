// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires the coordinator's collaborators together: the
// broker registry, the admin model/bus, the worker supervisor, the
// resource samplers, and the websocket transport. Grounded on
// trellis's internal/app.App (internal/app/app.go in the teacher
// repo), which plays the identical role of owning every long-lived
// collaborator and exposing one Router() for cmd/trellis to mount.
package app

import (
	"context"
	"log"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/gorilla/mux"
	"github.com/groupsio/loolcoord/internal/admin"
	"github.com/groupsio/loolcoord/internal/broker"
	"github.com/groupsio/loolcoord/internal/config"
	"github.com/groupsio/loolcoord/internal/storage"
	"github.com/groupsio/loolcoord/internal/transport"
	"github.com/groupsio/loolcoord/internal/worker"
)

// App owns every collaborator the coordinator process needs for its
// lifetime and assembles the HTTP router mounting them, mirroring how
// trellis's internal/app.App composes ServiceManager, WorktreeManager,
// WorkflowRunner, and EventBus into api.NewRouter.
type App struct {
	cfg        *config.Config
	logger     *log.Logger
	registry   *broker.Registry
	model      *admin.Model
	bus        *admin.Bus
	supervisor *worker.Supervisor
	memSampler *admin.MemSampler
	cpuSampler *admin.CPUSampler

	admin   *transport.AdminHandler
	session *transport.SessionHandler
}

// Options carries the constructor dependencies that come from parsed
// CLI flags in cmd/coordinator (spec.md §6), distinct from cfg's
// HJSON-sourced settings.
type Options struct {
	CacheRoot string
	JailRoot  string
	Launcher  worker.Launcher
	Store     storage.Backend
}

// New builds an App ready to Run. parentPID, when nonzero, is included
// in the memory sampler's RSS total (spec.md §4.7).
func New(cfg *config.Config, opts Options, parentPID int, logger *log.Logger) *App {
	idleSave, autoSave, memInterval, cpuInterval := cfg.Durations()

	registry := broker.NewRegistry(opts.CacheRoot, opts.Store, logger, idleSave, autoSave)

	model := admin.NewModel(nil, cfg.Samplers.MemStatsSize, cfg.Samplers.CPUStatsSize, os.Getpid())
	killer := worker.NewKiller(logger)
	bus := admin.NewBus(model, killer)
	model.SetNotifier(bus)

	supervisor := worker.NewSupervisor(opts.Launcher, func(jailID string, err error) {
		logger.Printf("app: worker jail %s gone: %v", jailID, err)
		if b, ok := registry.Lookup(jailID); ok {
			b.MarkWorkerGone()
		}
		registry.Remove(jailID)
	})

	memSampler := admin.NewMemSampler(model, supervisor, parentPID, memInterval)
	cpuSampler := admin.NewCPUSampler(model, cpuInterval)

	a := &App{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		model:      model,
		bus:        bus,
		supervisor: supervisor,
		memSampler: memSampler,
		cpuSampler: cpuSampler,
	}
	a.admin = transport.NewAdminHandler(bus, cfg.Admin.Username, cfg.Admin.Password, logger)
	a.session = transport.NewSessionHandler(registry, supervisor, model, opts.JailRoot, logger)
	return a
}

// Router builds the mux.Router exposing the admin console and the
// client/worker session endpoints, the way trellis's api.NewRouter
// mounts its own handlers onto a gorilla/mux router.
func (a *App) Router() *mux.Router {
	r := mux.NewRouter()
	// DocKey is percent-escaped (dockey.Key uses url.QueryEscape, so a
	// multi-segment path produces %2F); without UseEncodedPath, net/http
	// decodes the request path before mux matches it, turning a single
	// {jailid} segment back into several and breaking the route.
	r.UseEncodedPath()
	r.HandleFunc("/lool/adminws", a.admin.ServeHTTP)
	r.HandleFunc("/lool/ws", a.session.ServeClient)
	r.HandleFunc("/lool/{jailid}/ws", func(w http.ResponseWriter, req *http.Request) {
		a.session.ServeWorker(mux.Vars(req)["jailid"], w, req)
	})
	return r
}

// Run starts the background samplers and autosave sweep, blocking
// until ctx is canceled. Grounded on the errgroup.Group pattern
// admin/sampler.go's doc comments call out as MemSampler.Run's
// intended caller.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.memSampler.Run(ctx) })
	g.Go(func() error { return a.cpuSampler.Run(ctx) })
	g.Go(func() error { return a.runAutosave(ctx) })
	return g.Wait()
}

// Registry exposes the broker registry for callers (tests, the CLI's
// --test probe) that need to reach it directly.
func (a *App) Registry() *broker.Registry { return a.registry }

// Model exposes the admin model for callers that need to reach it
// directly.
func (a *App) Model() *admin.Model { return a.model }
