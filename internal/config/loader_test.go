// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coordinator.hjson")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoaderAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{
		admin: { username: admin, password: secret }
	}`)

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Admin.Username != "admin" || cfg.Admin.Password != "secret" {
		t.Fatalf("admin creds not loaded: %+v", cfg.Admin)
	}
	if cfg.Samplers.MemStatsSize != DefaultMemStatsSize {
		t.Fatalf("expected default mem_stats_size, got %d", cfg.Samplers.MemStatsSize)
	}

	idleSave, autoSave, memInterval, cpuInterval := cfg.Durations()
	if idleSave != DefaultIdleSave || autoSave != DefaultAutoSave {
		t.Fatalf("expected default autosave thresholds, got idle=%v auto=%v", idleSave, autoSave)
	}
	if memInterval != DefaultMemStatsInterval || cpuInterval != DefaultCPUStatsInterval {
		t.Fatalf("expected default sampler intervals, got mem=%v cpu=%v", memInterval, cpuInterval)
	}
}

func TestLoaderHonorsExplicitOverrides(t *testing.T) {
	path := writeConfig(t, `{
		autosave: { idle_save: "5s", auto_save: "1m" }
		samplers: { mem_stats_size: 10, cpu_stats_size: 20, mem_stats_interval: "1s" }
	}`)

	cfg, err := NewLoader().Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	idleSave, autoSave, memInterval, _ := cfg.Durations()
	if idleSave != 5*time.Second || autoSave != time.Minute {
		t.Fatalf("got idle=%v auto=%v", idleSave, autoSave)
	}
	if memInterval != time.Second {
		t.Fatalf("got mem interval %v", memInterval)
	}
	if cfg.Samplers.MemStatsSize != 10 || cfg.Samplers.CPUStatsSize != 20 {
		t.Fatalf("got stats sizes %+v", cfg.Samplers)
	}
}

func TestLoaderRejectsMissingFile(t *testing.T) {
	if _, err := NewLoader().Load(filepath.Join(t.TempDir(), "nope.hjson")); err == nil {
		t.Fatal("expected an error for a missing config file")
	}
}

func TestDefaultConfigMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	idleSave, autoSave, memInterval, cpuInterval := cfg.Durations()
	if idleSave != DefaultIdleSave || autoSave != DefaultAutoSave {
		t.Fatalf("Default() autosave mismatch: idle=%v auto=%v", idleSave, autoSave)
	}
	if memInterval != DefaultMemStatsInterval || cpuInterval != DefaultCPUStatsInterval {
		t.Fatalf("Default() sampler interval mismatch: mem=%v cpu=%v", memInterval, cpuInterval)
	}
}
