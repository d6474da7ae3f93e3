// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading for the
// coordinator's process-wide settings: admin console credentials,
// autosave thresholds, and sampler intervals. The CLI surface in
// spec.md §6 (--port, --cache, --systemplate, --lotemplate,
// --childroot, --losubpath, --numprespawns, --test) is parsed
// separately with stdlib flag in cmd/coordinator, the way
// cmd/trellis/main.go kept flag parsing out of the config package.
package config

import "time"

// Config is the root of the coordinator's HJSON settings file.
// Unlike the CLI flags, none of these fields are required: ApplyDefaults
// fills in the sampler and autosave fields, and empty admin credentials
// are left empty, which turns off the admin console's Basic auth.
type Config struct {
	Admin    AdminConfig    `json:"admin"`
	Autosave AutosaveConfig `json:"autosave"`
	Samplers SamplersConfig `json:"samplers"`
}

// AdminConfig configures HTTP Basic auth for the admin console
// websocket (spec.md §7: "Unauthorized — admin endpoint without valid
// credentials; reply with challenge").
type AdminConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AutosaveConfig overrides the default autosave thresholds from
// spec.md §4.6. A zero value means "use the spec default".
type AutosaveConfig struct {
	IdleSave string `json:"idle_save"` // duration string, e.g. "30s"
	AutoSave string `json:"auto_save"` // duration string, e.g. "10m"
}

// SamplersConfig configures the memory/CPU resource samplers from
// spec.md §4.7.
type SamplersConfig struct {
	MemStatsSize     int    `json:"mem_stats_size"`
	CPUStatsSize     int    `json:"cpu_stats_size"`
	MemStatsInterval string `json:"mem_stats_interval"`
	CPUStatsInterval string `json:"cpu_stats_interval"`
}

// Defaults mirror spec.md §4.6/§4.7/§9.
const (
	DefaultIdleSave         = 30 * time.Second
	DefaultAutoSave         = 10 * time.Minute
	DefaultMemStatsSize     = 100
	DefaultCPUStatsSize     = 100
	DefaultMemStatsInterval = 5 * time.Second
	DefaultCPUStatsInterval = 5 * time.Second
)

// ApplyDefaults fills every unset field with its spec-mandated
// default, the way trellis's own loader.applyDefaults does for its
// much larger config (internal/config/loader.go in the teacher repo).
func (c *Config) ApplyDefaults() {
	if c.Samplers.MemStatsSize == 0 {
		c.Samplers.MemStatsSize = DefaultMemStatsSize
	}
	if c.Samplers.CPUStatsSize == 0 {
		c.Samplers.CPUStatsSize = DefaultCPUStatsSize
	}
	if c.Samplers.MemStatsInterval == "" {
		c.Samplers.MemStatsInterval = DefaultMemStatsInterval.String()
	}
	if c.Samplers.CPUStatsInterval == "" {
		c.Samplers.CPUStatsInterval = DefaultCPUStatsInterval.String()
	}
	if c.Autosave.IdleSave == "" {
		c.Autosave.IdleSave = DefaultIdleSave.String()
	}
	if c.Autosave.AutoSave == "" {
		c.Autosave.AutoSave = DefaultAutoSave.String()
	}
}

// Durations parses the interval/threshold fields, falling back to the
// spec defaults on a parse error rather than failing configuration
// load outright — the wire protocol's "forgiving by design" policy
// (spec.md §7) extended to settings.
func (c *Config) Durations() (idleSave, autoSave, memInterval, cpuInterval time.Duration) {
	idleSave = parseDurationOr(c.Autosave.IdleSave, DefaultIdleSave)
	autoSave = parseDurationOr(c.Autosave.AutoSave, DefaultAutoSave)
	memInterval = parseDurationOr(c.Samplers.MemStatsInterval, DefaultMemStatsInterval)
	cpuInterval = parseDurationOr(c.Samplers.CPUStatsInterval, DefaultCPUStatsInterval)
	return
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
