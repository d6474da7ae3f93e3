// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package admin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Query answers one of the read-only admin console commands listed in
// spec.md §4.4, replying with the command token followed by the
// result (per spec.md §6's admin interface convention).
func (m *Model) Query(command string) string {
	switch command {
	case "documents":
		return "documents " + m.documentsReport()
	case "active_users_count":
		return "active_users_count " + strconv.Itoa(m.ActiveUsersCount())
	case "active_docs_count":
		return "active_docs_count " + strconv.Itoa(m.ActiveDocsCount())
	case "mem_stats":
		return "mem_stats " + joinInts(m.MemStats())
	case "mem_stats_size":
		return "mem_stats_size " + strconv.Itoa(m.MemStatsSize())
	case "cpu_stats":
		return "cpu_stats " + joinInts(m.CPUStats())
	case "cpu_stats_size":
		return "cpu_stats_size " + strconv.Itoa(m.CPUStatsSize())
	case "total_mem":
		total := int64(0)
		for _, v := range m.MemStats() {
			total = v // the latest sample is the current total
		}
		return "total_mem " + strconv.FormatInt(total, 10)
	default:
		return fmt.Sprintf("error: unknown command %q", command)
	}
}

func joinInts(vals []int64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, " ")
}

// documentsReport builds the newline-separated "documents" record set
// spec.md §4.3 specifies: one line per non-expired document of
// "pid urlenc(filename) active_views mem_kb elapsed_ms", grounded on
// AdminModel::getDocuments in the original sources.
func (m *Model) documentsReport() string {
	var sb strings.Builder
	for _, d := range m.Documents() {
		if d.Expired() {
			continue
		}
		fmt.Fprintf(&sb, "%d %s %d %d %d\n",
			d.PID,
			url.QueryEscape(d.Filename),
			d.ActiveViews(),
			pidMemoryKB(d.PID),
			d.ElapsedMS(),
		)
	}
	return sb.String()
}

// pidMemoryKB reports a process's RSS in KB, or 0 if it cannot be
// inspected (e.g. already exited), mirroring Util::getMemoryUsage.
func pidMemoryKB(pid int) int64 {
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0
	}
	info, err := proc.MemoryInfo()
	if err != nil || info == nil {
		return 0
	}
	return int64(info.RSS / 1024)
}
