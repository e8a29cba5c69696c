// Package librenms renders the snapshot-mode document: the JSON array the
// LibreNMS docker application parses from an snmpd "extend" result.
package librenms

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	units "github.com/docker/go-units"

	"cadbridge"
)

// Entry is one container in the report.
type Entry struct {
	Container string  `json:"container"`
	CPU       float64 `json:"cpu"`
	PIDs      int     `json:"pids"`
	Memory    Memory  `json:"memory"`
	State     State   `json:"state"`
	Size      Size    `json:"size"`
}

// Memory carries the usage percentage plus human byte strings; LibreNMS
// parses the strings back to bytes with its Number::toBytes helper.
type Memory struct {
	Perc  float64 `json:"perc"`
	Used  string  `json:"used"`
	Limit string  `json:"limit"`
}

type State struct {
	Status string `json:"status"`
	Uptime *int64 `json:"uptime"`
}

type Size struct {
	SizeRW     *int64 `json:"size_rw"`
	SizeRootFS *int64 `json:"size_root_fs"`
}

// Build maps derived metrics into report entries, preserving order.
func Build(metrics []cadbridge.DerivedMetric) []Entry {
	entries := make([]Entry, 0, len(metrics))
	for _, m := range metrics {
		limit := m.MemoryLimit
		if cadbridge.MemoryUnbounded(limit) {
			limit = 0
		}

		var uptime *int64
		if m.HasUptime {
			secs := int64(m.Uptime.Seconds())
			uptime = &secs
		}

		entries = append(entries, Entry{
			Container: m.Name,
			CPU:       round2(m.CPUPercent),
			PIDs:      m.Processes,
			Memory: Memory{
				Perc:  round2(m.MemoryPercent),
				Used:  units.BytesSize(float64(m.MemoryUsed)),
				Limit: units.BytesSize(float64(limit)),
			},
			State: State{
				Status: m.State.DockerStatus(),
				Uptime: uptime,
			},
			Size: Size{
				SizeRW:     m.SizeRW,
				SizeRootFS: m.SizeRootFS,
			},
		})
	}
	return entries
}

// Write emits the report as a single JSON document. Zero containers produce
// an empty array, not an error.
func Write(w io.Writer, metrics []cadbridge.DerivedMetric) error {
	if err := json.NewEncoder(w).Encode(Build(metrics)); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
