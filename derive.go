package cadbridge

import "time"

// memoryUnboundedSentinel marks the smallest memory limit treated as "no
// ceiling". cAdvisor reports uncapped containers with max-int64 rounded down
// to a page boundary, so anything at or above 2^62 is taken as unbounded.
const memoryUnboundedSentinel = uint64(1) << 62

// MemoryUnbounded reports whether a memory limit means "no ceiling": zero or
// the platform's unbounded sentinel. Such limits yield a memory percentage
// of 0, never a division error.
func MemoryUnbounded(limit uint64) bool {
	return limit == 0 || limit >= memoryUnboundedSentinel
}

// DerivedMetric is the per-container result of one poll cycle. Computed
// fresh each poll, never persisted.
type DerivedMetric struct {
	Name  string
	State State

	// CPUPercent is normalized across cores and clamped to [0, 100].
	CPUPercent float64

	MemoryUsed    uint64
	MemoryLimit   uint64
	MemoryPercent float64

	Processes int
	Restarts  int

	// Uptime is only meaningful when HasUptime is true; the upstream API
	// does not always report a container start time.
	Uptime    time.Duration
	HasUptime bool

	SizeRW     *int64
	SizeRootFS *int64
}

// CPUHundredths returns the CPU percentage as an integer count of
// hundredths, the encoding the SNMP sub-tree transmits.
func (m DerivedMetric) CPUHundredths() int {
	return int(m.CPUPercent*100 + 0.5)
}

// Derive computes the metrics for one container from the current sample and,
// for rate-based metrics, the previous one. prev may be nil: the first poll
// after (re)start has no history and reports a CPU rate of zero rather than
// an error. A CPU counter that went backwards (container restart) is treated
// the same way.
func Derive(prev *ContainerSample, cur ContainerSample, numCores int) DerivedMetric {
	if numCores < 1 {
		numCores = 1
	}

	m := DerivedMetric{
		Name:        cur.Name,
		State:       cur.State,
		MemoryUsed:  cur.MemoryUsed,
		MemoryLimit: cur.MemoryLimit,
		Processes:   cur.Processes,
		Restarts:    cur.Restarts,
		SizeRW:      cur.SizeRW,
		SizeRootFS:  cur.SizeRootFS,
	}

	if prev != nil && cur.CPUTotal >= prev.CPUTotal {
		elapsed := cur.Timestamp.Sub(prev.Timestamp).Seconds()
		if elapsed > 0 {
			cpuSeconds := float64(cur.CPUTotal-prev.CPUTotal) / 1e9
			pct := cpuSeconds / elapsed * 100 / float64(numCores)
			m.CPUPercent = min(max(pct, 0), 100)
		}
	}

	if !MemoryUnbounded(cur.MemoryLimit) {
		m.MemoryPercent = float64(cur.MemoryUsed) / float64(cur.MemoryLimit) * 100
	}

	if !cur.StartedAt.IsZero() {
		m.Uptime = max(cur.Timestamp.Sub(cur.StartedAt), 0)
		m.HasUptime = true
	}

	return m
}
