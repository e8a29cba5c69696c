// Package cadbridge bridges cAdvisor container metrics into the SNMP
// management plane. The root package holds the domain types and the pure
// derivation logic; protocol surfaces live in the snmp and librenms packages.
package cadbridge

import "time"

// State is the normalized container state enumeration.
type State uint8

const (
	StateUnknown State = iota
	StateRunning
	StateStopped
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Code returns the SNMP integer encoding of the state.
func (s State) Code() int {
	switch s {
	case StateRunning:
		return 1
	case StateStopped:
		return 2
	case StatePaused:
		return 3
	default:
		return 4
	}
}

// DockerStatus returns the docker-style status string used by the LibreNMS
// docker application, which has no "stopped" state of its own.
func (s State) DockerStatus() string {
	if s == StateStopped {
		return "exited"
	}
	return s.String()
}

// ParseState normalizes a runtime-reported status string.
func ParseState(s string) State {
	switch s {
	case "running", "up", "active", "restarting", "created":
		return StateRunning
	case "stopped", "exited", "dead", "removing":
		return StateStopped
	case "paused":
		return StatePaused
	default:
		return StateUnknown
	}
}

// ContainerSample is one observation of a container, captured at the upstream
// API boundary. Samples are immutable; each poll supersedes the previous
// sample for the same container rather than mutating it.
type ContainerSample struct {
	// Name identifies the container. It is stable across polls and across
	// container re-creations (unlike the runtime-assigned container id),
	// which is what SNMP row identity needs.
	Name      string
	Timestamp time.Time

	// CPUTotal is the cumulative CPU time consumed since container start,
	// in nanoseconds. Monotonic except across container restarts.
	CPUTotal uint64

	MemoryUsed  uint64
	MemoryLimit uint64

	Processes int
	State     State

	// StartedAt is the container creation time. Zero when the upstream
	// response did not carry one.
	StartedAt time.Time

	// SizeRW and SizeRootFS are filesystem sizes in bytes. Nil when the
	// upstream response did not report them.
	SizeRW     *int64
	SizeRootFS *int64

	// Restarts comes from the compose container-number label; 0 when absent.
	Restarts int
}
