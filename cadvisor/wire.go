package cadvisor

import (
	"strconv"
	"strings"
	"time"

	"cadbridge"
)

// Wire types mirror the /api/v1.3 JSON shapes. Every field is optional on
// the wire; absent fields decode to their zero value and are defaulted when
// mapped into ContainerSample.

type wireMachine struct {
	NumCores int `json:"num_cores"`
}

type wireContainer struct {
	Name    string     `json:"name"`
	Aliases []string   `json:"aliases"`
	Spec    wireSpec   `json:"spec"`
	Stats   []wireStat `json:"stats"`
}

type wireSpec struct {
	CreationTime time.Time         `json:"creation_time"`
	Labels       map[string]string `json:"labels"`
	Memory       struct {
		Limit uint64 `json:"limit"`
	} `json:"memory"`
	Filesystem struct {
		SizeRW     *int64 `json:"size_rw"`
		SizeRootFS *int64 `json:"size_root_fs"`
	} `json:"filesystem"`
}

type wireStat struct {
	Timestamp time.Time `json:"timestamp"`
	CPU       struct {
		Usage struct {
			Total uint64 `json:"total"`
		} `json:"usage"`
	} `json:"cpu"`
	Memory struct {
		Usage uint64 `json:"usage"`
	} `json:"memory"`
	Processes struct {
		ProcessCount uint64 `json:"process_count"`
	} `json:"processes"`
	Filesystem []wireFilesystem `json:"filesystem"`
}

type wireFilesystem struct {
	Device   string `json:"device"`
	Capacity uint64 `json:"capacity"`
	Usage    uint64 `json:"usage"`
}

const (
	kubernetesNameLabel = "io.kubernetes.container.name"
	composeNumberLabel  = "com.docker.compose.container-number"
)

// identifier resolves the stable container name: first alias, then the
// kubernetes container-name label, then the raw name or id truncated the way
// docker short ids are.
func (w wireContainer) identifier(id string) string {
	if len(w.Aliases) > 0 {
		return strings.TrimPrefix(w.Aliases[0], "/")
	}
	if name := w.Spec.Labels[kubernetesNameLabel]; name != "" {
		return name
	}
	name := w.Name
	if name == "" {
		name = id
	}
	name = strings.TrimPrefix(name, "/")
	if len(name) > 12 {
		name = name[:12]
	}
	return name
}

func (w wireContainer) restarts() int {
	n, err := strconv.Atoi(w.Spec.Labels[composeNumberLabel])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// samples maps one wire container to its chronological sample history. A
// container with no usable stats is still listed: cAdvisor drops stats for
// containers that stopped, and a stopping container has to report stopped
// rather than vanish from the row set.
func (w wireContainer) samples(id string, now time.Time) []cadbridge.ContainerSample {
	name := w.identifier(id)
	restarts := w.restarts()
	state := w.state(now)
	sizeRW, sizeRootFS := w.filesystemSizes()

	out := make([]cadbridge.ContainerSample, 0, len(w.Stats))
	for _, st := range w.Stats {
		if st.Timestamp.IsZero() {
			continue
		}
		out = append(out, cadbridge.ContainerSample{
			Name:        name,
			Timestamp:   st.Timestamp,
			CPUTotal:    st.CPU.Usage.Total,
			MemoryUsed:  st.Memory.Usage,
			MemoryLimit: w.Spec.Memory.Limit,
			Processes:   int(st.Processes.ProcessCount),
			State:       state,
			StartedAt:   w.Spec.CreationTime,
			SizeRW:      sizeRW,
			SizeRootFS:  sizeRootFS,
			Restarts:    restarts,
		})
	}
	if len(out) == 0 {
		out = append(out, cadbridge.ContainerSample{
			Name:       name,
			Timestamp:  now,
			State:      cadbridge.StateStopped,
			StartedAt:  w.Spec.CreationTime,
			SizeRW:     sizeRW,
			SizeRootFS: sizeRootFS,
			Restarts:   restarts,
		})
	}
	return out
}

// state derives the container state from stat freshness: cAdvisor only
// tracks running containers, so a stale newest stat means the container is
// gone or stopped.
func (w wireContainer) state(now time.Time) cadbridge.State {
	if len(w.Stats) == 0 {
		return cadbridge.StateStopped
	}
	newest := w.Stats[len(w.Stats)-1].Timestamp
	if newest.IsZero() || now.Sub(newest) > staleAfter {
		return cadbridge.StateStopped
	}
	return cadbridge.StateRunning
}

// filesystemSizes resolves the writable-layer and root filesystem sizes.
// cAdvisor does not expose docker's size_rw; the root size comes from the
// root device capacity in the newest stat, falling back to spec-declared
// sizes, then to any reported filesystem usage.
func (w wireContainer) filesystemSizes() (sizeRW, sizeRootFS *int64) {
	sizeRW = w.Spec.Filesystem.SizeRW

	if len(w.Stats) > 0 {
		newest := w.Stats[len(w.Stats)-1]
		for _, fs := range newest.Filesystem {
			if fs.Device == "/" || strings.Contains(strings.ToLower(fs.Device), "root") {
				if fs.Capacity > 0 {
					v := int64(fs.Capacity)
					return sizeRW, &v
				}
			}
		}
	}

	if w.Spec.Filesystem.SizeRootFS != nil {
		return sizeRW, w.Spec.Filesystem.SizeRootFS
	}

	for i := len(w.Stats) - 1; i >= 0; i-- {
		for _, fs := range w.Stats[i].Filesystem {
			if fs.Usage > 0 {
				v := int64(fs.Usage)
				return sizeRW, &v
			}
		}
	}
	return sizeRW, nil
}
