package cadbridge

import "sync"

// IndexRecorder is notified of every new index allocation so the mapping can
// be persisted. Recording failures must not affect allocation.
type IndexRecorder interface {
	RecordIndex(name string, index int) error
}

// IndexAllocator assigns each container name a small stable integer for SNMP
// row addressing. Indices are handed out in first-seen order starting at 1
// and are never reused for a different name within the allocator's lifetime.
type IndexAllocator struct {
	mu       sync.Mutex
	byName   map[string]int
	next     int
	recorder IndexRecorder
}

// NewIndexAllocator creates an allocator, optionally seeded with a persisted
// name→index table. The next free index starts above the highest seeded
// value. recorder may be nil.
func NewIndexAllocator(seed map[string]int, recorder IndexRecorder) *IndexAllocator {
	a := &IndexAllocator{
		byName:   make(map[string]int, len(seed)),
		next:     1,
		recorder: recorder,
	}
	for name, idx := range seed {
		if idx < 1 {
			continue
		}
		a.byName[name] = idx
		if idx >= a.next {
			a.next = idx + 1
		}
	}
	return a
}

// Resolve returns the index for a container name, allocating the next unused
// one on first sight. Safe for concurrent use: two simultaneous callers never
// observe different indices for the same name.
func (a *IndexAllocator) Resolve(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if idx, ok := a.byName[name]; ok {
		return idx
	}

	idx := a.next
	a.next++
	a.byName[name] = idx

	if a.recorder != nil {
		// Persistence is best effort; the in-memory table is authoritative
		// for the life of the process.
		_ = a.recorder.RecordIndex(name, idx)
	}
	return idx
}

// Len reports how many names have been assigned an index.
func (a *IndexAllocator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byName)
}
