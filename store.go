package cadbridge

import (
	"sync"
	"time"
)

// SampleStore holds the most recent sample per container so a later poll can
// compute rate metrics from the pair. All access is serialized internally.
type SampleStore struct {
	mu      sync.Mutex
	samples map[string]storedSample
}

type storedSample struct {
	sample    ContainerSample
	refreshed time.Time
}

func NewSampleStore() *SampleStore {
	return &SampleStore{samples: make(map[string]storedSample)}
}

// Update swaps the stored sample for a container and returns what was there
// before, so a delta can be computed without a read-then-write race.
func (s *SampleStore) Update(name string, sample ContainerSample) (prev ContainerSample, hadPrev bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.samples[name]
	s.samples[name] = storedSample{sample: sample, refreshed: time.Now()}
	return old.sample, ok
}

// EvictBefore drops entries that have not been refreshed since cutoff.
// Containers absent from upstream output stop being referenced immediately;
// eviction only bounds memory over long uptimes with high container churn.
func (s *SampleStore) EvictBefore(cutoff time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, entry := range s.samples {
		if entry.refreshed.Before(cutoff) {
			delete(s.samples, name)
		}
	}
}

// Len reports the number of stored samples.
func (s *SampleStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}
