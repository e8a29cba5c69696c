package cadbridge

import (
	"testing"
	"time"
)

func TestSampleStoreUpdateReturnsPrevious(t *testing.T) {
	store := NewSampleStore()

	first := sampleAt(t0, 100)
	if _, had := store.Update("web", first); had {
		t.Fatal("first update should report no previous sample")
	}

	second := sampleAt(t0.Add(10*time.Second), 200)
	prev, had := store.Update("web", second)
	if !had {
		t.Fatal("second update should report a previous sample")
	}
	if prev.CPUTotal != 100 {
		t.Fatalf("previous sample cpu total: got %d, want 100", prev.CPUTotal)
	}

	// The swap must have replaced, not kept, the old sample.
	prev, _ = store.Update("web", sampleAt(t0.Add(20*time.Second), 300))
	if prev.CPUTotal != 200 {
		t.Fatalf("previous sample cpu total after swap: got %d, want 200", prev.CPUTotal)
	}
}

func TestSampleStoreIsolatesContainers(t *testing.T) {
	store := NewSampleStore()
	store.Update("web", sampleAt(t0, 100))

	if _, had := store.Update("db", sampleAt(t0, 500)); had {
		t.Fatal("a different container must not see web's sample")
	}
}

func TestSampleStoreEvictBefore(t *testing.T) {
	store := NewSampleStore()
	store.Update("old", sampleAt(t0, 1))

	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	store.Update("fresh", sampleAt(t0, 2))

	store.EvictBefore(cutoff)

	if got := store.Len(); got != 1 {
		t.Fatalf("stored samples after eviction: got %d, want 1", got)
	}
	if _, had := store.Update("fresh", sampleAt(t0, 3)); !had {
		t.Fatal("fresh entry should have survived eviction")
	}
}
