package sqlite

import (
	"path/filepath"
	"testing"
)

func TestIndexStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "indices.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := store.RecordIndex("web", 1); err != nil {
		t.Fatalf("record web: %v", err)
	}
	if err := store.RecordIndex("db", 2); err != nil {
		t.Fatalf("record db: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// A reopen sees the same assignments.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := map[string]int{"web": 1, "db": 2}
	if len(got) != len(want) {
		t.Fatalf("loaded indices: got %v, want %v", got, want)
	}
	for name, idx := range want {
		if got[name] != idx {
			t.Fatalf("index for %s: got %d, want %d", name, got[name], idx)
		}
	}
}

func TestRecordIndexNeverReassigns(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "indices.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.RecordIndex("web", 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	// Writing the same name again is a no-op, not an error.
	if err := store.RecordIndex("web", 9); err != nil {
		t.Fatalf("re-record: %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got["web"] != 1 {
		t.Fatalf("index after re-record: got %d, want 1", got["web"])
	}
}

func TestLoadEmptyStore(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "indices.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	got, err := store.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("fresh store: got %v, want empty", got)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "indices.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("open with missing parents: %v", err)
	}
	store.Close()
}
