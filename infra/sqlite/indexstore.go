// Package sqlite persists the container name→index table so SNMP row
// identities survive bridge restarts and LibreNMS graphs keep their history.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"cadbridge"
)

// IndexStore is the durable side of the index allocator.
type IndexStore struct {
	db *sql.DB
}

var _ cadbridge.IndexRecorder = (*IndexStore)(nil)

// Open opens (creating as needed) the index database at path.
func Open(path string) (*IndexStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS container_indices (
	name        TEXT PRIMARY KEY,
	idx         INTEGER NOT NULL UNIQUE,
	assigned_at TEXT NOT NULL
)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure index schema: %w", err)
	}

	return &IndexStore{db: db}, nil
}

// Load returns the persisted name→index table, for seeding the allocator.
func (s *IndexStore) Load() (map[string]int, error) {
	rows, err := s.db.Query(`SELECT name, idx FROM container_indices`)
	if err != nil {
		return nil, fmt.Errorf("load container indices: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			name string
			idx  int
		)
		if err := rows.Scan(&name, &idx); err != nil {
			return nil, fmt.Errorf("scan container index row: %w", err)
		}
		out[name] = idx
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate container index rows: %w", err)
	}
	return out, nil
}

// RecordIndex writes through a new allocation. Existing rows are left
// untouched: an index, once assigned, is never reassigned.
func (s *IndexStore) RecordIndex(name string, index int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO container_indices (name, idx, assigned_at) VALUES (?, ?, ?)`,
		name, index, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record index for %q: %w", name, err)
	}
	return nil
}

func (s *IndexStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
