// Package cache persists reconciled orders locally.
//
// The cache is one flat dictionary keyed by order number, stored as a
// single serialized blob and replaced wholesale on every refresh:
// last full refresh wins, with no merge, TTL, or partial update. Reads
// are synchronous and opportunistic: a miss is normal, not an error.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sellertools/labelassist/internal/orders"
)

// Store is the sqlite-backed cache
type Store struct {
	db *sql.DB
}

// Open creates or opens the cache database at the given path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// One row holds the whole dictionary
	schema := `
	CREATE TABLE IF NOT EXISTS label_cache (
		id   INTEGER PRIMARY KEY CHECK (id = 1),
		blob TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SetAll replaces the entire cache with the given set
func (s *Store) SetAll(set orders.Set) error {
	blob, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO label_cache (id, blob) VALUES (1, ?)`, string(blob))
	if err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	return nil
}

// Get returns the cached record for an order number, if present
func (s *Store) Get(orderNumber string) (*orders.Reconciled, bool) {
	set, err := s.All()
	if err != nil {
		return nil, false
	}

	rec, ok := set[orderNumber]
	if !ok {
		return nil, false
	}
	return &rec, true
}

// All returns the full cached set; empty when never written
func (s *Store) All() (orders.Set, error) {
	var blob string
	err := s.db.QueryRow(`SELECT blob FROM label_cache WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return orders.Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var set orders.Set
	if err := json.Unmarshal([]byte(blob), &set); err != nil {
		return nil, fmt.Errorf("failed to decode cache: %w", err)
	}
	if set == nil {
		set = orders.Set{}
	}

	return set, nil
}
