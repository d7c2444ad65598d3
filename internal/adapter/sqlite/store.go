// Package sqlite persists the threshold cache as one JSON record per chart in
// a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/stripchart-etl/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);`

// ThresholdStore reads and writes one ThresholdSet per chart id. Writes
// replace the whole record; concurrent writers resolve last-writer-wins.
type ThresholdStore struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens (creating if needed) the database at path and prepares the cache
// table.
func New(path string) (*ThresholdStore, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open threshold cache: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate threshold cache: %w", err)
	}
	return &ThresholdStore{conn: conn}, nil
}

// Load returns the set cached for chartID, or nil when nothing has been
// stored yet.
func (s *ThresholdStore) Load(ctx context.Context, chartID string) (*domain.ThresholdSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM cache WHERE key = ?`, cacheKey(chartID)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}

	var set domain.ThresholdSet
	if err := json.Unmarshal([]byte(value), &set); err != nil {
		return nil, fmt.Errorf("decode cached thresholds: %w", err)
	}
	return &set, nil
}

// Save upserts the whole set for chartID.
func (s *ThresholdStore) Save(ctx context.Context, chartID string, set domain.ThresholdSet) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO cache (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, cacheKey(chartID), string(data), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save thresholds: %w", err)
	}
	return nil
}

func cacheKey(chartID string) string {
	return "thresholds:" + chartID
}

// Close closes the database connection.
func (s *ThresholdStore) Close() error {
	return s.conn.Close()
}
