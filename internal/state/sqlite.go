package state

import (
	"context"
	"database/sql"
	"fmt"

	// Side-effect import: registers the pure-Go driver with database/sql
	// under the name "sqlite". No C compiler needed, works everywhere Go works.
	_ "modernc.org/sqlite"
)

// SQLite is the file-backed Store implementation.
//
// One table, one row per key, values stored as JSON text. sql.DB is a
// connection pool, not a single connection; WAL mode lets reads proceed while
// a write is in flight.
type SQLite struct {
	conn *sql.DB
}

// Compile-time check that *SQLite satisfies Store.
var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the state database at path and runs the
// migration. Use ":memory:" in tests for a throwaway store.
func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("state: opening database: %w", err)
	}

	// Ping forces a real connection now, so a bad path or permission problem
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("state: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("state: setting WAL mode: %w", err)
	}

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("state: running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLite) migrate() error {
	_, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating state table: %w", err)
	}
	return nil
}

// Get returns the stored value for key, or nil if the key is absent.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM state WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: getting %s: %w", key, err)
	}
	return []byte(value), nil
}

// Set stores value under key, replacing any previous value.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO state (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("state: setting %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("state: deleting %s: %w", key, err)
	}
	return nil
}

// Clear deletes every enumerated key one at a time, then resets
// onboardingComplete to false. No transaction spans the deletes: a crash
// mid-clear leaves partial state, which is acceptable for preference data.
// Repeated calls are error-free no-ops.
func (s *SQLite) Clear(ctx context.Context) error {
	for _, key := range AllKeys {
		if err := s.Delete(ctx, key); err != nil {
			return err
		}
	}
	return SetJSON(ctx, s, KeyOnboarding, false)
}

// Close closes the underlying connection pool, flushing the WAL.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
