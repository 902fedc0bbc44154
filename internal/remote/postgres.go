package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	// Side-effect import: registers the "postgres" driver with database/sql.
	_ "github.com/lib/pq"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
)

const postgresTable = "zenji_userdata"

// Postgres stores each user's sync document as a JSONB snapshot row.
type Postgres struct {
	dsn string

	// openDB is swappable so tests can inject a failing opener.
	openDB func(driverName, dsn string) (*sql.DB, error)

	mu sync.Mutex
	db *sql.DB
}

var _ Store = (*Postgres)(nil)

// NewPostgres creates the backend. No connection is made here — the first
// Upsert or Fetch dials.
func NewPostgres(dsn string) (*Postgres, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("remote: postgres DSN is required")
	}
	return &Postgres{dsn: dsn, openDB: sql.Open}, nil
}

// conn returns the shared handle, dialing and migrating on first use.
func (p *Postgres) conn(ctx context.Context) (*sql.DB, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		return p.db, nil
	}

	db, err := p.openDB("postgres", p.dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			user_id    TEXT PRIMARY KEY,
			snapshot   JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`, postgresTable))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating %s: %w", postgresTable, err)
	}

	p.db = db
	return db, nil
}

// discard drops the cached handle so the next call reconnects.
func (p *Postgres) discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db != nil {
		p.db.Close()
		p.db = nil
	}
}

// Upsert replaces the snapshot row for userID, inserting it if absent.
func (p *Postgres) Upsert(ctx context.Context, userID string, doc *model.SyncDocument) error {
	db, err := p.conn(ctx)
	if err != nil {
		return apperror.RemoteUnavailable(err)
	}

	snapshot, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("remote: encoding sync document: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (user_id, snapshot, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id)
		DO UPDATE SET snapshot = EXCLUDED.snapshot, updated_at = EXCLUDED.updated_at`,
		postgresTable),
		userID, snapshot, time.Now().UTC(),
	)
	if err != nil {
		p.discard()
		return apperror.RemoteUnavailable(err)
	}
	return nil
}

// Fetch loads the snapshot for userID. A missing row is (nil, nil), not an
// error — the caller decides whether "never synced" is a problem.
func (p *Postgres) Fetch(ctx context.Context, userID string) (*model.SyncDocument, error) {
	db, err := p.conn(ctx)
	if err != nil {
		return nil, apperror.RemoteUnavailable(err)
	}

	var snapshot []byte
	err = db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT snapshot FROM %s WHERE user_id = $1`, postgresTable),
		userID,
	).Scan(&snapshot)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		p.discard()
		return nil, apperror.RemoteUnavailable(err)
	}

	var doc model.SyncDocument
	if err := json.Unmarshal(snapshot, &doc); err != nil {
		return nil, fmt.Errorf("remote: decoding sync document: %w", err)
	}
	return &doc, nil
}

// Close releases the connection if one was ever opened.
func (p *Postgres) Close(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
