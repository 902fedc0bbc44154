// Package remote implements the remote document store: one JSON document per
// user, keyed by the external GitHub user id.
//
// Two backends exist behind the Store interface — Postgres (a JSONB snapshot
// row per user) and MongoDB (the hosted document database the dashboard's
// cloud sync was originally built against). Both share the same contract:
//
//   - Upsert is an unconditional replace-or-insert. There is no
//     optimistic-concurrency check: with two devices pushing, the last
//     completed network write wins.
//   - The connection is established lazily on first use and reused. On any
//     operation failure the handle is discarded so the next call reconnects.
//     That is the whole recovery story — no backoff, no circuit breaker.
package remote

import (
	"context"
	"fmt"

	"github.com/zenjispace/zenjid/internal/config"
	"github.com/zenjispace/zenjid/internal/model"
)

// Store is the remote document store contract.
type Store interface {
	// Upsert replaces (or inserts) the document stored for userID.
	Upsert(ctx context.Context, userID string, doc *model.SyncDocument) error

	// Fetch returns the document stored for userID, or (nil, nil) when the
	// user has never synced.
	Fetch(ctx context.Context, userID string) (*model.SyncDocument, error)

	// Close releases the connection if one is open.
	Close(ctx context.Context) error
}

// New builds the configured backend. The backend kind is a deployment choice;
// everything above this package sees only the Store interface.
func New(cfg config.RemoteConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		return NewPostgres(cfg.PostgresDS)
	case config.BackendMongoDB:
		return NewMongo(cfg.MongoURI, cfg.MongoDB, cfg.Collection)
	default:
		return nil, fmt.Errorf("remote: unknown backend %q (want %q or %q)",
			cfg.Backend, config.BackendPostgres, config.BackendMongoDB)
	}
}
