package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
)

// Mongo stores each user's sync document in a collection, keyed by the userId
// field. This is the hosted-database backend the dashboard's cloud sync runs
// against in production.
type Mongo struct {
	uri        string
	database   string
	collection string

	mu     sync.Mutex
	client *mongo.Client
}

var _ Store = (*Mongo)(nil)

// NewMongo creates the backend. Connection is deferred to first use.
func NewMongo(uri, database, collection string) (*Mongo, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, fmt.Errorf("remote: mongodb connection string is required")
	}
	if database == "" {
		database = "zenji"
	}
	if collection == "" {
		collection = "userdata"
	}
	return &Mongo{uri: uri, database: database, collection: collection}, nil
}

// coll returns the target collection, connecting and pinging on first use.
func (m *Mongo) coll(ctx context.Context) (*mongo.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.uri))
		if err != nil {
			return nil, fmt.Errorf("connecting to mongodb: %w", err)
		}
		// Verify the connection actually works before caching the handle.
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("pinging mongodb: %w", err)
		}
		m.client = client
	}

	return m.client.Database(m.database).Collection(m.collection), nil
}

// discard drops the cached client to force a reconnect on the next call.
func (m *Mongo) discard(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil {
		_ = m.client.Disconnect(ctx)
		m.client = nil
	}
}

// Upsert writes the document with {upsert: true}, unconditionally replacing
// whatever the previous writer stored.
func (m *Mongo) Upsert(ctx context.Context, userID string, doc *model.SyncDocument) error {
	coll, err := m.coll(ctx)
	if err != nil {
		return apperror.RemoteUnavailable(err)
	}

	res, err := coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		m.discard(ctx)
		return apperror.RemoteUnavailable(err)
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 && res.ModifiedCount == 0 {
		return apperror.RemoteUnavailable(fmt.Errorf("write not acknowledged for user %s", userID))
	}
	return nil
}

// Fetch loads the document for userID; (nil, nil) when nothing is stored.
func (m *Mongo) Fetch(ctx context.Context, userID string) (*model.SyncDocument, error) {
	coll, err := m.coll(ctx)
	if err != nil {
		return nil, apperror.RemoteUnavailable(err)
	}

	var doc model.SyncDocument
	err = coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		m.discard(ctx)
		return nil, apperror.RemoteUnavailable(err)
	}
	return &doc, nil
}

// Close disconnects the client if one was ever opened.
func (m *Mongo) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client == nil {
		return nil
	}
	err := m.client.Disconnect(ctx)
	m.client = nil
	return err
}
