// Package docstore stores diagnostics records in MongoDB.
package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/resume-analyzer/internal/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pingTimeout = 5 * time.Second

// document is the stored form of a types.DiagnosticsRecord
type document struct {
	ID          string            `bson:"_id"`
	UserID      *string           `bson:"uid"`
	Filename    *string           `bson:"filename"`
	Error       *string           `bson:"error"`
	Diagnostics types.Diagnostics `bson:"diagnostics"`
	CreatedAt   time.Time         `bson:"createdAt"`
}

func toDocument(r types.DiagnosticsRecord) document {
	return document{
		ID:          r.ID.String(),
		UserID:      r.UserID,
		Filename:    r.Filename,
		Error:       r.Error,
		Diagnostics: r.Diagnostics,
		CreatedAt:   r.CreatedAt,
	}
}

func (d document) record() (types.DiagnosticsRecord, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return types.DiagnosticsRecord{}, fmt.Errorf("invalid record id %q: %w", d.ID, err)
	}
	return types.DiagnosticsRecord{
		ID:          id,
		UserID:      d.UserID,
		Filename:    d.Filename,
		Error:       d.Error,
		Diagnostics: d.Diagnostics,
		CreatedAt:   d.CreatedAt,
	}, nil
}

// Store writes diagnostics records to collections of one database
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens a client for uri and verifies it with a ping
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// NewStore wraps an existing database handle
func NewStore(db *mongo.Database) *Store {
	return &Store{db: db}
}

// InsertDiagnostics stores record in collection
func (s *Store) InsertDiagnostics(ctx context.Context, collection string, record types.DiagnosticsRecord) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, toDocument(record)); err != nil {
		return fmt.Errorf("failed to insert diagnostics into %s: %w", collection, err)
	}
	return nil
}

// LatestDiagnostics returns up to limit records from collection, newest first
func (s *Store) LatestDiagnostics(ctx context.Context, collection string, limit int64) ([]types.DiagnosticsRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit)
	cursor, err := s.db.Collection(collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnostics: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode diagnostics: %w", err)
	}

	records := make([]types.DiagnosticsRecord, 0, len(docs))
	for _, d := range docs {
		r, err := d.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Close disconnects the client when the Store owns one
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
