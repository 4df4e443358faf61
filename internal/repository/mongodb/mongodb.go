// Package mongodb implements the repository interfaces on MongoDB.
//
// The store is relied on for three things the application deliberately does
// not reimplement: per-document atomic read-modify-write (embedded review
// operations), unique-key enforcement (title, username, email), and the
// wildcard text index behind search. EnsureIndexes creates all of these at
// startup.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// DB wraps the mongo client and the collection handles the repositories
// operate on. The client's connection pool is concurrent-safe and is the
// only store-related process-wide state.
type DB struct {
	client *mongo.Client
	users  *mongo.Collection
	genres *mongo.Collection
	media  *mongo.Collection
}

// New connects to MongoDB, verifies the connection, and creates the
// indexes the application depends on.
func New(ctx context.Context, uri, dbName string) (*DB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb: connecting: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb: pinging %s: %w", dbName, err)
	}

	database := client.Database(dbName)
	db := &DB{
		client: client,
		users:  database.Collection("users"),
		genres: database.Collection("genres"),
		media:  database.Collection("media"),
	}

	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return db, nil
}

// EnsureIndexes creates the unique and text indexes. CreateMany is
// idempotent for identical definitions, so this is safe on every startup.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating user indexes: %w", err)
	}

	_, err = db.media.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			// Title uniqueness is global: one namespace for movies and
			// series together.
			Keys:    bson.D{{Key: "title", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Wildcard text index: search matches every textual field.
			Keys: bson.D{{Key: "$**", Value: "text"}},
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb: creating media indexes: %w", err)
	}

	return nil
}

// Close disconnects the client, draining the connection pool.
func (db *DB) Close(ctx context.Context) error {
	if err := db.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongodb: disconnecting: %w", err)
	}
	return nil
}
