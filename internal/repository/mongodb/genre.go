package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// compile-time check that *DB implements repository.GenreRepository
var _ repository.GenreRepository = (*DB)(nil)

// CreateGenre has no HTTP surface; genres are reference data loaded by
// cmd/seed and immutable afterwards.
func (db *DB) CreateGenre(ctx context.Context, genre *model.Genre) error {
	if genre.ID == "" {
		genre.ID = xid.New().String()
	}
	if _, err := db.genres.InsertOne(ctx, genre); err != nil {
		return fmt.Errorf("mongodb: inserting genre: %w", err)
	}
	return nil
}

func (db *DB) GetGenreByID(ctx context.Context, id string) (*model.Genre, error) {
	var genre model.Genre
	err := db.genres.FindOne(ctx, bson.M{"_id": id}).Decode(&genre)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("genre", id)
		}
		return nil, fmt.Errorf("mongodb: fetching genre %s: %w", id, err)
	}
	return &genre, nil
}

func (db *DB) GetGenresByIDs(ctx context.Context, ids []string) ([]model.Genre, error) {
	if len(ids) == 0 {
		return []model.Genre{}, nil
	}

	cursor, err := db.genres.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("mongodb: fetching genres: %w", err)
	}
	defer cursor.Close(ctx)

	genres := []model.Genre{}
	if err := cursor.All(ctx, &genres); err != nil {
		return nil, fmt.Errorf("mongodb: decoding genres: %w", err)
	}
	return genres, nil
}

// ListGenres returns all genres sorted by title ascending.
func (db *DB) ListGenres(ctx context.Context) ([]model.Genre, error) {
	cursor, err := db.genres.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing genres: %w", err)
	}
	defer cursor.Close(ctx)

	genres := []model.Genre{}
	if err := cursor.All(ctx, &genres); err != nil {
		return nil, fmt.Errorf("mongodb: decoding genres: %w", err)
	}
	return genres, nil
}
