package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// compile-time check that *DB implements repository.MediaRepository
var _ repository.MediaRepository = (*DB)(nil)

// CreateMedia inserts a new media item. The unique title index is the
// authoritative uniqueness check across both media types.
func (db *DB) CreateMedia(ctx context.Context, item *model.MediaItem) error {
	if item.ID == "" {
		item.ID = xid.New().String()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Reviews == nil {
		item.Reviews = []model.Review{}
	}

	if _, err := db.media.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ValidationFailed("title", fmt.Sprintf("a title %q already exists", item.Title))
		}
		return fmt.Errorf("mongodb: inserting media: %w", err)
	}
	return nil
}

func (db *DB) GetMediaByID(ctx context.Context, id string) (*model.MediaItem, error) {
	var item model.MediaItem
	err := db.media.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperror.NotFound("media", id)
		}
		return nil, fmt.Errorf("mongodb: fetching media %s: %w", id, err)
	}
	return &item, nil
}

// ListMedia returns a page of items of one type, sorted by title ascending.
// An equality match on "genre" matches any element of the stored id array.
func (db *DB) ListMedia(ctx context.Context, opts repository.MediaListOptions) ([]model.MediaItem, error) {
	filter := bson.M{"type": opts.Type}
	if opts.GenreID != "" {
		filter["genre"] = opts.GenreID
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := db.media.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: listing media: %w", err)
	}
	defer cursor.Close(ctx)

	items := []model.MediaItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongodb: decoding media list: %w", err)
	}
	return items, nil
}

func (db *DB) CountMedia(ctx context.Context, mediaType string) (int64, error) {
	count, err := db.media.CountDocuments(ctx, bson.M{"type": mediaType})
	if err != nil {
		return 0, fmt.Errorf("mongodb: counting media: %w", err)
	}
	return count, nil
}

// UpdateMedia replaces the whole stored document. The caller (the catalog
// service) has already fetched the item, checked ownership and merged the
// patch; the replace is keyed on the immutable _id.
func (db *DB) UpdateMedia(ctx context.Context, item *model.MediaItem) error {
	item.UpdatedAt = time.Now().UTC()

	res, err := db.media.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperror.ValidationFailed("title", fmt.Sprintf("a title %q already exists", item.Title))
		}
		return fmt.Errorf("mongodb: updating media %s: %w", item.ID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("media", item.ID)
	}
	return nil
}

// DeleteMedia removes the aggregate root and, with it, every embedded
// review. A second delete of the same id reports NotFound.
func (db *DB) DeleteMedia(ctx context.Context, id string) error {
	res, err := db.media.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("mongodb: deleting media %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return apperror.NotFound("media", id)
	}
	return nil
}

// SearchMedia matches the query against the wildcard text index, which
// covers every string field of the document including embedded reviews.
func (db *DB) SearchMedia(ctx context.Context, query string) ([]model.MediaItem, error) {
	filter := bson.M{"$text": bson.M{"$search": query}}

	cursor, err := db.media.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb: searching media: %w", err)
	}
	defer cursor.Close(ctx)

	items := []model.MediaItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongodb: decoding search results: %w", err)
	}
	return items, nil
}

// AddReview appends the review as one conditional update: the filter only
// matches the parent when no embedded review by this owner exists, so two
// concurrent submissions by the same user cannot both land. This replaces
// the read-then-write pattern that would silently drop a concurrent
// review.
func (db *DB) AddReview(ctx context.Context, mediaID string, review model.Review) error {
	if review.ID == "" {
		review.ID = xid.New().String()
	}
	now := time.Now().UTC()
	review.CreatedAt = now
	review.UpdatedAt = now

	res, err := db.media.UpdateOne(ctx,
		bson.M{
			"_id":           mediaID,
			"reviews.owner": bson.M{"$ne": review.OwnerID},
		},
		bson.M{
			"$push": bson.M{"reviews": review},
			"$set":  bson.M{"updatedAt": now},
		},
	)
	if err != nil {
		return fmt.Errorf("mongodb: adding review to %s: %w", mediaID, err)
	}
	if res.MatchedCount == 0 {
		// Either the parent vanished or the owner guard rejected the push.
		if _, err := db.GetMediaByID(ctx, mediaID); err != nil {
			return err
		}
		return apperror.Conflict("you have already reviewed this title")
	}
	return nil
}

// UpdateReview mutates the embedded element in place via the positional
// operator. The filter is guarded on both the review id and its owner, so
// a non-owner can never match.
func (db *DB) UpdateReview(ctx context.Context, mediaID, reviewID, ownerID string, patch repository.ReviewPatch) error {
	now := time.Now().UTC()

	set := bson.M{
		"reviews.$.updatedAt": now,
		"updatedAt":           now,
	}
	if patch.Text != nil {
		set["reviews.$.text"] = *patch.Text
	}
	if patch.Rating != nil {
		set["reviews.$.rating"] = *patch.Rating
	}

	res, err := db.media.UpdateOne(ctx,
		bson.M{
			"_id": mediaID,
			"reviews": bson.M{"$elemMatch": bson.M{
				"_id":   reviewID,
				"owner": ownerID,
			}},
		},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("mongodb: updating review %s on %s: %w", reviewID, mediaID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("review", reviewID)
	}
	return nil
}

// RemoveReview pulls the embedded element, guarded on id and owner.
func (db *DB) RemoveReview(ctx context.Context, mediaID, reviewID, ownerID string) error {
	res, err := db.media.UpdateOne(ctx,
		bson.M{"_id": mediaID},
		bson.M{
			"$pull": bson.M{"reviews": bson.M{
				"_id":   reviewID,
				"owner": ownerID,
			}},
			"$set": bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("mongodb: removing review %s from %s: %w", reviewID, mediaID, err)
	}
	if res.MatchedCount == 0 {
		return apperror.NotFound("media", mediaID)
	}
	if res.ModifiedCount == 0 {
		return apperror.NotFound("review", reviewID)
	}
	return nil
}

// FindMediaByOwner backs the profile's "owned media" resolution.
func (db *DB) FindMediaByOwner(ctx context.Context, ownerID string) ([]model.MediaItem, error) {
	return db.findMedia(ctx, bson.M{"owner": ownerID})
}

// FindMediaByReviewer returns the items carrying a review by the given
// user, the back-reference query behind the profile's "reviews" listing.
func (db *DB) FindMediaByReviewer(ctx context.Context, reviewerID string) ([]model.MediaItem, error) {
	return db.findMedia(ctx, bson.M{"reviews.owner": reviewerID})
}

func (db *DB) findMedia(ctx context.Context, filter bson.M) ([]model.MediaItem, error) {
	cursor, err := db.media.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "title", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: querying media: %w", err)
	}
	defer cursor.Close(ctx)

	items := []model.MediaItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("mongodb: decoding media: %w", err)
	}
	return items, nil
}
