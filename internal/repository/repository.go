// Package repository declares the persistence interfaces the service layer
// programs against. The mongodb subpackage implements them.
package repository

import (
	"context"

	"github.com/sakif/media-catalog/internal/model"
)

// MediaListOptions filters and pages a media listing. Type is required;
// GenreID is optional. Limit/Offset are applied after a title-ascending
// sort.
type MediaListOptions struct {
	Type    string
	GenreID string
	Limit   int
	Offset  int
}

// ReviewPatch carries the mutable fields of an embedded review. Nil fields
// are left unchanged.
type ReviewPatch struct {
	Text   *string
	Rating *int
}

type UserRepository interface {
	// CreateUser inserts a new user. A username or email collision
	// surfaces as apperror.ErrValidation.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUsersByIDs returns the users for the given ids, skipping unknown
	// ones.
	GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
}

type GenreRepository interface {
	// CreateGenre inserts reference data. Only exercised out-of-band
	// (cmd/seed).
	CreateGenre(ctx context.Context, genre *model.Genre) error
	GetGenreByID(ctx context.Context, id string) (*model.Genre, error)
	GetGenresByIDs(ctx context.Context, ids []string) ([]model.Genre, error)
	// ListGenres returns all genres sorted by title ascending.
	ListGenres(ctx context.Context) ([]model.Genre, error)
}

type MediaRepository interface {
	// CreateMedia inserts a new media item. A title collision surfaces as
	// apperror.ErrValidation (title is unique across the whole catalog).
	CreateMedia(ctx context.Context, item *model.MediaItem) error
	GetMediaByID(ctx context.Context, id string) (*model.MediaItem, error)
	ListMedia(ctx context.Context, opts MediaListOptions) ([]model.MediaItem, error)
	CountMedia(ctx context.Context, mediaType string) (int64, error)
	// UpdateMedia replaces the stored document for item.ID.
	UpdateMedia(ctx context.Context, item *model.MediaItem) error
	// DeleteMedia removes the item and all its embedded reviews. Deleting
	// an unknown id returns apperror.ErrNotFound.
	DeleteMedia(ctx context.Context, id string) error
	// SearchMedia runs a text-index match across all textual fields.
	SearchMedia(ctx context.Context, query string) ([]model.MediaItem, error)

	// AddReview appends review to the parent iff no embedded review by the
	// same owner exists, as a single conditional store operation; the
	// application-level duplicate scan is a fast path only. Returns
	// apperror.ErrConflict when the guard rejects the append.
	AddReview(ctx context.Context, mediaID string, review model.Review) error
	// UpdateReview mutates the embedded review in place, guarded on both
	// the review id and its owner.
	UpdateReview(ctx context.Context, mediaID, reviewID, ownerID string, patch ReviewPatch) error
	// RemoveReview pulls the embedded review, guarded the same way.
	RemoveReview(ctx context.Context, mediaID, reviewID, ownerID string) error

	// FindMediaByOwner and FindMediaByReviewer back the profile's
	// read-time resolution of owned and reviewed media.
	FindMediaByOwner(ctx context.Context, ownerID string) ([]model.MediaItem, error)
	FindMediaByReviewer(ctx context.Context, reviewerID string) ([]model.MediaItem, error)
}
