package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/assets"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// PageSize is the fixed catalog page length.
const PageSize = 16

// CatalogService handles CRUD, pagination, genre filtering and search over
// the media aggregate, enforcing ownership on every mutation.
type CatalogService struct {
	media  repository.MediaRepository
	genres repository.GenreRepository
	users  repository.UserRepository
	store  assets.Store
	logger *slog.Logger
}

func NewCatalogService(
	media repository.MediaRepository,
	genres repository.GenreRepository,
	users repository.UserRepository,
	store assets.Store,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		media:  media,
		genres: genres,
		users:  users,
		store:  store,
		logger: logger,
	}
}

// CreateMediaInput is the creation payload. Image is the raw upload
// payload handed to the asset store, not a stored field.
type CreateMediaInput struct {
	Title       string
	Year        int
	Director    string
	Description string
	Cast        []string
	GenreIDs    []string
	Season      int
	Image       string
}

// UpdateMediaInput is a merge patch: nil fields are left unchanged. There
// is deliberately no owner or id field; neither is overwritable.
type UpdateMediaInput struct {
	Title       *string
	Year        *int
	Director    *string
	Description *string
	Cast        []string
	GenreIDs    []string
	Season      *int
}

// List returns one title-sorted page of the given type, with genre
// references resolved. Pages are 1-based; page 0 or absent behaves as page
// 1. An empty page is an empty slice, never an error.
func (s *CatalogService) List(ctx context.Context, mediaType string, page int) ([]model.MediaItem, error) {
	offset := PageSize * (page - 1)
	if offset < 0 {
		offset = 0
	}

	items, err := s.media.ListMedia(ctx, repository.MediaListOptions{
		Type:   mediaType,
		Limit:  PageSize,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", mediaType, err)
	}

	if err := s.resolveGenres(ctx, items); err != nil {
		return nil, err
	}
	decorateRatings(items)

	return items, nil
}

// Count returns the total number of items of one discriminant.
func (s *CatalogService) Count(ctx context.Context, mediaType string) (int64, error) {
	count, err := s.media.CountMedia(ctx, mediaType)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", mediaType, err)
	}
	return count, nil
}

// Get returns one item with owner, review owners and genres fully
// resolved.
func (s *CatalogService) Get(ctx context.Context, id string) (*model.MediaItem, error) {
	item, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.resolveDetail(ctx, item); err != nil {
		return nil, err
	}
	item.AvgRating = item.ComputeAvgRating()

	return item, nil
}

// Create uploads the image and persists the new item with the caller as
// its immutable owner.
//
// Ordering is upload-then-persist. If the upload fails nothing is
// persisted; if persistence fails after a successful upload (a duplicate
// title, say) the uploaded asset is NOT removed. That orphaned-asset gap
// is a documented property of the design, not handled here.
func (s *CatalogService) Create(ctx context.Context, mediaType, ownerID string, in CreateMediaInput) (*model.MediaItem, error) {
	if strings.TrimSpace(in.Image) == "" {
		return nil, apperror.ValidationFailed("image", "image required")
	}

	image, err := s.store.Upload(ctx, in.Image, assetFolder(mediaType))
	if err != nil {
		s.logger.Warn("image upload rejected", slog.String("error", err.Error()))
		return nil, apperror.ValidationFailed("image", "Valid image required")
	}

	item := &model.MediaItem{
		Type:        mediaType,
		Season:      in.Season,
		Title:       strings.TrimSpace(in.Title),
		Year:        in.Year,
		Director:    strings.TrimSpace(in.Director),
		Description: in.Description,
		Cast:        in.Cast,
		GenreIDs:    in.GenreIDs,
		OwnerID:     ownerID,
		Image:       *image,
	}

	if err := validateMediaItem(item); err != nil {
		return nil, err
	}

	if err := s.media.CreateMedia(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("media created",
		slog.String("id", item.ID),
		slog.String("type", item.Type),
		slog.String("title", item.Title),
		slog.String("owner", item.OwnerID),
	)

	item.AvgRating = item.ComputeAvgRating()
	return item, nil
}

// Update merges the patch onto the stored item and persists it. Only the
// owner may update; owner and id themselves are not patchable.
func (s *CatalogService) Update(ctx context.Context, id, ownerID string, in UpdateMediaInput) (*model.MediaItem, error) {
	item, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, apperror.Forbidden("only the owner can update this title")
	}

	if in.Title != nil {
		item.Title = strings.TrimSpace(*in.Title)
	}
	if in.Year != nil {
		item.Year = *in.Year
	}
	if in.Director != nil {
		item.Director = strings.TrimSpace(*in.Director)
	}
	if in.Description != nil {
		item.Description = *in.Description
	}
	if in.Cast != nil {
		item.Cast = in.Cast
	}
	if in.GenreIDs != nil {
		item.GenreIDs = in.GenreIDs
	}
	if in.Season != nil {
		item.Season = *in.Season
	}

	if err := validateMediaItem(item); err != nil {
		return nil, err
	}

	if err := s.media.UpdateMedia(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("media updated", slog.String("id", item.ID), slog.String("title", item.Title))

	if err := s.resolveDetail(ctx, item); err != nil {
		return nil, err
	}
	item.AvgRating = item.ComputeAvgRating()
	return item, nil
}

// Delete removes the item and every embedded review. Only the owner may
// delete; a second delete reports NotFound.
func (s *CatalogService) Delete(ctx context.Context, id, ownerID string) error {
	item, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return err
	}
	if item.OwnerID != ownerID {
		return apperror.Forbidden("only the owner can delete this title")
	}

	if err := s.media.DeleteMedia(ctx, id); err != nil {
		return err
	}

	s.logger.Info("media deleted", slog.String("id", id), slog.String("title", item.Title))
	return nil
}

// GenreListing pairs a genre-filtered result set with the genre record
// itself.
type GenreListing struct {
	Items []model.MediaItem `json:"items"`
	Genre *model.Genre      `json:"genre"`
}

// ByGenre lists every item of one type carrying the genre. No match is
// NotFound even when the genre itself exists; the genre record rides along
// on success.
func (s *CatalogService) ByGenre(ctx context.Context, mediaType, genreID string) (*GenreListing, error) {
	items, err := s.media.ListMedia(ctx, repository.MediaListOptions{
		Type:    mediaType,
		GenreID: genreID,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s by genre: %w", mediaType, err)
	}
	if len(items) == 0 {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("no %s found for genre %s", plural(mediaType), genreID),
		}
	}

	genre, err := s.genres.GetGenreByID(ctx, genreID)
	if err != nil {
		return nil, err
	}

	decorateRatings(items)
	return &GenreListing{Items: items, Genre: genre}, nil
}

// Search matches the query against the store's text index over all textual
// fields. No match is NotFound.
func (s *CatalogService) Search(ctx context.Context, query string) ([]model.MediaItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperror.ValidationFailed("query", "search query is required")
	}

	items, err := s.media.SearchMedia(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("searching media: %w", err)
	}
	if len(items) == 0 {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "no media found",
		}
	}

	decorateRatings(items)
	return items, nil
}

// ListGenres returns the genre reference data sorted by title.
func (s *CatalogService) ListGenres(ctx context.Context) ([]model.Genre, error) {
	genres, err := s.genres.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing genres: %w", err)
	}
	return genres, nil
}

// validateMediaItem enforces the aggregate invariants on a fully merged
// record. The season/type pairing is deliberately not checked.
func validateMediaItem(item *model.MediaItem) error {
	if item.Type != model.TypeMovie && item.Type != model.TypeSeries {
		return apperror.ValidationFailed("type", "type must be movie or series")
	}
	if item.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if item.Year == 0 {
		return apperror.ValidationFailed("year", "year is required")
	}
	if item.Director == "" {
		return apperror.ValidationFailed("director", "director is required")
	}
	if item.Description == "" {
		return apperror.ValidationFailed("description", "description is required")
	}
	if utf8.RuneCountInString(item.Description) > model.MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", model.MaxDescriptionLength))
	}
	if len(item.Cast) == 0 {
		return apperror.ValidationFailed("cast", "must have at least one cast member")
	}
	if len(item.GenreIDs) == 0 {
		return apperror.ValidationFailed("genre", "must have at least one genre")
	}
	return nil
}

// assetFolder namespaces uploads the way the catalog is browsed.
func assetFolder(mediaType string) string {
	if mediaType == model.TypeSeries {
		return "shows"
	}
	return "movies"
}

func plural(mediaType string) string {
	if mediaType == model.TypeSeries {
		return "shows"
	}
	return "movies"
}
