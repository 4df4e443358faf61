package handler_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/auth"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
	"github.com/sakif/media-catalog/internal/service"
)

// In-memory repositories backing real service instances. Handler tests go
// through the full handler + service stack; only persistence and the asset
// store are faked.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	for _, u := range f.users {
		if u.Username == user.Username || u.Email == user.Email {
			return apperror.ValidationFailed("username", "username or email is already taken")
		}
	}
	user.ID = fmt.Sprintf("user-%d", f.nextID)
	f.nextID++
	copied := *user
	f.users[user.ID] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) GetUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	out := []model.User{}
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

type fakeGenreRepo struct {
	genres map[string]*model.Genre
}

func newFakeGenreRepo(genres ...*model.Genre) *fakeGenreRepo {
	f := &fakeGenreRepo{genres: make(map[string]*model.Genre)}
	for _, g := range genres {
		f.genres[g.ID] = g
	}
	return f
}

func (f *fakeGenreRepo) CreateGenre(ctx context.Context, genre *model.Genre) error {
	f.genres[genre.ID] = genre
	return nil
}

func (f *fakeGenreRepo) GetGenreByID(ctx context.Context, id string) (*model.Genre, error) {
	g, ok := f.genres[id]
	if !ok {
		return nil, apperror.NotFound("genre", id)
	}
	return g, nil
}

func (f *fakeGenreRepo) GetGenresByIDs(ctx context.Context, ids []string) ([]model.Genre, error) {
	out := []model.Genre{}
	for _, id := range ids {
		if g, ok := f.genres[id]; ok {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGenreRepo) ListGenres(ctx context.Context) ([]model.Genre, error) {
	out := []model.Genre{}
	for _, g := range f.genres {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

type fakeMediaRepo struct {
	items      map[string]*model.MediaItem
	nextID     int
	nextReview int
}

func newFakeMediaRepo() *fakeMediaRepo {
	return &fakeMediaRepo{items: make(map[string]*model.MediaItem), nextID: 1, nextReview: 1}
}

func (f *fakeMediaRepo) CreateMedia(ctx context.Context, item *model.MediaItem) error {
	for _, existing := range f.items {
		if existing.Title == item.Title {
			return apperror.ValidationFailed("title", "a title with this name already exists")
		}
	}
	item.ID = fmt.Sprintf("media-%d", f.nextID)
	f.nextID++
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeMediaRepo) GetMediaByID(ctx context.Context, id string) (*model.MediaItem, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, apperror.NotFound("media", id)
	}
	copied := *item
	copied.Reviews = append([]model.Review(nil), item.Reviews...)
	return &copied, nil
}

func (f *fakeMediaRepo) ListMedia(ctx context.Context, opts repository.MediaListOptions) ([]model.MediaItem, error) {
	out := []model.MediaItem{}
	for _, item := range f.items {
		if item.Type != opts.Type {
			continue
		}
		if opts.GenreID != "" {
			found := false
			for _, g := range item.GenreIDs {
				if g == opts.GenreID {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		out = append(out, *item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })

	if opts.Offset >= len(out) {
		return []model.MediaItem{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (f *fakeMediaRepo) CountMedia(ctx context.Context, mediaType string) (int64, error) {
	var n int64
	for _, item := range f.items {
		if item.Type == mediaType {
			n++
		}
	}
	return n, nil
}

func (f *fakeMediaRepo) UpdateMedia(ctx context.Context, item *model.MediaItem) error {
	if _, ok := f.items[item.ID]; !ok {
		return apperror.NotFound("media", item.ID)
	}
	copied := *item
	f.items[item.ID] = &copied
	return nil
}

func (f *fakeMediaRepo) DeleteMedia(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return apperror.NotFound("media", id)
	}
	delete(f.items, id)
	return nil
}

func (f *fakeMediaRepo) SearchMedia(ctx context.Context, query string) ([]model.MediaItem, error) {
	out := []model.MediaItem{}
	for _, item := range f.items {
		if item.Title == query {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeMediaRepo) AddReview(ctx context.Context, mediaID string, review model.Review) error {
	item, ok := f.items[mediaID]
	if !ok {
		return apperror.NotFound("media", mediaID)
	}
	if item.ReviewByOwner(review.OwnerID) != nil {
		return apperror.Conflict("you have already reviewed this title")
	}
	review.ID = fmt.Sprintf("review-%d", f.nextReview)
	f.nextReview++
	item.Reviews = append(item.Reviews, review)
	return nil
}

func (f *fakeMediaRepo) UpdateReview(ctx context.Context, mediaID, reviewID, ownerID string, patch repository.ReviewPatch) error {
	item, ok := f.items[mediaID]
	if !ok {
		return apperror.NotFound("media", mediaID)
	}
	review := item.ReviewByID(reviewID)
	if review == nil || review.OwnerID != ownerID {
		return apperror.NotFound("review", reviewID)
	}
	if patch.Text != nil {
		review.Text = *patch.Text
	}
	if patch.Rating != nil {
		review.Rating = *patch.Rating
	}
	return nil
}

func (f *fakeMediaRepo) RemoveReview(ctx context.Context, mediaID, reviewID, ownerID string) error {
	item, ok := f.items[mediaID]
	if !ok {
		return apperror.NotFound("media", mediaID)
	}
	for i, r := range item.Reviews {
		if r.ID == reviewID && r.OwnerID == ownerID {
			item.Reviews = append(item.Reviews[:i], item.Reviews[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("review", reviewID)
}

func (f *fakeMediaRepo) FindMediaByOwner(ctx context.Context, ownerID string) ([]model.MediaItem, error) {
	out := []model.MediaItem{}
	for _, item := range f.items {
		if item.OwnerID == ownerID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeMediaRepo) FindMediaByReviewer(ctx context.Context, reviewerID string) ([]model.MediaItem, error) {
	out := []model.MediaItem{}
	for _, item := range f.items {
		if item.ReviewByOwner(reviewerID) != nil {
			out = append(out, *item)
		}
	}
	return out, nil
}

type fakeAssetStore struct {
	uploadErr error
}

func (f *fakeAssetStore) Upload(ctx context.Context, payload, folder string) (*model.Image, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &model.Image{
		PublicID: folder + "/fake-asset",
		URL:      "https://assets.example.com/" + folder + "/fake-asset.jpg",
	}, nil
}

// fixture bundles everything a handler test needs: the fakes, the real
// services over them, and the auth pieces to mint tokens.
type fixture struct {
	users   *fakeUserRepo
	genres  *fakeGenreRepo
	media   *fakeMediaRepo
	store   *fakeAssetStore
	tokens  *auth.TokenService
	auth    *service.AuthService
	catalog *service.CatalogService
	reviews *service.ReviewService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordServiceForTest(4)
	logger := testLogger()

	users := newFakeUserRepo()
	genres := newFakeGenreRepo(&model.Genre{ID: "genre-1", Title: "Drama"})
	media := newFakeMediaRepo()
	store := &fakeAssetStore{}

	return &fixture{
		users:   users,
		genres:  genres,
		media:   media,
		store:   store,
		tokens:  tokens,
		auth:    service.NewAuthService(users, media, tokens, passwords, logger),
		catalog: service.NewCatalogService(media, genres, users, store, logger),
		reviews: service.NewReviewService(media, logger),
	}
}

// addUser inserts a user directly into the fake store and returns it.
func (f *fixture) addUser(t *testing.T, username string) *model.User {
	t.Helper()

	user := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "$2a$04$fake"}
	if err := f.users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("addUser: %v", err)
	}
	return user
}

func newValidate() *validator.Validate {
	return validator.New()
}
