package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/assets"
	"github.com/sakif/media-catalog/internal/auth"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// =========================================================================
// FAKES AND HELPERS
//
// In-memory implementations of the repository interfaces, shared by the
// service tests in this package. Using fakes (not a mock framework) keeps
// the tests dependency-free and easy to read.
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- users ---

type fakeUserRepo struct {
	users  map[string]*model.User
	nextID int
	// set to a non-nil error to simulate a database failure
	createErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
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
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
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

// --- genres ---

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

// --- media ---

type fakeMediaRepo struct {
	items      map[string]*model.MediaItem
	nextID     int
	nextReview int
	// lastListOpts records the options of the most recent ListMedia call
	// so pagination math can be asserted.
	lastListOpts repository.MediaListOptions
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
	f.lastListOpts = opts

	out := []model.MediaItem{}
	for _, item := range f.items {
		if item.Type != opts.Type {
			continue
		}
		if opts.GenreID != "" && !contains(item.GenreIDs, opts.GenreID) {
			continue
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
	q := strings.ToLower(query)
	out := []model.MediaItem{}
	for _, item := range f.items {
		if strings.Contains(strings.ToLower(item.Title), q) ||
			strings.Contains(strings.ToLower(item.Description), q) {
			out = append(out, *item)
		}
	}
	return out, nil
}

// AddReview mirrors the store's conditional append: the review goes in
// only if no embedded review by the same owner exists.
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

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// --- asset store ---

// fakeAssetStore records uploads so tests can assert whether an asset was
// stored even when the surrounding operation failed.
type fakeAssetStore struct {
	uploads   []string // folders, in call order
	uploadErr error
}

var _ assets.Store = (*fakeAssetStore)(nil)

func (f *fakeAssetStore) Upload(ctx context.Context, payload, folder string) (*model.Image, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads = append(f.uploads, folder)
	return &model.Image{
		PublicID:       folder + "/fake-asset",
		URL:            "https://assets.example.com/" + folder + "/fake-asset.jpg",
		MainColor:      "#112233",
		SecondaryColor: "#445566",
	}, nil
}

// --- service constructors ---

func newTestAuthService(t *testing.T, users *fakeUserRepo, media *fakeMediaRepo) *AuthService {
	t.Helper()

	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is the bcrypt minimum; it keeps the tests fast.
	ps := auth.NewPasswordServiceForTest(4)

	return NewAuthService(users, media, ts, ps, testLogger())
}

func newTestCatalogService(media *fakeMediaRepo, genres *fakeGenreRepo, users *fakeUserRepo, store *fakeAssetStore) *CatalogService {
	return NewCatalogService(media, genres, users, store, testLogger())
}

// validCreateInput returns a creation payload that passes every check.
func validCreateInput(title string) CreateMediaInput {
	return CreateMediaInput{
		Title:       title,
		Year:        1999,
		Director:    "Some Director",
		Description: "A perfectly serviceable description.",
		Cast:        []string{"Lead Actor"},
		GenreIDs:    []string{"genre-1"},
		Image:       "data:image/jpeg;base64,xxxx",
	}
}
