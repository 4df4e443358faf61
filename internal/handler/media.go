package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/auth"
	"github.com/sakif/media-catalog/internal/service"
)

// MediaHandler serves one media discriminant. The same handler type is
// mounted twice (at /movies with type "movie", at /tvshows with type
// "series") since the two surfaces differ only in the discriminant.
type MediaHandler struct {
	catalog   *service.CatalogService
	reviews   *service.ReviewService
	mediaType string
	validate  *validator.Validate
	logger    *slog.Logger
}

func NewMediaHandler(
	catalog *service.CatalogService,
	reviews *service.ReviewService,
	mediaType string,
	validate *validator.Validate,
	logger *slog.Logger,
) *MediaHandler {
	return &MediaHandler{
		catalog:   catalog,
		reviews:   reviews,
		mediaType: mediaType,
		validate:  validate,
		logger:    logger,
	}
}

type createMediaRequest struct {
	Title       string   `json:"title" validate:"required"`
	Year        int      `json:"year" validate:"required"`
	Director    string   `json:"director" validate:"required"`
	Description string   `json:"description" validate:"required,max=500"`
	Cast        []string `json:"cast" validate:"required,min=1"`
	Genre       []string `json:"genre" validate:"required,min=1"`
	Season      int      `json:"season,omitempty"`
	Image       string   `json:"image"`
}

type updateMediaRequest struct {
	Title       *string  `json:"title,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Director    *string  `json:"director,omitempty"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Cast        []string `json:"cast,omitempty"`
	Genre       []string `json:"genre,omitempty"`
	Season      *int     `json:"season,omitempty"`
}

type reviewRequest struct {
	Text   string `json:"text" validate:"required,max=300"`
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
}

type reviewPatchRequest struct {
	Text   *string `json:"text,omitempty" validate:"omitempty,max=300"`
	Rating *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
}

// HandleList returns one 16-item page, title-sorted, genres resolved.
//
// HTTP: GET /movies, GET /movies/page/{page}
// A missing, zero or unparseable page number behaves as page 1.
func (h *MediaHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.PathValue("page"))
	if page < 1 {
		page = 1
	}

	items, err := h.catalog.List(r.Context(), h.mediaType, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleCount returns the total number of items of this type as a bare
// number.
//
// HTTP: GET /movies/count
func (h *MediaHandler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.catalog.Count(r.Context(), h.mediaType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, count)
}

// HandleGet returns one item with owner, reviewers and genres resolved.
//
// HTTP: GET /movies/{id} → 200 or 404
func (h *MediaHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// HandleCreate creates an item owned by the authenticated user. The image
// payload is mandatory and is uploaded to the asset store before anything
// is persisted.
//
// HTTP: POST /movies (auth) → 201
func (h *MediaHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	var req createMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Image == "" {
		writeError(w, apperror.ValidationFailed("image", "image required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	item, err := h.catalog.Create(r.Context(), h.mediaType, user.ID, service.CreateMediaInput{
		Title:       req.Title,
		Year:        req.Year,
		Director:    req.Director,
		Description: req.Description,
		Cast:        req.Cast,
		GenreIDs:    req.Genre,
		Season:      req.Season,
		Image:       req.Image,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// HandleUpdate merges a patch onto an item the caller owns.
//
// HTTP: PUT /movies/{id} (auth, owner only) → 202
func (h *MediaHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	var req updateMediaRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	item, err := h.catalog.Update(r.Context(), r.PathValue("id"), user.ID, service.UpdateMediaInput{
		Title:       req.Title,
		Year:        req.Year,
		Director:    req.Director,
		Description: req.Description,
		Cast:        req.Cast,
		GenreIDs:    req.Genre,
		Season:      req.Season,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, item)
}

// HandleDelete removes an item the caller owns, embedded reviews included.
//
// HTTP: DELETE /movies/{id} (auth, owner only) → 204
func (h *MediaHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	if err := h.catalog.Delete(r.Context(), r.PathValue("id"), user.ID); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleByGenre lists every item of this type carrying the genre, plus the
// genre record itself.
//
// HTTP: GET /movies/genre/{genreId} → 200 or 404 when nothing matches
func (h *MediaHandler) HandleByGenre(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.ByGenre(r.Context(), h.mediaType, r.PathValue("genreId"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// HandleAddReview attaches the authenticated user's single review to an
// item.
//
// HTTP: POST /movies/{id}/reviews (auth) → 202 with the updated parent
func (h *MediaHandler) HandleAddReview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	item, err := h.reviews.Add(r.Context(), r.PathValue("id"), user.ID, service.ReviewInput{
		Text:   req.Text,
		Rating: req.Rating,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, item)
}

// HandleUpdateReview merges a patch onto the caller's own review.
//
// HTTP: PUT /movies/{id}/reviews/{reviewId} (auth, author only) → 202
func (h *MediaHandler) HandleUpdateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	var req reviewPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, apperror.ValidationFailed("body", err.Error()))
		return
	}

	item, err := h.reviews.Update(r.Context(), r.PathValue("id"), r.PathValue("reviewId"), user.ID,
		service.ReviewPatchInput{Text: req.Text, Rating: req.Rating})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, item)
}

// HandleDeleteReview removes the caller's own review.
//
// HTTP: DELETE /movies/{id}/reviews/{reviewId} (auth, author only) → 204
func (h *MediaHandler) HandleDeleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized())
		return
	}

	err := h.reviews.Delete(r.Context(), r.PathValue("id"), r.PathValue("reviewId"), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
