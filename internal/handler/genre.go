package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/media-catalog/internal/service"
)

// GenreHandler serves the genre reference data. Genres are read-only over
// HTTP; they are loaded out-of-band by cmd/seed.
type GenreHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewGenreHandler(catalog *service.CatalogService, logger *slog.Logger) *GenreHandler {
	return &GenreHandler{catalog: catalog, logger: logger}
}

// HandleList returns all genres sorted by title.
//
// HTTP: GET /genres
func (h *GenreHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.ListGenres(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}
