package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/media-catalog/internal/service"
)

// SearchHandler serves full-text search across both media types.
type SearchHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

func NewSearchHandler(catalog *service.CatalogService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{catalog: catalog, logger: logger}
}

// HandleSearch matches the query against every textual field of every
// item, movies and shows alike.
//
// HTTP: GET /search/{query} → 200, or 404 when nothing matches
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.Search(r.Context(), r.PathValue("query"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
