package service

import (
	"context"
	"fmt"

	"github.com/sakif/media-catalog/internal/model"
)

// decorateRatings fills the derived avgRating on every item. It runs on
// every read path; the value is never persisted.
func decorateRatings(items []model.MediaItem) {
	for i := range items {
		items[i].AvgRating = items[i].ComputeAvgRating()
	}
}

// resolveGenres replaces the genre id references on a batch of items with
// full genre records, using one $in query for the whole batch.
func (s *CatalogService) resolveGenres(ctx context.Context, items []model.MediaItem) error {
	idSet := map[string]struct{}{}
	for i := range items {
		for _, id := range items[i].GenreIDs {
			idSet[id] = struct{}{}
		}
	}
	if len(idSet) == 0 {
		return nil
	}

	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	genres, err := s.genres.GetGenresByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving genres: %w", err)
	}

	byID := make(map[string]model.Genre, len(genres))
	for _, g := range genres {
		byID[g.ID] = g
	}

	for i := range items {
		resolved := make([]model.Genre, 0, len(items[i].GenreIDs))
		for _, id := range items[i].GenreIDs {
			if g, ok := byID[id]; ok {
				resolved = append(resolved, g)
			}
		}
		items[i].Genres = resolved
	}
	return nil
}

// resolveDetail fully resolves one item: genres, the owning user and each
// review's author. Users deleted since they wrote are simply absent.
func (s *CatalogService) resolveDetail(ctx context.Context, item *model.MediaItem) error {
	single := []model.MediaItem{*item}
	if err := s.resolveGenres(ctx, single); err != nil {
		return err
	}
	item.Genres = single[0].Genres

	ids := []string{item.OwnerID}
	for _, r := range item.Reviews {
		ids = append(ids, r.OwnerID)
	}

	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolving media users: %w", err)
	}

	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	if owner, ok := byID[item.OwnerID]; ok {
		item.Owner = &owner
	}
	for i := range item.Reviews {
		if author, ok := byID[item.Reviews[i].OwnerID]; ok {
			item.Reviews[i].Owner = &author
		}
	}
	return nil
}
