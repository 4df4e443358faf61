package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/sakif/media-catalog/internal/apperror"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository"
)

// ReviewService manages the single review a user may attach to a media
// item. Reviews live embedded in the parent aggregate; every operation
// here goes through the parent.
//
// Per item and user the review moves NoReview → Reviewed (add) and back
// (delete); update is only valid in Reviewed. The one-review-per-user rule
// holds by construction: the store-level append is conditional on no
// existing review by the same owner, and the in-memory scan before it is
// only a fast path.
type ReviewService struct {
	media  repository.MediaRepository
	logger *slog.Logger
}

func NewReviewService(media repository.MediaRepository, logger *slog.Logger) *ReviewService {
	return &ReviewService{media: media, logger: logger}
}

// ReviewInput carries a new review's content.
type ReviewInput struct {
	Text   string
	Rating int
}

// ReviewPatchInput is a merge patch for an existing review; nil fields are
// left unchanged.
type ReviewPatchInput struct {
	Text   *string
	Rating *int
}

// Add appends reviewerID's review to the parent and returns the updated
// parent. A second review by the same user is a Conflict regardless of
// content.
func (s *ReviewService) Add(ctx context.Context, mediaID, reviewerID string, in ReviewInput) (*model.MediaItem, error) {
	if err := validateReviewText(in.Text); err != nil {
		return nil, err
	}
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	item, err := s.media.GetMediaByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}

	// Fast path; the conditional append below is authoritative.
	if item.ReviewByOwner(reviewerID) != nil {
		return nil, apperror.Conflict("you have already reviewed this title")
	}

	review := model.Review{
		Text:    strings.TrimSpace(in.Text),
		Rating:  in.Rating,
		OwnerID: reviewerID,
	}

	if err := s.media.AddReview(ctx, mediaID, review); err != nil {
		return nil, err
	}

	s.logger.Info("review added",
		slog.String("mediaID", mediaID),
		slog.String("reviewer", reviewerID),
		slog.Int("rating", in.Rating),
	)

	return s.reloadParent(ctx, mediaID)
}

// Update merges the patch onto reviewerID's review. Missing media or
// review is NotFound; someone else's review is Forbidden.
func (s *ReviewService) Update(ctx context.Context, mediaID, reviewID, reviewerID string, in ReviewPatchInput) (*model.MediaItem, error) {
	if in.Text != nil {
		if err := validateReviewText(*in.Text); err != nil {
			return nil, err
		}
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
	}

	if err := s.findOwnedReview(ctx, mediaID, reviewID, reviewerID); err != nil {
		return nil, err
	}

	err := s.media.UpdateReview(ctx, mediaID, reviewID, reviewerID, repository.ReviewPatch{
		Text:   in.Text,
		Rating: in.Rating,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review updated",
		slog.String("mediaID", mediaID),
		slog.String("reviewID", reviewID),
	)

	return s.reloadParent(ctx, mediaID)
}

// Delete removes reviewerID's review from the parent. Not idempotent: a
// second delete reports NotFound.
func (s *ReviewService) Delete(ctx context.Context, mediaID, reviewID, reviewerID string) error {
	if err := s.findOwnedReview(ctx, mediaID, reviewID, reviewerID); err != nil {
		return err
	}

	if err := s.media.RemoveReview(ctx, mediaID, reviewID, reviewerID); err != nil {
		return err
	}

	s.logger.Info("review deleted",
		slog.String("mediaID", mediaID),
		slog.String("reviewID", reviewID),
	)
	return nil
}

// findOwnedReview distinguishes the failure modes the guarded store
// operations collapse: missing parent and missing review are NotFound,
// another user's review is Forbidden.
func (s *ReviewService) findOwnedReview(ctx context.Context, mediaID, reviewID, reviewerID string) error {
	item, err := s.media.GetMediaByID(ctx, mediaID)
	if err != nil {
		return err
	}

	review := item.ReviewByID(reviewID)
	if review == nil {
		return apperror.NotFound("review", reviewID)
	}
	if review.OwnerID != reviewerID {
		return apperror.Forbidden("only the author can change this review")
	}
	return nil
}

// reloadParent re-reads the parent after a mutation so the response
// reflects the stored state, with the derived rating recomputed.
func (s *ReviewService) reloadParent(ctx context.Context, mediaID string) (*model.MediaItem, error) {
	item, err := s.media.GetMediaByID(ctx, mediaID)
	if err != nil {
		return nil, err
	}
	item.AvgRating = item.ComputeAvgRating()
	return item, nil
}

func validateReviewText(text string) error {
	if strings.TrimSpace(text) == "" {
		return apperror.ValidationFailed("text", "review text is required")
	}
	if utf8.RuneCountInString(text) > model.MaxReviewTextLength {
		return apperror.ValidationFailed("text",
			fmt.Sprintf("review text must be %d characters or less", model.MaxReviewTextLength))
	}
	return nil
}

func validateRating(rating int) error {
	if rating < model.MinRating || rating > model.MaxRating {
		return apperror.ValidationFailed("rating",
			fmt.Sprintf("rating must be an integer between %d and %d", model.MinRating, model.MaxRating))
	}
	return nil
}
