package model

import (
	"fmt"
	"time"
)

// Media discriminants. The same document shape serves both; only the type
// field (and the optional season) differs.
const (
	TypeMovie  = "movie"
	TypeSeries = "series"
)

// Validation limits for the media aggregate and its embedded reviews.
const (
	MaxDescriptionLength = 500
	MaxReviewTextLength  = 300
	MinRating            = 1
	MaxRating            = 5
)

// NoRating is the avgRating sentinel for an item with no reviews yet.
const NoRating = "No rating"

// Image holds the asset-store output for a media item's poster: the stable
// public identifier, the serving URL, and the two dominant colors the store
// extracts at upload time.
type Image struct {
	PublicID       string `json:"public_id"       bson:"public_id"`
	URL            string `json:"url"             bson:"url"`
	MainColor      string `json:"main_color"      bson:"main_color,omitempty"`
	SecondaryColor string `json:"secondary_color" bson:"secondary_color,omitempty"`
}

// Review is an embedded value record. It has no existence outside its
// parent MediaItem: its ID is only ever resolved through the parent, and
// deleting the parent deletes it.
type Review struct {
	ID        string    `json:"id"        bson:"_id"`
	Text      string    `json:"text"      bson:"text"`
	Rating    int       `json:"rating"    bson:"rating"`
	OwnerID   string    `json:"owner"     bson:"owner"`
	Owner     *User     `json:"ownerInfo,omitempty" bson:"-"` // resolved at read time
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// MediaItem is the aggregate root: the catalog entry plus its embedded
// reviews, treated as one unit of consistency.
//
// Invariants enforced by the service layer (with store-level backstops):
//   - Title is unique across the whole catalog, both types together.
//   - Cast and GenreIDs are non-empty.
//   - OwnerID is set at creation and never reassigned.
//   - At most one review per distinct owner.
//
// Genres, Owner and AvgRating carry `bson:"-"`: they are derived or
// resolved on read and never persisted.
type MediaItem struct {
	ID          string    `json:"id"          bson:"_id"`
	Type        string    `json:"type"        bson:"type"`
	Season      int       `json:"season,omitempty" bson:"season,omitempty"`
	Title       string    `json:"title"       bson:"title"`
	Year        int       `json:"year"        bson:"year"`
	Director    string    `json:"director"    bson:"director"`
	Description string    `json:"description" bson:"description"`
	Cast        []string  `json:"cast"        bson:"cast"`
	GenreIDs    []string  `json:"genreIds"    bson:"genre"`
	Genres      []Genre   `json:"genres,omitempty" bson:"-"`
	OwnerID     string    `json:"owner"       bson:"owner"`
	Owner       *User     `json:"ownerInfo,omitempty" bson:"-"`
	Image       Image     `json:"image"       bson:"image"`
	Reviews     []Review  `json:"reviews"     bson:"reviews"`
	AvgRating   string    `json:"avgRating"   bson:"-"`
	CreatedAt   time.Time `json:"createdAt"   bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"   bson:"updatedAt"`
}

// ComputeAvgRating returns the arithmetic mean of the embedded ratings to
// two decimal places, or the NoRating sentinel when there are none. It is
// recomputed on every read and never written to the store.
func (m *MediaItem) ComputeAvgRating() string {
	if len(m.Reviews) == 0 {
		return NoRating
	}
	sum := 0
	for _, r := range m.Reviews {
		sum += r.Rating
	}
	return fmt.Sprintf("%.2f", float64(sum)/float64(len(m.Reviews)))
}

// ReviewByOwner returns the embedded review written by ownerID, or nil.
func (m *MediaItem) ReviewByOwner(ownerID string) *Review {
	for i := range m.Reviews {
		if m.Reviews[i].OwnerID == ownerID {
			return &m.Reviews[i]
		}
	}
	return nil
}

// ReviewByID returns the embedded review with the given id, or nil.
func (m *MediaItem) ReviewByID(id string) *Review {
	for i := range m.Reviews {
		if m.Reviews[i].ID == id {
			return &m.Reviews[i]
		}
	}
	return nil
}
