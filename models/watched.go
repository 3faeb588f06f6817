package models

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// MediaType distinguishes the two kinds of catalog entries a watched
// record can point at.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

const (
	// MaxReviewLength caps the free-text review at the input boundary.
	MaxReviewLength = 500
	// MinRating and MaxRating bound the personal rating scale.
	MinRating = 1
	MaxRating = 5
)

var (
	ErrInvalidMediaType = errors.New("media type must be movie or tv")
	ErrReviewTooLong    = fmt.Errorf("review exceeds %d characters", MaxReviewLength)
	ErrRatingOutOfRange = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
)

// Valid reports whether the media type is one of the known kinds.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// WatchedKey is the composite identity of a watched entry. The catalog id
// alone is not unique because movie and TV ids come from separate
// namespaces.
type WatchedKey struct {
	ID   int       `json:"id"`
	Type MediaType `json:"type"`
}

// String returns a stable identifier combining media type and id.
func (k WatchedKey) String() string {
	return fmt.Sprintf("%s:%d", k.Type, k.ID)
}

// WatchedImage is a memory image attached to a watched entry. The file
// payload is a MIME-tagged base64 data URL so the record is fully
// self-contained when serialized.
type WatchedImage struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Caption   string    `json:"caption,omitempty"`
	DateAdded time.Time `json:"dateAdded"`
}

// WatchedItem is one entry in the user's watched history.
type WatchedItem struct {
	ID          int            `json:"id"`
	Type        MediaType      `json:"type"`
	Title       string         `json:"title"`
	PosterPath  string         `json:"posterPath,omitempty"`
	DateWatched time.Time      `json:"dateWatched"`
	Review      string         `json:"review,omitempty"`
	Rating      int            `json:"rating,omitempty"`
	Images      []WatchedImage `json:"images"`
}

// Key returns the composite identity of the item.
func (w WatchedItem) Key() WatchedKey {
	return WatchedKey{ID: w.ID, Type: w.Type}
}

// ValidateReview checks the review text against the boundary limit.
func ValidateReview(text string) error {
	if utf8.RuneCountInString(text) > MaxReviewLength {
		return ErrReviewTooLong
	}
	return nil
}

// ValidateRating checks that a rating is on the allowed scale.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return ErrRatingOutOfRange
	}
	return nil
}
