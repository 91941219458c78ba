package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rating bounds for a review.
const (
	MinRating = 1
	MaxRating = 10
)

// Review is a user's rating of a bootcamp.
// The store enforces one review per (user, bootcamp) pair; duplicates surface
// as ErrDuplicateReview.
type Review struct {
	// ID is the unique identifier for the review.
	ID uuid.UUID `json:"id"`

	// Title is the review headline.
	Title string `json:"title"`

	// Text is the review body.
	Text string `json:"text"`

	// Rating is the score (1..10); feeds the bootcamp's AverageRating.
	Rating int `json:"rating"`

	// BootcampID references the reviewed bootcamp.
	BootcampID uuid.UUID `json:"bootcamp"`

	// UserID references the review author.
	UserID uuid.UUID `json:"user"`

	// CreatedAt is the timestamp when the review was created.
	CreatedAt time.Time `json:"createdAt"`
}

// NewReview creates a Review for the given bootcamp authored by the given user.
func NewReview(bootcampID, userID uuid.UUID) *Review {
	return &Review{
		ID:         uuid.New(),
		BootcampID: bootcampID,
		UserID:     userID,
		CreatedAt:  time.Now().UTC(),
	}
}

// OwnedBy reports whether the given user authored this review.
func (r *Review) OwnedBy(userID uuid.UUID) bool {
	return r.UserID == userID
}
