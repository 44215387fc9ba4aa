package domain

import (
	"errors"
	"fmt"
	"time"
)

const (
	// MinRating is the lowest value of a rating slider.
	MinRating = 1
	// MaxRating is the highest value of a rating slider.
	MaxRating = 5
	// DefaultRating is the slider position before the user touches it.
	DefaultRating = 3
)

// ErrRatingOutOfRange is returned when a rating is outside MinRating..MaxRating.
var ErrRatingOutOfRange = errors.New("rating out of range")

// Ratings is the user's verdict on the twin, collected once at the rating step.
type Ratings struct {
	Accuracy      int    `json:"accuracy"`
	Consciousness int    `json:"consciousness"`
	Note          string `json:"note"`
}

// DefaultRatings returns the initial slider values.
func DefaultRatings() Ratings {
	return Ratings{Accuracy: DefaultRating, Consciousness: DefaultRating}
}

// Validate checks both sliders are within range.
func (r Ratings) Validate() error {
	if r.Accuracy < MinRating || r.Accuracy > MaxRating {
		return fmt.Errorf("%w: accuracy %d", ErrRatingOutOfRange, r.Accuracy)
	}
	if r.Consciousness < MinRating || r.Consciousness > MaxRating {
		return fmt.Errorf("%w: consciousness %d", ErrRatingOutOfRange, r.Consciousness)
	}
	return nil
}

// Feedback is a submitted rating as recorded by the proxy.
type Feedback struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id,omitempty"`
	Persona   string    `json:"persona"`
	Ratings   Ratings   `json:"ratings"`
	Turns     int       `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
}
