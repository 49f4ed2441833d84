// Package sm2 implements the SM-2 spaced-repetition scheduling update used
// for flashcard reviews.
package sm2

import (
	"fmt"
	"math"
	"time"
)

// Review holds the scheduling state of one flashcard.
type Review struct {
	// Repetitions is the count of consecutive correct reviews.
	Repetitions int

	// EaseFactor starts at 2.5 and never drops below 1.3.
	EaseFactor float64

	// IntervalDays is the current gap until the next review.
	IntervalDays int
}

// NewReview returns the initial state for a fresh flashcard.
func NewReview() Review {
	return Review{EaseFactor: 2.5}
}

// Update applies one review with quality in [0,5] and returns the new state.
// Quality below 3 resets the repetition streak to a one-day interval; 3 and
// above advances the schedule (1 day, 6 days, then interval*EF rounded).
func Update(r Review, quality int) (Review, error) {
	if quality < 0 || quality > 5 {
		return Review{}, fmt.Errorf("quality must be between 0 and 5, got %d", quality)
	}
	if r.EaseFactor == 0 {
		r.EaseFactor = 2.5
	}

	if quality < 3 {
		r.Repetitions = 0
		r.IntervalDays = 1
		return r, nil
	}

	switch r.Repetitions {
	case 0:
		r.IntervalDays = 1
	case 1:
		r.IntervalDays = 6
	default:
		r.IntervalDays = int(math.Round(float64(r.IntervalDays) * r.EaseFactor))
	}
	r.Repetitions++

	q := float64(quality)
	ef := r.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
	if ef < 1.3 {
		ef = 1.3
	}
	r.EaseFactor = ef

	return r, nil
}

// NextReviewDate returns the day the card comes due, given the review time.
func NextReviewDate(r Review, reviewedAt time.Time) time.Time {
	return reviewedAt.AddDate(0, 0, r.IntervalDays)
}
