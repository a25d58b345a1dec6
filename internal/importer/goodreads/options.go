// Package goodreads implements the Goodreads CSV import reconciliation
// pipeline: row planning, catalog resolution, and merging into the user's
// reading and to-read collections.
package goodreads

import (
	"encoding/json"
	"fmt"

	"github.com/readstack/readstack/internal/store"
)

// RatingValue maps a star rating onto a judgment, or leaves it unjudged.
type RatingValue string

const (
	RatingAccepted RatingValue = "Accepted"
	RatingRejected RatingValue = "Rejected"
	RatingUnjudged RatingValue = "Unjudged"
)

func (v RatingValue) valid() bool {
	switch v {
	case RatingAccepted, RatingRejected, RatingUnjudged:
		return true
	}
	return false
}

// RatingMap assigns a judgment outcome to each of the five star ratings.
type RatingMap struct {
	Star1 RatingValue `json:"star1"`
	Star2 RatingValue `json:"star2"`
	Star3 RatingValue `json:"star3"`
	Star4 RatingValue `json:"star4"`
	Star5 RatingValue `json:"star5"`
}

// Options are the user-supplied import options, serialized onto the import
// record so reprocessing sees the same settings.
type Options struct {
	MapRatings bool      `json:"mapRatings"`
	Ratings    RatingMap `json:"ratings"`
}

// DefaultOptions maps low ratings to rejected and high ratings to accepted.
func DefaultOptions() Options {
	return Options{
		MapRatings: true,
		Ratings: RatingMap{
			Star1: RatingRejected,
			Star2: RatingRejected,
			Star3: RatingUnjudged,
			Star4: RatingAccepted,
			Star5: RatingAccepted,
		},
	}
}

// Validate checks that every star mapping carries a known value.
func (o Options) Validate() error {
	stars := []struct {
		name  string
		value RatingValue
	}{
		{"star1", o.Ratings.Star1},
		{"star2", o.Ratings.Star2},
		{"star3", o.Ratings.Star3},
		{"star4", o.Ratings.Star4},
		{"star5", o.Ratings.Star5},
	}
	for _, star := range stars {
		if !star.value.valid() {
			return fmt.Errorf("invalid rating mapping for %s: %q", star.name, star.value)
		}
	}
	return nil
}

// DecodeOptions parses serialized options, falling back to defaults for an
// empty payload.
func DecodeOptions(payload string) (Options, error) {
	if payload == "" {
		return DefaultOptions(), nil
	}
	var opts Options
	if err := json.Unmarshal([]byte(payload), &opts); err != nil {
		return Options{}, fmt.Errorf("failed to decode import options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// judgmentFor maps a star rating through the options table. Ratings outside
// 1-5 are clamped; a non-positive rating or disabled mapping means unjudged.
func (o Options) judgmentFor(rating int) *store.Judgment {
	if !o.MapRatings || rating <= 0 {
		return nil
	}
	if rating > 5 {
		rating = 5
	}

	var value RatingValue
	switch rating {
	case 1:
		value = o.Ratings.Star1
	case 2:
		value = o.Ratings.Star2
	case 3:
		value = o.Ratings.Star3
	case 4:
		value = o.Ratings.Star4
	case 5:
		value = o.Ratings.Star5
	}

	switch value {
	case RatingAccepted:
		j := store.JudgmentAccepted
		return &j
	case RatingRejected:
		j := store.JudgmentRejected
		return &j
	}
	return nil
}
