package goodreads

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/store"
)

func TestDefaultOptionsValid(t *testing.T) {
	assert.NoError(t, DefaultOptions().Validate())
}

func TestValidateRejectsUnknownValue(t *testing.T) {
	opts := DefaultOptions()
	opts.Ratings.Star3 = "Maybe"

	err := opts.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "star3")
}

func TestDecodeOptionsEmptyPayload(t *testing.T) {
	opts, err := DecodeOptions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultOptions(), opts)
}

func TestDecodeOptionsRoundTrip(t *testing.T) {
	opts, err := DecodeOptions(`{"mapRatings":true,"ratings":{"star1":"Rejected","star2":"Rejected","star3":"Accepted","star4":"Accepted","star5":"Accepted"}}`)
	require.NoError(t, err)
	assert.True(t, opts.MapRatings)
	assert.Equal(t, RatingAccepted, opts.Ratings.Star3)
}

func TestDecodeOptionsInvalidJSON(t *testing.T) {
	_, err := DecodeOptions("{not json")
	assert.Error(t, err)
}

func TestDecodeOptionsInvalidMapping(t *testing.T) {
	_, err := DecodeOptions(`{"mapRatings":true,"ratings":{"star1":"Meh","star2":"Rejected","star3":"Unjudged","star4":"Accepted","star5":"Accepted"}}`)
	assert.Error(t, err)
}

func TestJudgmentFor(t *testing.T) {
	opts := DefaultOptions()

	accepted := store.JudgmentAccepted
	rejected := store.JudgmentRejected

	tests := []struct {
		name   string
		rating int
		want   *store.Judgment
	}{
		{"one star rejected", 1, &rejected},
		{"two stars rejected", 2, &rejected},
		{"three stars unjudged", 3, nil},
		{"four stars accepted", 4, &accepted},
		{"five stars accepted", 5, &accepted},
		{"unrated", 0, nil},
		{"negative clamps to unjudged", -1, nil},
		{"above five clamps to five", 9, &accepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := opts.judgmentFor(tt.rating)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestJudgmentForMappingDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.MapRatings = false

	assert.Nil(t, opts.judgmentFor(5))
}
