package goodreads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readstack/readstack/internal/hardcover"
)

func staticAttempt(name string, outcome hardcover.LookupOutcome, calls *[]string) LookupAttempt {
	return LookupAttempt{
		Name: name,
		Run: func(ctx context.Context) hardcover.LookupOutcome {
			*calls = append(*calls, name)
			return outcome
		},
	}
}

func TestResolveBookKeyShortCircuits(t *testing.T) {
	var calls []string
	attempts := []LookupAttempt{
		staticAttempt("isbn13", hardcover.Miss(hardcover.ReasonNotFound), &calls),
		staticAttempt("isbn10", hardcover.Match("hardcover:431"), &calls),
		staticAttempt("title-author", hardcover.Match("hardcover:999"), &calls),
	}

	key, outcomes := ResolveBookKey(context.Background(), attempts)
	assert.Equal(t, "hardcover:431", key)
	assert.Equal(t, []string{"isbn13", "isbn10"}, calls)
	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[1].Matched)
}

func TestResolveBookKeyAllMiss(t *testing.T) {
	var calls []string
	attempts := []LookupAttempt{
		staticAttempt("isbn13", hardcover.Miss(hardcover.ReasonNotFound), &calls),
		staticAttempt("title-author", hardcover.Miss(hardcover.ReasonUpstream), &calls),
	}

	key, outcomes := ResolveBookKey(context.Background(), attempts)
	assert.Empty(t, key)
	assert.Len(t, outcomes, 2)
}

func TestOverallFailureReasonPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []hardcover.LookupOutcome
		want     hardcover.FailureReason
	}{
		{
			"all not found",
			[]hardcover.LookupOutcome{
				hardcover.Miss(hardcover.ReasonNotFound),
				hardcover.Miss(hardcover.ReasonNotFound),
			},
			hardcover.ReasonNotFound,
		},
		{
			"upstream beats not found",
			[]hardcover.LookupOutcome{
				hardcover.Miss(hardcover.ReasonNotFound),
				hardcover.Miss(hardcover.ReasonUpstream),
			},
			hardcover.ReasonUpstream,
		},
		{
			"rate limited beats upstream",
			[]hardcover.LookupOutcome{
				hardcover.Miss(hardcover.ReasonUpstream),
				hardcover.Miss(hardcover.ReasonRateLimited),
				hardcover.Miss(hardcover.ReasonUpstream),
			},
			hardcover.ReasonRateLimited,
		},
		{
			"empty chain",
			nil,
			hardcover.ReasonNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallFailureReason(tt.outcomes))
		})
	}
}

type chainCatalog struct {
	isbnCalls   []string
	searchCalls []string
}

func (c *chainCatalog) ResolveByISBN(ctx context.Context, isbn string) hardcover.LookupOutcome {
	c.isbnCalls = append(c.isbnCalls, isbn)
	return hardcover.Miss(hardcover.ReasonNotFound)
}

func (c *chainCatalog) SearchByTitleAuthor(ctx context.Context, title, author string) hardcover.LookupOutcome {
	c.searchCalls = append(c.searchCalls, title+"/"+author)
	return hardcover.Miss(hardcover.ReasonNotFound)
}

func (c *chainCatalog) GetDetail(ctx context.Context, bookKey string, opts hardcover.DetailOptions) (*hardcover.BookDetail, error) {
	return &hardcover.BookDetail{BookKey: bookKey}, nil
}

func (c *chainCatalog) SeedMetadata(meta hardcover.BookMeta) error { return nil }

func TestAttemptsForFullChain(t *testing.T) {
	catalog := &chainCatalog{}
	row := Row{
		ColTitle:  "Dune",
		ColAuthor: "Frank Herbert",
		ColISBN:   `="0441013597"`,
		ColISBN13: `="9780441013593"`,
	}

	attempts := attemptsFor(catalog, row)
	require.Len(t, attempts, 3)
	assert.Equal(t, "isbn13", attempts[0].Name)
	assert.Equal(t, "isbn10", attempts[1].Name)
	assert.Equal(t, "title-author", attempts[2].Name)

	_, _ = ResolveBookKey(context.Background(), attempts)
	// ISBNs reach the catalog normalized, in isbn13-first order.
	assert.Equal(t, []string{"9780441013593", "0441013597"}, catalog.isbnCalls)
	assert.Equal(t, []string{"Dune/Frank Herbert"}, catalog.searchCalls)
}

func TestAttemptsForSkipsBlankISBNs(t *testing.T) {
	catalog := &chainCatalog{}
	row := Row{
		ColTitle:  "Dune",
		ColAuthor: "Frank Herbert",
		ColISBN:   `=""`,
		ColISBN13: "",
	}

	attempts := attemptsFor(catalog, row)
	require.Len(t, attempts, 1)
	assert.Equal(t, "title-author", attempts[0].Name)
}
