package goodreads

import (
	"context"

	"github.com/readstack/readstack/internal/hardcover"
)

// LookupAttempt is one strategy in the prioritized book resolution chain.
type LookupAttempt struct {
	Name string
	Run  func(ctx context.Context) hardcover.LookupOutcome
}

// ResolveBookKey runs the attempts strictly in order, short-circuiting on
// the first match. Every outcome attempted is collected, including the
// terminal one, for downstream failure classification.
func ResolveBookKey(ctx context.Context, attempts []LookupAttempt) (string, []hardcover.LookupOutcome) {
	var outcomes []hardcover.LookupOutcome
	for _, attempt := range attempts {
		outcome := attempt.Run(ctx)
		outcomes = append(outcomes, outcome)
		if outcome.Matched {
			return outcome.BookKey, outcomes
		}
	}
	return "", outcomes
}

// OverallFailureReason collapses the attempt chain's failures into one
// reason. Rate limiting anywhere in the chain wins over everything, then an
// upstream error, then not-found.
func OverallFailureReason(outcomes []hardcover.LookupOutcome) hardcover.FailureReason {
	reason := hardcover.ReasonNotFound
	for _, outcome := range outcomes {
		if outcome.Matched {
			continue
		}
		switch outcome.Reason {
		case hardcover.ReasonRateLimited:
			return hardcover.ReasonRateLimited
		case hardcover.ReasonUpstream:
			reason = hardcover.ReasonUpstream
		}
	}
	return reason
}

// attemptsFor builds the standard chain for an import row: ISBN-13 when
// present, then ISBN-10, then a title/author search as the universal
// fallback.
func attemptsFor(catalog Catalog, row Row) []LookupAttempt {
	var attempts []LookupAttempt

	if isbn13 := NormalizeISBN(row[ColISBN13]); isbn13 != "" {
		attempts = append(attempts, LookupAttempt{
			Name: "isbn13",
			Run: func(ctx context.Context) hardcover.LookupOutcome {
				return catalog.ResolveByISBN(ctx, isbn13)
			},
		})
	}
	if isbn10 := NormalizeISBN(row[ColISBN]); isbn10 != "" {
		attempts = append(attempts, LookupAttempt{
			Name: "isbn10",
			Run: func(ctx context.Context) hardcover.LookupOutcome {
				return catalog.ResolveByISBN(ctx, isbn10)
			},
		})
	}

	title := row[ColTitle]
	author := row[ColAuthor]
	attempts = append(attempts, LookupAttempt{
		Name: "title-author",
		Run: func(ctx context.Context) hardcover.LookupOutcome {
			return catalog.SearchByTitleAuthor(ctx, title, author)
		},
	})

	return attempts
}
