package hardcover

import (
	"fmt"
	"strconv"
	"strings"
)

// BookKeyPrefix prefixes every catalog book key. The remainder is the
// provider's numeric book id.
const BookKeyPrefix = "hardcover:"

// BookKey builds a catalog key from a provider book id.
func BookKey(id int) string {
	return BookKeyPrefix + strconv.Itoa(id)
}

// ParseBookID extracts the numeric provider id from a book key.
func ParseBookID(key string) (int, error) {
	rest, ok := strings.CutPrefix(key, BookKeyPrefix)
	if !ok {
		return 0, fmt.Errorf("not a hardcover book key: %q", key)
	}
	id, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid book id in key %q: %w", key, err)
	}
	return id, nil
}

// SearchResult is one catalog hit for a search query.
type SearchResult struct {
	BookKey     string   `json:"book_key"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	ReleaseYear int      `json:"release_year,omitempty"`
	Popularity  float64  `json:"popularity,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
}

// BookMeta is the lightweight book identity seeded into the long-TTL
// metadata cache.
type BookMeta struct {
	BookKey  string   `json:"book_key"`
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	CoverURL string   `json:"cover_url,omitempty"`
}

// BookDetail is the full catalog detail for one book.
type BookDetail struct {
	BookKey        string   `json:"book_key"`
	Title          string   `json:"title"`
	Authors        []string `json:"authors"`
	Description    string   `json:"description,omitempty"`
	CoverURL       string   `json:"cover_url,omitempty"`
	Pages          int      `json:"pages,omitempty"`
	ReleaseYear    int      `json:"release_year,omitempty"`
	SeriesID       string   `json:"series_id,omitempty"`
	SeriesPosition float64  `json:"series_position,omitempty"`
}

// DetailOptions controls how GetDetail resolves a book key.
type DetailOptions struct {
	// AllowRemoteFetch permits querying the provider on a cache miss.
	AllowRemoteFetch bool
	// ForceRemoteFetch bypasses cached detail and goes straight to the provider.
	ForceRemoteFetch bool
	// AllowMetadataFallback permits answering from the seeded metadata cache.
	AllowMetadataFallback bool
}

// SeriesBook is one ordered member of a series.
type SeriesBook struct {
	BookKey    string  `json:"book_key"`
	Title      string  `json:"title"`
	Position   float64 `json:"position"`
	Popularity float64 `json:"popularity,omitempty"`
	CoverURL   string  `json:"cover_url,omitempty"`
}

// SeriesDetail is a series with its ordered member books.
type SeriesDetail struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Books []SeriesBook `json:"books"`
}

// FailureReason classifies why a lookup attempt produced no book key.
type FailureReason string

const (
	ReasonNotFound    FailureReason = "not_found"
	ReasonRateLimited FailureReason = "rate_limited"
	ReasonUpstream    FailureReason = "upstream_error"
)

// LookupOutcome is the result of one resolution attempt against the catalog.
type LookupOutcome struct {
	Matched bool
	BookKey string
	Reason  FailureReason
}

// Match builds a successful outcome.
func Match(bookKey string) LookupOutcome {
	return LookupOutcome{Matched: true, BookKey: bookKey}
}

// Miss builds a failed outcome with the given reason.
func Miss(reason FailureReason) LookupOutcome {
	return LookupOutcome{Reason: reason}
}
