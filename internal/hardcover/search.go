package hardcover

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/readstack/readstack/internal/cache"
)

const searchLimit = 25

// primarySearchQuery uses the provider's dedicated search endpoint. Its
// results payload is an opaque JSON document from the search backend.
const primarySearchQuery = `
query Search($query: String!, $perPage: Int!) {
  search(query: $query, query_type: "Book", per_page: $perPage) {
    results
  }
}`

// fallbackSearchQuery goes through the plain books relation. Used when the
// primary query no longer matches the provider's schema.
const fallbackSearchQuery = `
query SearchBooks($pattern: String!, $limit: Int!) {
  books(where: { title: { _ilike: $pattern } }, order_by: { users_count: desc }, limit: $limit) {
    id
    title
    release_year
    users_count
    cached_image
    contributions {
      author {
        name
      }
    }
  }
}`

type searchEndpointData struct {
	Search struct {
		Results json.RawMessage `json:"results"`
	} `json:"search"`
}

type searchHits struct {
	Hits []struct {
		Document struct {
			ID          json.Number `json:"id"`
			Title       string      `json:"title"`
			AuthorNames []string    `json:"author_names"`
			ReleaseYear int         `json:"release_year"`
			UsersCount  float64     `json:"users_count"`
			Image       struct {
				URL string `json:"url"`
			} `json:"image"`
		} `json:"document"`
	} `json:"hits"`
}

type booksRelationData struct {
	Books []bookNode `json:"books"`
}

type bookNode struct {
	ID            json.Number `json:"id"`
	Title         string      `json:"title"`
	ReleaseYear   int         `json:"release_year"`
	UsersCount    float64     `json:"users_count"`
	CachedImage   string      `json:"cached_image"`
	Contributions []struct {
		Author struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"contributions"`
}

func (b bookNode) authors() []string {
	var names []string
	for _, contribution := range b.Contributions {
		if contribution.Author.Name != "" {
			names = append(names, contribution.Author.Name)
		}
	}
	return names
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Search finds catalog books matching the query. Results are cached by the
// normalized query, and each hit opportunistically seeds the long-TTL
// metadata cache.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	normalized := normalizeQuery(query)
	if normalized == "" {
		return nil, nil
	}

	if data, ok, err := c.cache.Get(cache.SearchTable, normalized); err == nil && ok {
		var results []SearchResult
		if err := json.Unmarshal([]byte(data), &results); err == nil {
			slog.Debug("Search cache hit", "query", normalized)
			return results, nil
		}
		slog.Warn("Failed to unmarshal cached search results, refetching", "query", normalized, "error", err)
	}

	results, err := c.searchPrimary(ctx, normalized)
	if isQueryShapeError(err) {
		slog.Warn("Primary search query rejected by provider schema, using fallback", "error", err)
		results, err = c.searchFallback(ctx, normalized)
	}
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(results); err == nil {
		_ = c.cache.Set(cache.SearchTable, normalized, string(data), cache.SearchTTL)
	}

	// Fire-and-forget metadata seeding; a failed seed never fails the search.
	for _, result := range results {
		c.seedBookMeta(BookMeta{
			BookKey:  result.BookKey,
			Title:    result.Title,
			Authors:  result.Authors,
			CoverURL: result.CoverURL,
		})
	}

	return results, nil
}

func (c *Client) searchPrimary(ctx context.Context, query string) ([]SearchResult, error) {
	var data searchEndpointData
	err := c.execute(ctx, primarySearchQuery, map[string]any{
		"query":   query,
		"perPage": searchLimit,
	}, &data)
	if err != nil {
		return nil, err
	}

	var hits searchHits
	if err := json.Unmarshal(data.Search.Results, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	results := make([]SearchResult, 0, len(hits.Hits))
	for _, hit := range hits.Hits {
		id, err := hit.Document.ID.Int64()
		if err != nil {
			continue
		}
		results = append(results, SearchResult{
			BookKey:     BookKey(int(id)),
			Title:       hit.Document.Title,
			Authors:     hit.Document.AuthorNames,
			ReleaseYear: hit.Document.ReleaseYear,
			Popularity:  hit.Document.UsersCount,
			CoverURL:    hit.Document.Image.URL,
		})
	}
	return results, nil
}

func (c *Client) searchFallback(ctx context.Context, query string) ([]SearchResult, error) {
	var data booksRelationData
	err := c.execute(ctx, fallbackSearchQuery, map[string]any{
		"pattern": "%" + query + "%",
		"limit":   searchLimit,
	}, &data)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(data.Books))
	for _, book := range data.Books {
		id, err := book.ID.Int64()
		if err != nil {
			continue
		}
		results = append(results, SearchResult{
			BookKey:     BookKey(int(id)),
			Title:       book.Title,
			Authors:     book.authors(),
			ReleaseYear: book.ReleaseYear,
			Popularity:  book.UsersCount,
			CoverURL:    book.CachedImage,
		})
	}
	return results, nil
}

func (c *Client) seedBookMeta(meta BookMeta) {
	if meta.BookKey == "" || meta.Title == "" {
		return
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := c.cache.Set(cache.BookMetaTable, meta.BookKey, string(data), cache.MetadataTTL); err != nil {
		slog.Debug("Failed to seed book metadata", "book_key", meta.BookKey, "error", err)
	}
}

// scoreCandidate rates how well a search hit matches the wanted title and
// author. An exact case-insensitive title match scores 4, a substring match
// in either direction 2; an author substring hit adds 3.
func scoreCandidate(candidate SearchResult, title, author string) int {
	score := 0

	wantTitle := strings.ToLower(strings.TrimSpace(title))
	gotTitle := strings.ToLower(strings.TrimSpace(candidate.Title))
	switch {
	case wantTitle != "" && wantTitle == gotTitle:
		score += 4
	case wantTitle != "" && gotTitle != "" &&
		(strings.Contains(gotTitle, wantTitle) || strings.Contains(wantTitle, gotTitle)):
		score += 2
	}

	wantAuthor := strings.ToLower(strings.TrimSpace(author))
	if wantAuthor != "" {
		for _, name := range candidate.Authors {
			gotAuthor := strings.ToLower(strings.TrimSpace(name))
			if gotAuthor == "" {
				continue
			}
			if strings.Contains(gotAuthor, wantAuthor) || strings.Contains(wantAuthor, gotAuthor) {
				score += 3
				break
			}
		}
	}

	return score
}

// minMatchScore is the acceptance threshold for fuzzy title/author matching.
// A bare substring title hit (2) is not enough on its own.
const minMatchScore = 3

// pickBestMatch returns the highest-scoring candidate at or above the
// acceptance threshold. Ties keep the first candidate in provider order.
func pickBestMatch(candidates []SearchResult, title, author string) (SearchResult, bool) {
	var best SearchResult
	bestScore := 0
	for _, candidate := range candidates {
		if score := scoreCandidate(candidate, title, author); score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < minMatchScore {
		return SearchResult{}, false
	}
	return best, true
}
