package hardcover

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/readstack/readstack/internal/cache"
)

const bookByISBNQuery = `
query BookByISBN($isbn: String!) {
  books(where: {
    editions: {
      _or: [
        { isbn_13: { _eq: $isbn } },
        { isbn_10: { _eq: $isbn } }
      ]
    }
  }, limit: 1) {
    id
    title
    cached_image
    contributions {
      author {
        name
      }
    }
  }
}`

// ResolveByISBN looks a book up by ISBN-10 or ISBN-13, collapsing any
// failure into a classified lookup outcome.
func (c *Client) ResolveByISBN(ctx context.Context, isbn string) LookupOutcome {
	if isbn == "" {
		return Miss(ReasonNotFound)
	}

	var data booksRelationData
	err := c.execute(ctx, bookByISBNQuery, map[string]any{"isbn": isbn}, &data)
	if err != nil {
		slog.Debug("ISBN lookup failed", "isbn", isbn, "error", err)
		return Miss(classifyFailure(err))
	}
	if len(data.Books) == 0 {
		return Miss(ReasonNotFound)
	}

	book := data.Books[0]
	id, err := book.ID.Int64()
	if err != nil {
		return Miss(ReasonUpstream)
	}

	key := BookKey(int(id))
	c.seedBookMeta(BookMeta{
		BookKey:  key,
		Title:    book.Title,
		Authors:  book.authors(),
		CoverURL: book.CachedImage,
	})
	return Match(key)
}

// SearchByTitleAuthor fuzzy-matches a title/author pair against catalog
// search results. Candidates below the acceptance threshold count as not
// found.
func (c *Client) SearchByTitleAuthor(ctx context.Context, title, author string) LookupOutcome {
	if title == "" {
		return Miss(ReasonNotFound)
	}

	results, err := c.Search(ctx, title)
	if err != nil {
		slog.Debug("Title/author search failed", "title", title, "error", err)
		return Miss(classifyFailure(err))
	}

	best, ok := pickBestMatch(results, title, author)
	if !ok {
		return Miss(ReasonNotFound)
	}
	return Match(best.BookKey)
}

// SeedMetadata writes a caller-supplied metadata record into the long-TTL
// metadata cache. The importer uses it as a fallback when detail hydration
// fails, so a later detail view is never empty.
func (c *Client) SeedMetadata(meta BookMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return c.cache.Set(cache.BookMetaTable, meta.BookKey, string(data), cache.MetadataTTL)
}
