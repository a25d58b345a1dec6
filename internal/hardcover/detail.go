package hardcover

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"

	"github.com/readstack/readstack/internal/cache"
)

const bookByIDQuery = `
query BookByID($id: Int!) {
  books_by_pk(id: $id) {
    id
    title
    description
    pages
    release_year
    cached_image
    contributions {
      author {
        name
      }
    }
    book_series {
      position
      series {
        id
      }
    }
  }
}`

const seriesByIDQuery = `
query SeriesByID($id: Int!) {
  series_by_pk(id: $id) {
    id
    name
    book_series {
      position
      book {
        id
        title
        users_count
        cached_image
      }
    }
  }
}`

type bookByIDData struct {
	Book *struct {
		bookNode
		Description string `json:"description"`
		Pages       int    `json:"pages"`
		BookSeries  []struct {
			Position float64 `json:"position"`
			Series   struct {
				ID json.Number `json:"id"`
			} `json:"series"`
		} `json:"book_series"`
	} `json:"books_by_pk"`
}

type seriesByIDData struct {
	Series *struct {
		ID         json.Number `json:"id"`
		Name       string      `json:"name"`
		BookSeries []struct {
			Position float64 `json:"position"`
			Book     struct {
				ID          json.Number `json:"id"`
				Title       string      `json:"title"`
				UsersCount  float64     `json:"users_count"`
				CachedImage string      `json:"cached_image"`
			} `json:"book"`
		} `json:"book_series"`
	} `json:"series_by_pk"`
}

// GetDetail resolves a book key to its full detail using up to three tiers:
// cached detail, previously-seeded metadata, then a remote fetch. When none
// apply it degrades to a minimal stub carrying the key as title.
func (c *Client) GetDetail(ctx context.Context, bookKey string, opts DetailOptions) (*BookDetail, error) {
	if !opts.ForceRemoteFetch {
		if data, ok, err := c.cache.Get(cache.DetailTable, bookKey); err == nil && ok {
			var detail BookDetail
			if err := json.Unmarshal([]byte(data), &detail); err == nil {
				return &detail, nil
			}
			slog.Warn("Failed to unmarshal cached detail, refetching", "book_key", bookKey, "error", err)
		}

		if opts.AllowMetadataFallback {
			if data, ok, err := c.cache.Get(cache.BookMetaTable, bookKey); err == nil && ok {
				var meta BookMeta
				if err := json.Unmarshal([]byte(data), &meta); err == nil {
					return &BookDetail{
						BookKey:  meta.BookKey,
						Title:    meta.Title,
						Authors:  meta.Authors,
						CoverURL: meta.CoverURL,
					}, nil
				}
			}
		}
	}

	if opts.AllowRemoteFetch || opts.ForceRemoteFetch {
		id, err := ParseBookID(bookKey)
		if err != nil {
			slog.Warn("Cannot fetch detail for unparseable book key", "book_key", bookKey, "error", err)
			return stubDetail(bookKey), nil
		}
		return c.fetchDetail(ctx, bookKey, id)
	}

	return stubDetail(bookKey), nil
}

func stubDetail(bookKey string) *BookDetail {
	return &BookDetail{BookKey: bookKey, Title: bookKey}
}

func (c *Client) fetchDetail(ctx context.Context, bookKey string, id int) (*BookDetail, error) {
	var data bookByIDData
	if err := c.execute(ctx, bookByIDQuery, map[string]any{"id": id}, &data); err != nil {
		return nil, err
	}
	if data.Book == nil {
		return nil, ErrNotFound
	}

	detail := &BookDetail{
		BookKey:     bookKey,
		Title:       data.Book.Title,
		Authors:     data.Book.authors(),
		Description: data.Book.Description,
		CoverURL:    data.Book.CachedImage,
		Pages:       data.Book.Pages,
		ReleaseYear: data.Book.ReleaseYear,
	}
	if len(data.Book.BookSeries) > 0 {
		detail.SeriesID = data.Book.BookSeries[0].Series.ID.String()
		detail.SeriesPosition = data.Book.BookSeries[0].Position
	}

	if payload, err := json.Marshal(detail); err == nil {
		_ = c.cache.Set(cache.DetailTable, bookKey, string(payload), cache.DetailTTL)
	}
	c.seedBookMeta(BookMeta{
		BookKey:  detail.BookKey,
		Title:    detail.Title,
		Authors:  detail.Authors,
		CoverURL: detail.CoverURL,
	})

	return detail, nil
}

// GetSeriesDetail resolves a series with its ordered member books, or nil
// when the series does not exist. Member metadata is seeded into the
// long-TTL cache.
func (c *Client) GetSeriesDetail(ctx context.Context, seriesID int) (*SeriesDetail, error) {
	cacheKey := "series:" + strconv.Itoa(seriesID)
	if data, ok, err := c.cache.Get(cache.SeriesTable, cacheKey); err == nil && ok {
		var detail SeriesDetail
		if err := json.Unmarshal([]byte(data), &detail); err == nil {
			return &detail, nil
		}
	}

	var data seriesByIDData
	if err := c.execute(ctx, seriesByIDQuery, map[string]any{"id": seriesID}, &data); err != nil {
		return nil, err
	}
	if data.Series == nil {
		return nil, nil
	}

	detail := &SeriesDetail{
		ID:   data.Series.ID.String(),
		Name: data.Series.Name,
	}
	for _, member := range data.Series.BookSeries {
		id, err := member.Book.ID.Int64()
		if err != nil {
			continue
		}
		detail.Books = append(detail.Books, SeriesBook{
			BookKey:    BookKey(int(id)),
			Title:      member.Book.Title,
			Position:   member.Position,
			Popularity: member.Book.UsersCount,
			CoverURL:   member.Book.CachedImage,
		})
	}

	// Order: ascending position, then most popular first, then title.
	sort.SliceStable(detail.Books, func(i, j int) bool {
		a, b := detail.Books[i], detail.Books[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Popularity != b.Popularity {
			return a.Popularity > b.Popularity
		}
		return a.Title < b.Title
	})

	if payload, err := json.Marshal(detail); err == nil {
		_ = c.cache.Set(cache.SeriesTable, cacheKey, string(payload), cache.SeriesTTL)
	}
	for _, member := range detail.Books {
		c.seedBookMeta(BookMeta{
			BookKey:  member.BookKey,
			Title:    member.Title,
			CoverURL: member.CoverURL,
		})
	}

	return detail, nil
}
