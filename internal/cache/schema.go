package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// SearchCacheSchema defines the schema for catalog search result cache
const SearchCacheSchema = `
CREATE TABLE IF NOT EXISTS search_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_search_cached_at ON search_cache(cached_at);
`

// DetailCacheSchema defines the schema for full book detail cache
const DetailCacheSchema = `
CREATE TABLE IF NOT EXISTS detail_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_detail_cached_at ON detail_cache(cached_at);
`

// BookMetaCacheSchema defines the schema for lightweight book metadata cache
const BookMetaCacheSchema = `
CREATE TABLE IF NOT EXISTS book_meta_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_book_meta_cached_at ON book_meta_cache(cached_at);
`

// SeriesCacheSchema defines the schema for series detail cache
const SeriesCacheSchema = `
CREATE TABLE IF NOT EXISTS series_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	expires_at DATETIME NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_series_cached_at ON series_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	SearchCacheSchema,
	DetailCacheSchema,
	BookMetaCacheSchema,
	SeriesCacheSchema,
}

// Cache table names used by the catalog resolver.
const (
	SearchTable   = "search_cache"
	DetailTable   = "detail_cache"
	BookMetaTable = "book_meta_cache"
	SeriesTable   = "series_cache"
)

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	SearchTable:   true,
	DetailTable:   true,
	BookMetaTable: true,
	SeriesTable:   true,
}
