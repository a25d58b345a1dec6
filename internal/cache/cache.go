// Package cache provides the two-tier cache backing catalog lookups: a fast
// in-memory tier in front of a durable SQLite tier.
package cache

import "time"

const (
	// SearchTTL is the time-to-live for catalog search results.
	SearchTTL = 6 * time.Hour
	// DetailTTL is the time-to-live for full book detail entries.
	DetailTTL = 24 * time.Hour
	// SeriesTTL is the time-to-live for series detail entries.
	SeriesTTL = 24 * time.Hour
	// MetadataTTL is the time-to-live for lightweight book metadata.
	// Catalog identity rarely changes, so this is effectively permanent.
	MetadataTTL = 365 * 24 * time.Hour
	// MemoryRefreshTTL is how long a durable-tier hit stays in the fast tier.
	MemoryRefreshTTL = 15 * time.Minute
)

// Cache is a keyed string store with per-entry TTL, partitioned by table name.
type Cache interface {
	// Get returns the cached value for key in table and whether it was found
	// and still fresh.
	Get(table, key string) (string, bool, error)

	// Set stores a value for key in table with the given TTL.
	Set(table, key, data string, ttl time.Duration) error
}
