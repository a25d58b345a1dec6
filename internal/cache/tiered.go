package cache

import (
	"log/slog"
	"time"
)

// Tiered composes the fast tier and the durable tier into a single Cache.
// Reads go through the fast tier first; a durable hit refreshes the fast tier
// with a short TTL. Writes go to both tiers. Errors in either tier degrade to
// the other tier instead of failing the caller - cache entries are idempotent
// derivations of catalog state, so last-writer-wins races are safe.
type Tiered struct {
	fast    Cache
	durable Cache
}

// NewTiered creates a read-through/write-through cache over the given tiers.
// The durable tier is authoritative.
func NewTiered(fast, durable Cache) *Tiered {
	return &Tiered{fast: fast, durable: durable}
}

// Get checks the fast tier, then the durable tier.
func (t *Tiered) Get(table, key string) (string, bool, error) {
	data, ok, err := t.fast.Get(table, key)
	if err != nil {
		slog.Warn("Fast cache tier read failed", "table", table, "key", key, "error", err)
	} else if ok {
		return data, true, nil
	}

	data, ok, err = t.durable.Get(table, key)
	if err != nil {
		slog.Warn("Durable cache tier read failed", "table", table, "key", key, "error", err)
		return "", false, nil
	}
	if !ok {
		return "", false, nil
	}

	if err := t.fast.Set(table, key, data, MemoryRefreshTTL); err != nil {
		slog.Warn("Fast cache tier refresh failed", "table", table, "key", key, "error", err)
	}
	return data, true, nil
}

// Set writes to both tiers. The fast tier gets at most the refresh TTL.
func (t *Tiered) Set(table, key, data string, ttl time.Duration) error {
	fastTTL := ttl
	if fastTTL > MemoryRefreshTTL {
		fastTTL = MemoryRefreshTTL
	}
	if err := t.fast.Set(table, key, data, fastTTL); err != nil {
		slog.Warn("Fast cache tier write failed", "table", table, "key", key, "error", err)
	}
	if err := t.durable.Set(table, key, data, ttl); err != nil {
		slog.Warn("Durable cache tier write failed", "table", table, "key", key, "error", err)
	}
	return nil
}
