package cache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDBSetAndGet(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Set(SearchTable, "dune", `{"hits":1}`, time.Hour))

	data, ok, err := db.Get(SearchTable, "dune")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"hits":1}`, data)
}

func TestDBGetMiss(t *testing.T) {
	db := newTestDB(t)

	_, ok, err := db.Get(SearchTable, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDBExpiredEntryIsMiss(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Set(DetailTable, "hardcover:1", "old", -time.Minute))

	_, ok, err := db.Get(DetailTable, "hardcover:1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDBRejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)

	err := db.Set("users; DROP TABLE imports", "k", "v", time.Hour)
	assert.Error(t, err)

	_, _, err = db.Get("bogus_cache", "k")
	assert.Error(t, err)
}

func TestDBSetOverwrites(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Set(BookMetaTable, "hardcover:7", "first", time.Hour))
	require.NoError(t, db.Set(BookMetaTable, "hardcover:7", "second", time.Hour))

	data, ok, err := db.Get(BookMetaTable, "hardcover:7")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", data)
}

func TestDBClearExpired(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.Set(SearchTable, "old", "x", -time.Minute))
	require.NoError(t, db.Set(SearchTable, "fresh", "y", time.Hour))
	require.NoError(t, db.ClearExpired(SearchTable))

	_, ok, err := db.Get(SearchTable, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory()
	current := time.Now()
	m.now = func() time.Time { return current }

	require.NoError(t, m.Set(SearchTable, "dune", "data", time.Minute))

	data, ok, err := m.Get(SearchTable, "dune")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "data", data)

	current = current.Add(2 * time.Minute)
	_, ok, err = m.Get(SearchTable, "dune")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryKeysPartitionedByTable(t *testing.T) {
	m := NewMemory()

	require.NoError(t, m.Set(SearchTable, "key", "search", time.Hour))
	require.NoError(t, m.Set(DetailTable, "key", "detail", time.Hour))

	data, ok, _ := m.Get(DetailTable, "key")
	assert.True(t, ok)
	assert.Equal(t, "detail", data)
}

func TestTieredReadThrough(t *testing.T) {
	fast := NewMemory()
	durable := newTestDB(t)
	tiered := NewTiered(fast, durable)

	// Durable hit refreshes the fast tier.
	require.NoError(t, durable.Set(SearchTable, "dune", "durable", time.Hour))

	data, ok, err := tiered.Get(SearchTable, "dune")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "durable", data)

	fastData, ok, _ := fast.Get(SearchTable, "dune")
	assert.True(t, ok)
	assert.Equal(t, "durable", fastData)
}

func TestTieredWriteThrough(t *testing.T) {
	fast := NewMemory()
	durable := newTestDB(t)
	tiered := NewTiered(fast, durable)

	require.NoError(t, tiered.Set(DetailTable, "hardcover:9", "payload", MetadataTTL))

	_, ok, _ := fast.Get(DetailTable, "hardcover:9")
	assert.True(t, ok)
	_, ok, _ = durable.Get(DetailTable, "hardcover:9")
	assert.True(t, ok)
}

type failingCache struct{}

func (failingCache) Get(table, key string) (string, bool, error) {
	return "", false, assert.AnError
}

func (failingCache) Set(table, key, data string, ttl time.Duration) error {
	return assert.AnError
}

func TestTieredDegradesWhenFastTierFails(t *testing.T) {
	durable := newTestDB(t)
	tiered := NewTiered(failingCache{}, durable)

	require.NoError(t, tiered.Set(SearchTable, "dune", "data", time.Hour))

	data, ok, err := tiered.Get(SearchTable, "dune")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "data", data)
}

func TestTieredDegradesWhenDurableTierFails(t *testing.T) {
	fast := NewMemory()
	tiered := NewTiered(fast, failingCache{})

	require.NoError(t, tiered.Set(SearchTable, "dune", "data", time.Hour))

	data, ok, err := tiered.Get(SearchTable, "dune")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "data", data)
}
