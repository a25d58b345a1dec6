package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig()

	assert.Equal(t, "./readstack.db", StoreDBFile)
	assert.Equal(t, "./cache.db", CacheDBFile)
	assert.Empty(t, HardcoverAPIToken)
}

func TestInitConfigReadsViperValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("HardcoverAPIToken", "secret-token")
	viper.Set("store.dbfile", "/data/readstack.db")
	viper.Set("cache.dbfile", "/data/cache.db")

	InitConfig()

	assert.Equal(t, "secret-token", HardcoverAPIToken)
	assert.Equal(t, "/data/readstack.db", StoreDBFile)
	assert.Equal(t, "/data/cache.db", CacheDBFile)
}
