package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// HardcoverAPIToken is the bearer token for the Hardcover catalog API
	HardcoverAPIToken string
	// StoreDBFile is the path to the durable store SQLite database
	StoreDBFile string
	// CacheDBFile is the path to the catalog cache SQLite database
	CacheDBFile string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("store.dbfile", "./readstack.db")
	viper.SetDefault("cache.dbfile", "./cache.db")

	// Get values from viper
	HardcoverAPIToken = viper.GetString("HardcoverAPIToken")
	StoreDBFile = viper.GetString("store.dbfile")
	CacheDBFile = viper.GetString("cache.dbfile")
}
