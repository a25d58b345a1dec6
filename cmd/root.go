package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/readstack/readstack/internal/cache"
	"github.com/readstack/readstack/internal/config"
	"github.com/readstack/readstack/internal/hardcover"
	"github.com/readstack/readstack/internal/importer/goodreads"
	"github.com/readstack/readstack/internal/store"
	"github.com/spf13/viper"
)

// CLI represents the complete command structure for the readstack application
type CLI struct {
	// Global flags
	StoreDBFile string `help:"Path to the durable store SQLite database file" default:"./readstack.db"`
	CacheDBFile string `help:"Path to the catalog cache SQLite database file" default:"./cache.db"`

	Import ImportCmd `cmd:"" help:"Manage Goodreads library imports"`
}

// ImportCmd represents the import command and its subcommands
type ImportCmd struct {
	Run    ImportRunCmd    `cmd:"" help:"Create and process an import from a Goodreads export CSV"`
	Status ImportStatusCmd `cmd:"" help:"Show an import's status and recent issues"`
	List   ImportListCmd   `cmd:"" help:"List recent imports for a user"`
}

// ImportRunCmd creates a queued import from a CSV file and processes it.
type ImportRunCmd struct {
	Input     string `short:"f" help:"Path to Goodreads library export CSV file" required:""`
	User      string `short:"u" help:"User id owning the import" required:""`
	NoRatings bool   `help:"Disable mapping star ratings to judgments"`
}

// ImportStatusCmd shows one import record with its recent issues.
type ImportStatusCmd struct {
	ID   string `help:"Import id" required:""`
	User string `short:"u" help:"User id owning the import" required:""`
}

// ImportListCmd lists a user's recent imports.
type ImportListCmd struct {
	User string `short:"u" help:"User id" required:""`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("readstack"),
		kong.Description("A personal reading tracker with Goodreads import."),
		kong.UsageOnError(),
	)

	viper.Set("store.dbfile", cli.StoreDBFile)
	viper.Set("cache.dbfile", cli.CacheDBFile)
	config.InitConfig()

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("store.dbfile", "./readstack.db")
	viper.SetDefault("cache.dbfile", "./cache.db")

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("HardcoverAPIToken", "HARDCOVER_API_TOKEN"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Debug("Config file not found, using defaults")
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}

// buildService wires the store, caches, catalog client, and import service.
// The returned cleanup closes both databases.
func buildService() (*goodreads.Service, func(), error) {
	st := store.NewSQLiteStore(config.StoreDBFile)
	if err := st.Connect(); err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}

	cacheDB, err := cache.OpenDB(config.CacheDBFile)
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to open cache: %w", err)
	}

	tiered := cache.NewTiered(cache.NewMemory(), cacheDB)
	catalog := hardcover.NewClient(config.HardcoverAPIToken, tiered)
	service := goodreads.NewService(st, catalog)

	cleanup := func() {
		if err := cacheDB.Close(); err != nil {
			slog.Warn("Failed to close cache database", "error", err)
		}
		if err := st.Close(); err != nil {
			slog.Warn("Failed to close store database", "error", err)
		}
	}
	return service, cleanup, nil
}

// Run methods for each command

func (c *ImportRunCmd) Run() error {
	payload, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("failed to read CSV file: %w", err)
	}

	service, cleanup, err := buildService()
	if err != nil {
		return err
	}
	defer cleanup()

	opts := goodreads.DefaultOptions()
	if c.NoRatings {
		opts.MapRatings = false
	}

	ctx := context.Background()
	rec, err := service.CreateQueuedImport(ctx, c.User, c.Input, string(payload), opts)
	if err != nil {
		return err
	}

	if err := service.ProcessImport(ctx, rec.ID, c.User); err != nil {
		return err
	}

	detail, err := service.GetImport(ctx, rec.ID, c.User)
	if err != nil {
		return err
	}
	printImport(detail)
	return nil
}

func (c *ImportStatusCmd) Run() error {
	service, cleanup, err := buildService()
	if err != nil {
		return err
	}
	defer cleanup()

	detail, err := service.GetImport(context.Background(), c.ID, c.User)
	if err != nil {
		return err
	}
	if detail == nil {
		return fmt.Errorf("import %s not found", c.ID)
	}
	printImport(detail)
	return nil
}

func (c *ImportListCmd) Run() error {
	service, cleanup, err := buildService()
	if err != nil {
		return err
	}
	defer cleanup()

	records, err := service.ListImports(context.Background(), c.User)
	if err != nil {
		return err
	}
	for _, rec := range records {
		fmt.Printf("%s  %-22s  %s  processed=%d imported=%d failed=%d warnings=%d\n",
			rec.ID, rec.Status, rec.Filename,
			rec.ProcessedRows, rec.ImportedRows, rec.FailedRows, rec.WarningRows)
	}
	return nil
}

func printImport(detail *goodreads.ImportDetail) {
	rec := detail.Record
	fmt.Printf("import %s (%s)\n", rec.ID, rec.Status)
	fmt.Printf("  rows: total=%d processed=%d imported=%d failed=%d warnings=%d\n",
		rec.TotalRows, rec.ProcessedRows, rec.ImportedRows, rec.FailedRows, rec.WarningRows)
	for _, issue := range detail.Issues {
		fmt.Printf("  row %d [%s] %s: %s (%s)\n",
			issue.RowNumber, issue.Severity, issue.Code, issue.Message, issue.Title)
	}
}
