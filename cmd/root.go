package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lepinkainen/humanlog"
	"github.com/lepinkainen/naoka/internal/cache"
	"github.com/lepinkainen/naoka/internal/config"
	"github.com/spf13/viper"
)

const (
	appName        = "naoka"
	appDescription = "Import anime and manga catalogs into a local SQLite database."
)

// CLI is the root of the command tree.
type CLI struct {
	Database    string `name:"db" help:"SQLite database file (default from config: database.file)"`
	Verbose     bool   `short:"v" help:"Enable debug logging"`
	Cache       bool   `help:"Cache fetched pages during full imports"`
	CacheDBFile string `help:"Page cache database file (default from config: cache.dbfile)"`
	CacheTTL    string `help:"Page cache time-to-live, e.g. 24h (default from config: cache.ttl)"`

	Import    ImportCmd    `cmd:"" help:"Import the full catalog of a provider"`
	Update    UpdateCmd    `cmd:"" help:"Import entries changed since the last successful run"`
	Providers ProvidersCmd `cmd:"" help:"List registered providers and their stored record counts"`
	Flush     FlushCmd     `cmd:"" help:"Delete every stored record and mapping group"`
	Mappings  MappingsCmd  `cmd:"" help:"Manage confirmed cross-provider mappings"`
	Runs      RunsCmd      `cmd:"" help:"Show recent import runs"`
	Schedule  ScheduleCmd  `cmd:"" help:"Run incremental updates on a cron schedule"`
	Export    ExportCmd    `cmd:"" help:"Export stored records to a remote service"`
	CacheCmd  CacheCmd     `cmd:"" name:"cache" help:"Manage the page cache"`
}

// CacheCmd groups page cache maintenance.
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Drop cached pages for a provider"`
	Prune      cache.PruneCacheCmd      `cmd:"" help:"Drop cached pages older than the cache TTL"`
	Stats      cache.StatsCacheCmd      `cmd:"" help:"Show cached pages per provider"`
}

// stdout receives command output; tests swap it.
var stdout io.Writer = os.Stdout

// Execute parses the command line and runs the selected command.
func Execute() {
	initLogging(false)

	if err := initConfig(); err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name(appName),
		kong.Description(appDescription),
		kong.UsageOnError(),
	)

	if cli.Verbose {
		initLogging(true)
	}
	updateGlobalConfig(cli)

	err := ctx.Run()
	if closeErr := cache.ResetGlobalCache(); closeErr != nil {
		slog.Warn("Failed to close page cache", "error", closeErr)
	}
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() error {
	// a missing .env is normal
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	config.SetDefaults()
	if err := config.BindEnv(); err != nil {
		return fmt.Errorf("failed to bind environment variables: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Info("Config file not found, writing default config file")
		if err := viper.SafeWriteConfig(); err != nil {
			slog.Warn("Error writing config file", "error", err)
		}
	}
	return nil
}

// updateGlobalConfig lets flags given on the command line win over the
// config file.
func updateGlobalConfig(cli *CLI) {
	if cli.Database != "" {
		viper.Set("database.file", cli.Database)
	}
	if cli.Cache {
		viper.Set("cache.enabled", true)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
