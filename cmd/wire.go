package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/lepinkainen/naoka/internal/datastore"
	"github.com/lepinkainen/naoka/internal/provider"
	"github.com/lepinkainen/naoka/internal/provider/anilist"
	"github.com/lepinkainen/naoka/internal/provider/myanimelist"
	"github.com/lepinkainen/naoka/internal/ratelimit"
)

// Function variables for testability
var (
	loadConfig    = config.Load
	buildRegistry = newRegistry
	openStore     = connectStore
	timeNow       = time.Now
)

// newRegistry registers every built-in connector, in a fixed order.
func newRegistry(cfg config.Config) (*provider.Registry, error) {
	return provider.NewRegistry(
		myanimelist.New(
			newClient(myanimelist.Code, cfg.MyAnimeList, cfg.Cache),
			myanimelist.WithBaseURL(cfg.MyAnimeList.BaseURL),
			myanimelist.WithPerPage(cfg.MyAnimeList.PerPage),
		),
		anilist.New(
			newClient(anilist.Code, cfg.AniList, cfg.Cache),
			anilist.WithBaseURL(cfg.AniList.BaseURL),
			anilist.WithPerPage(cfg.AniList.PerPage),
		),
	)
}

func newClient(code string, p config.Provider, c config.Cache) *provider.Client {
	opts := []provider.Option{
		provider.WithRateLimiter(ratelimit.New(code, p.RequestsPerSecond)),
	}
	if c.Enabled {
		opts = append(opts, provider.WithPageCache())
	}
	return provider.NewClient(code, opts...)
}

func connectStore(cfg config.Config) (*datastore.SQLiteStore, error) {
	if cfg.DatabaseFile == "" {
		return nil, fmt.Errorf("no database file configured (set database.file or --db)")
	}
	store := datastore.NewSQLiteStore(cfg.DatabaseFile)
	if err := store.Connect(); err != nil {
		return nil, err
	}
	slog.Debug("Opened database", "path", store.Path())
	return store, nil
}

// withStore opens the configured store, runs fn and closes the store.
func withStore(fn func(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore) error) error {
	cfg := loadConfig()
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Warn("Failed to close database", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, cfg, store)
}
