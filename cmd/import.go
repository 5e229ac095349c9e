package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/lepinkainen/naoka/internal/datastore"
	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/importer"
	"github.com/lepinkainen/naoka/internal/media"
)

// ImportCmd imports a provider's full catalog.
type ImportCmd struct {
	Provider     string   `arg:"" help:"Provider code, see 'naoka providers'"`
	CommitEvery  int      `short:"n" help:"Records per committed batch (default from config: import.commit_every)"`
	Conflict     bool     `help:"Stop at the first record that is already stored instead of skipping it"`
	Offset       int      `help:"Skip this many entries of every media type"`
	Resume       bool     `short:"r" help:"Continue after the records already stored for the provider"`
	LinkMappings bool     `help:"Save mapping groups for cross-references the provider reports"`
	Type         []string `short:"t" help:"Only import these media types: anime, manga, visual_novel"`
}

func (c *ImportCmd) Run() error {
	return withStore(func(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore) error {
		opts, err := c.options(cfg)
		if err != nil {
			return err
		}
		im, err := newImporter(cfg, store)
		if err != nil {
			return err
		}

		result, err := im.Init(ctx, opts)
		printResult(result, err)
		return err
	})
}

func (c *ImportCmd) options(cfg config.Config) (importer.Options, error) {
	types, err := parseTypes(c.Type)
	if err != nil {
		return importer.Options{}, err
	}
	commitEvery := c.CommitEvery
	if commitEvery == 0 {
		commitEvery = cfg.CommitEvery
	}
	return importer.Options{
		Provider:       c.Provider,
		CommitEvery:    commitEvery,
		StopOnConflict: c.Conflict || cfg.StopOnConflict,
		Offset:         c.Offset,
		Resume:         c.Resume,
		LinkMappings:   c.LinkMappings,
		Types:          types,
	}, nil
}

func parseTypes(names []string) ([]media.Type, error) {
	var types []media.Type
	for _, name := range names {
		t, err := media.ParseType(name)
		if err != nil {
			return nil, errors.NewConfigurationError("type", err.Error())
		}
		types = append(types, t)
	}
	return types, nil
}

// UpdateCmd imports the entries a provider changed since its last
// successful run.
type UpdateCmd struct {
	Provider     string `arg:"" help:"Provider code, see 'naoka providers'"`
	CommitEvery  int    `short:"n" help:"Records per committed batch (default from config: import.commit_every)"`
	LinkMappings bool   `help:"Save mapping groups for cross-references the provider reports"`
}

func (c *UpdateCmd) Run() error {
	return withStore(func(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore) error {
		return runUpdate(ctx, cfg, store, c.Provider, c.CommitEvery, c.LinkMappings)
	})
}

func runUpdate(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore, code string, commitEvery int, link bool) error {
	im, err := newImporter(cfg, store)
	if err != nil {
		return err
	}
	if commitEvery == 0 {
		commitEvery = cfg.CommitEvery
	}

	result, err := im.Update(ctx, importer.Options{
		Provider:     code,
		CommitEvery:  commitEvery,
		LinkMappings: link,
	})
	printResult(result, err)
	return err
}

func newImporter(cfg config.Config, store *datastore.SQLiteStore) (*importer.Importer, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build provider registry: %w", err)
	}
	return importer.New(registry, store,
		importer.WithLogger(slog.Default()),
		importer.WithReporter(newProgressReporter(stdout)),
		importer.WithMappingStore(store),
		importer.WithRunLog(store),
	), nil
}

func printResult(result importer.Result, err error) {
	if err != nil {
		fmt.Fprintf(stdout, "%s %s: %s\n",
			errorStyle.Render("stopped"),
			result.Provider,
			stopReason(err),
		)
	}

	rows := make([][]string, 0, len(result.Types))
	for _, t := range result.Types {
		rows = append(rows, []string{
			string(t.Type),
			fmt.Sprint(t.Offset),
			fmt.Sprint(t.Attempted),
			fmt.Sprint(t.Added),
			fmt.Sprint(t.Attempted - t.Added),
		})
	}
	if len(rows) > 0 {
		fmt.Fprint(stdout, renderTable([]string{"TYPE", "OFFSET", "ATTEMPTED", "ADDED", "SKIPPED"}, rows))
	}

	fmt.Fprintf(stdout, "%s %s (%s): %s added, %s skipped",
		mutedStyle.Render(result.State.String()),
		result.Provider,
		result.Mode,
		countStyle.Render(fmt.Sprint(result.Added)),
		countStyle.Render(fmt.Sprint(result.Skipped())),
	)
	if result.Linked > 0 {
		fmt.Fprintf(stdout, ", %s linked", countStyle.Render(fmt.Sprint(result.Linked)))
	}
	fmt.Fprintln(stdout)
}

// stopReason names the kind of failure ahead of its message.
func stopReason(err error) string {
	switch {
	case errors.IsConflictError(err):
		return "duplicate record: " + err.Error()
	case errors.IsRemoteFetchError(err):
		return "remote fetch failed: " + err.Error()
	case errors.IsBuildError(err):
		return "invalid record: " + err.Error()
	case errors.IsConfigurationError(err):
		return "configuration: " + err.Error()
	}
	return err.Error()
}
