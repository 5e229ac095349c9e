package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/lepinkainen/naoka/internal/datastore"
	"github.com/lepinkainen/naoka/internal/media"
)

// ProvidersCmd lists the registered providers.
type ProvidersCmd struct{}

func (c *ProvidersCmd) Run() error {
	return withStore(func(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore) error {
		registry, err := buildRegistry(cfg)
		if err != nil {
			return err
		}
		counts, err := store.CountByProvider(ctx)
		if err != nil {
			return err
		}

		stored := make(map[string]int, len(counts))
		for _, c := range counts {
			stored[c.Provider+"/"+c.Type] = c.Count
		}

		var rows [][]string
		for _, connector := range registry.All() {
			code := strings.ToLower(connector.Code())
			for _, t := range connector.MediaTypes() {
				rows = append(rows, []string{
					connector.Code(),
					string(t),
					fmt.Sprint(stored[code+"/"+string(t)]),
					media.KeyPrefix(t, connector.Code()) + "*",
				})
			}
		}
		fmt.Fprint(stdout, renderTable([]string{"PROVIDER", "TYPE", "STORED", "KEYS"}, rows))

		if others := unregistered(counts, registry.Codes()); len(others) > 0 {
			fmt.Fprintf(stdout, "%s %s\n", mutedStyle.Render("stored from unregistered providers:"), strings.Join(others, ", "))
		}
		return nil
	})
}

func unregistered(counts []datastore.ProviderCount, codes []string) []string {
	known := make(map[string]bool, len(codes))
	for _, code := range codes {
		known[code] = true
	}
	seen := make(map[string]bool)
	var others []string
	for _, c := range counts {
		if !known[c.Provider] && !seen[c.Provider] {
			seen[c.Provider] = true
			others = append(others, c.Provider)
		}
	}
	return others
}

// FlushCmd deletes everything stored.
type FlushCmd struct {
	Yes bool `short:"y" help:"Confirm deleting every stored record"`
}

func (c *FlushCmd) Run() error {
	if !c.Yes {
		return fmt.Errorf("flush deletes every stored record and mapping; rerun with --yes to confirm")
	}
	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		result, err := store.Flush(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Deleted %s records and %s mapping groups\n",
			countStyle.Render(fmt.Sprint(result.Media)),
			countStyle.Render(fmt.Sprint(result.Mappings)),
		)
		return nil
	})
}

// RunsCmd shows the import run log.
type RunsCmd struct {
	Limit int `short:"l" default:"10" help:"Number of runs to show"`
}

func (c *RunsCmd) Run() error {
	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		runs, err := store.Runs(ctx, c.Limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, mutedStyle.Render("no import runs recorded"))
			return nil
		}

		rows := make([][]string, 0, len(runs))
		for _, r := range runs {
			rows = append(rows, []string{
				runStarted(r),
				r.Provider,
				r.Mode,
				r.Status,
				fmt.Sprint(r.Attempted),
				fmt.Sprint(r.Added),
				truncate(r.Error, 50),
			})
		}
		fmt.Fprint(stdout, renderTable([]string{"STARTED", "PROVIDER", "MODE", "STATUS", "ATTEMPTED", "ADDED", "ERROR"}, rows))
		return nil
	})
}

func runStarted(r datastore.Run) string {
	started, err := r.Started()
	if err != nil {
		return r.StartedAt
	}
	return started.Local().Format(time.DateTime)
}
