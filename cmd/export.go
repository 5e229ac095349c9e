package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/lepinkainen/naoka/internal/datastore"
)

// ExportCmd groups the export targets.
type ExportCmd struct {
	Datasette ExportDatasetteCmd `cmd:"" help:"Copy stored records to a Datasette instance"`
}

// ExportDatasetteCmd copies the media table to Datasette through its write
// API.
type ExportDatasetteCmd struct {
	URL       string `help:"Datasette base URL (default from config: datasette.url)"`
	Database  string `help:"Datasette database name (default from config: datasette.database)"`
	BatchSize int    `default:"100" help:"Rows per request"`
}

func (c *ExportDatasetteCmd) Run() error {
	return withStore(func(ctx context.Context, cfg config.Config, store *datastore.SQLiteStore) error {
		baseURL := c.URL
		if baseURL == "" {
			baseURL = cfg.Datasette.URL
		}
		database := c.Database
		if database == "" {
			database = cfg.Datasette.Database
		}

		client, err := datastore.NewDatasetteClient(baseURL, cfg.Datasette.APIToken)
		if err != nil {
			return err
		}

		sent, err := store.ExportMedia(ctx, client, database, c.BatchSize)
		if err != nil {
			return fmt.Errorf("export stopped after %d rows: %w", sent, err)
		}
		fmt.Fprintf(stdout, "Exported %s records to %s/%s\n", countStyle.Render(fmt.Sprint(sent)), baseURL, database)
		return nil
	})
}
