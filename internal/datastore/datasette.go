package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/huandu/go-sqlbuilder"

	"github.com/lepinkainen/naoka/internal/errors"
)

// DefaultExportBatch is the number of rows sent per Datasette insert request.
const DefaultExportBatch = 100

// DatasetteClient pushes rows to a remote Datasette instance through its
// insert API.
type DatasetteClient struct {
	baseURL  *url.URL
	apiToken string
	client   *http.Client
}

// NewDatasetteClient creates a new DatasetteClient instance
func NewDatasetteClient(baseURL, apiToken string) (*DatasetteClient, error) {
	if baseURL == "" {
		return nil, errors.NewConfigurationError("datasette.url", "is not set")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.NewConfigurationError("datasette.url", fmt.Sprintf("invalid base URL %q", baseURL))
	}
	return &DatasetteClient{
		baseURL:  u,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// BatchInsert sends rows to database/table through the create endpoint, which
// creates the table on first use. Rows with an existing primary key are
// replaced.
func (c *DatasetteClient) BatchInsert(ctx context.Context, database, table, pk string, rows []map[string]any) error {
	if len(rows) == 0 {
		return nil
	}

	u := *c.baseURL
	u.Path = path.Join(u.Path, database, "-/create")

	payload := map[string]any{
		"table":   table,
		"pk":      pk,
		"rows":    rows,
		"replace": true,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewRemoteFetchError("datasette", u.String(), 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.NewRemoteFetchError("datasette", u.String(), resp.StatusCode, fmt.Errorf("%s", bytes.TrimSpace(body)))
	}
	return nil
}

// ExportMedia copies every stored record to database/media on the Datasette
// instance in batches of batchSize rows. It returns the number of rows sent.
func (s *SQLiteStore) ExportMedia(ctx context.Context, client *DatasetteClient, database string, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultExportBatch
	}

	sent := 0
	var lastID int64
	for {
		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select("*").From(mediaTable)
		sb.Where(sb.GreaterThan("id", lastID))
		sb.OrderBy("id")
		sb.Limit(batchSize)

		rows, err := s.selectRows(ctx, sb)
		if err != nil {
			return sent, err
		}
		if len(rows) == 0 {
			return sent, nil
		}

		batch := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			batch = append(batch, rowToMap(row))
		}
		if err := client.BatchInsert(ctx, database, mediaTable, "id", batch); err != nil {
			return sent, fmt.Errorf("failed to export rows after id %d: %w", lastID, err)
		}

		sent += len(rows)
		lastID = rows[len(rows)-1].ID
		slog.Info("Exported batch to Datasette", "rows", len(rows), "total", sent)
	}
}
