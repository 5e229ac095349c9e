package importer

import (
	"log/slog"

	"github.com/lepinkainen/naoka/internal/datastore"
	"github.com/lepinkainen/naoka/internal/media"
)

// Progress describes one record accepted into a batch. Seen counts the
// records of Type accepted so far, offset included.
type Progress struct {
	Provider string
	Type     media.Type
	Seen     int
	Key      media.Key
	Title    string
}

// Commit describes one committed batch.
type Commit struct {
	Provider string
	Type     media.Type
	Result   datastore.InsertResult
	Final    bool
}

// Reporter receives progress as a run goes. Calls happen on the run's
// goroutine.
type Reporter interface {
	Record(p Progress)
	Committed(c Commit)
}

type logReporter struct {
	logger *slog.Logger
}

func (r logReporter) Record(p Progress) {
	r.logger.Debug("Record", "provider", p.Provider, "type", p.Type, "n", p.Seen, "key", p.Key, "title", p.Title)
}

func (r logReporter) Committed(c Commit) {
	r.logger.Info("Committed batch",
		"provider", c.Provider,
		"type", c.Type,
		"attempted", c.Result.Attempted,
		"added", c.Result.Added,
		"skipped", c.Result.Skipped(),
		"final", c.Final,
	)
}
