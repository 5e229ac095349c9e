// Package datastore persists normalized records, confirmed mapping groups and
// the import run log in SQLite, and can push records to a remote Datasette.
package datastore

import (
	"context"

	"github.com/lepinkainen/naoka/internal/media"
)

// ConflictMode decides what a bulk insert does with an identity key that is
// already stored.
type ConflictMode int

const (
	// ConflictSkip leaves the stored record untouched and drops the new one.
	ConflictSkip ConflictMode = iota
	// ConflictAbort rolls back the whole batch and returns a ConflictError.
	ConflictAbort
	// ConflictReplace overwrites the stored record, keeping its id and
	// creation time.
	ConflictReplace
)

func (m ConflictMode) String() string {
	switch m {
	case ConflictSkip:
		return "skip"
	case ConflictAbort:
		return "abort"
	case ConflictReplace:
		return "replace"
	}
	return "unknown"
}

// InsertResult reports what one bulk insert did.
type InsertResult struct {
	Attempted int
	Added     int
}

// Skipped is the number of records dropped as duplicates.
func (r InsertResult) Skipped() int {
	return r.Attempted - r.Added
}

// FlushResult reports how many rows a flush deleted.
type FlushResult struct {
	Media    int64
	Mappings int64
}

// Store is the persistence boundary of the import pipeline.
type Store interface {
	// BulkInsert writes records in one transaction.
	BulkInsert(ctx context.Context, records []media.Record, mode ConflictMode) (InsertResult, error)

	// CountByPrefix counts stored records whose identity key starts with
	// prefix, ignoring case.
	CountByPrefix(ctx context.Context, prefix string) (int, error)

	// Flush deletes every record and mapping group.
	Flush(ctx context.Context) (FlushResult, error)

	// Close closes the connection to the data store
	Close() error
}
