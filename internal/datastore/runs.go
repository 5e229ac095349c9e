package datastore

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
)

// runTimeLayout is fixed width so started_at sorts as text.
const runTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run status values stored in the import run log.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Run is one entry of the import run log.
type Run struct {
	ID         string         `db:"id"`
	Provider   string         `db:"provider"`
	Mode       string         `db:"mode"`
	Status     string         `db:"status"`
	Attempted  int            `db:"attempted"`
	Added      int            `db:"added"`
	Skipped    int            `db:"skipped"`
	Error      string         `db:"error"`
	StartedAt  string         `db:"started_at"`
	FinishedAt sql.NullString `db:"finished_at"`
}

// Started parses the run's start time.
func (r Run) Started() (time.Time, error) {
	return time.Parse(runTimeLayout, r.StartedAt)
}

// StartRun records a new running import and returns its id.
func (s *SQLiteStore) StartRun(ctx context.Context, provider, mode string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Provider:  provider,
		Mode:      mode,
		Status:    RunRunning,
		StartedAt: s.now().UTC().Format(runTimeLayout),
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto(runsTable)
	ib.Cols("id", "provider", "mode", "status", "started_at")
	ib.Values(run.ID, run.Provider, run.Mode, run.Status, run.StartedAt)
	query, args := ib.Build()

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return Run{}, fmt.Errorf("failed to record import run: %w", err)
	}
	return run, nil
}

// FinishRun stores the outcome of a run. A non-nil runErr marks it failed.
func (s *SQLiteStore) FinishRun(ctx context.Context, id string, attempted, added int, runErr error) error {
	status := RunDone
	message := ""
	if runErr != nil {
		status = RunFailed
		message = runErr.Error()
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update(runsTable)
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("attempted", attempted),
		ub.Assign("added", added),
		ub.Assign("skipped", attempted-added),
		ub.Assign("error", message),
		ub.Assign("finished_at", s.now().UTC().Format(runTimeLayout)),
	)
	ub.Where(ub.Equal("id", id))
	query, args := ub.Build()

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update import run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("import run %s not found", id)
	}
	return nil
}

// LastSuccessfulRun returns the most recent finished run for provider.
func (s *SQLiteStore) LastSuccessfulRun(ctx context.Context, provider string) (Run, bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From(runsTable)
	sb.Where(
		sb.Equal("provider", provider),
		sb.Equal("status", RunDone),
	)
	sb.OrderBy("started_at").Desc()
	sb.Limit(1)
	query, args := sb.Build()

	var run Run
	if err := s.db.GetContext(ctx, &run, query, args...); err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, fmt.Errorf("failed to query import runs: %w", err)
	}
	return run, true, nil
}

// Runs returns the latest import runs, newest first.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]Run, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From(runsTable)
	sb.OrderBy("started_at").Desc()
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.Build()

	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query import runs: %w", err)
	}
	return runs, nil
}
