// Package importer drives a provider connector into the data store: it
// batches records, commits them at a fixed threshold, resumes interrupted
// runs and flushes built work when a run fails.
package importer

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/lepinkainen/naoka/internal/datastore"
	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/mapping"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/provider"
)

// DefaultCommitEvery is the batch size used when Options.CommitEvery is zero.
const DefaultCommitEvery = 25

// maxBatchPrealloc caps the batch buffer allocated up front. Larger batches
// grow on demand.
const maxBatchPrealloc = 1000

// Mode names stored in the run log.
const (
	ModeInit   = "init"
	ModeUpdate = "update"
)

// Store is the storage the importer writes to.
type Store interface {
	BulkInsert(ctx context.Context, records []media.Record, mode datastore.ConflictMode) (datastore.InsertResult, error)
	CountByPrefix(ctx context.Context, prefix string) (int, error)
}

// MappingStore saves mapping groups confirmed by a provider's own
// cross-references.
type MappingStore interface {
	SaveGroup(ctx context.Context, group mapping.Group) (mapping.Group, error)
}

// RunLog records import runs and supplies the start of the last successful
// one to incremental updates.
type RunLog interface {
	StartRun(ctx context.Context, provider, mode string) (datastore.Run, error)
	FinishRun(ctx context.Context, id string, attempted, added int, runErr error) error
	LastSuccessfulRun(ctx context.Context, provider string) (datastore.Run, bool, error)
}

// Options configures one run.
type Options struct {
	// Provider is the connector code, matched case-insensitively.
	Provider string
	// CommitEvery is the number of records per committed batch.
	CommitEvery int
	// StopOnConflict aborts the run on the first stored identity key instead
	// of skipping it. Update runs overwrite and ignore it.
	StopOnConflict bool
	// Offset skips this many entries of every media type. It wins over
	// Resume.
	Offset int
	// Resume starts each media type after the records already stored for
	// the provider.
	Resume bool
	// LinkMappings saves a mapping group for every record the provider
	// cross-references to another catalog.
	LinkMappings bool
	// Types limits the run to these media types. Empty means every type the
	// connector declares.
	Types []media.Type
}

// TypeResult is the outcome for one media type.
type TypeResult struct {
	Type      media.Type
	Offset    int
	Attempted int
	Added     int
}

// Result is the outcome of a run. It is returned with errors too, so the
// committed count is always known.
type Result struct {
	RunID     string
	Provider  string
	Mode      string
	State     State
	Attempted int
	Added     int
	Linked    int
	Types     []TypeResult
}

// Skipped is the number of records dropped as already stored.
func (r Result) Skipped() int {
	return r.Attempted - r.Added
}

// Importer runs imports from a provider registry into a store.
type Importer struct {
	registry *provider.Registry
	store    Store
	mappings MappingStore
	runs     RunLog
	logger   *slog.Logger
	reporter Reporter
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(im *Importer) {
		im.reporter = r
	}
}

// WithMappingStore enables saving provider cross-references.
func WithMappingStore(m MappingStore) Option {
	return func(im *Importer) {
		im.mappings = m
	}
}

// WithRunLog records every run.
func WithRunLog(runs RunLog) Option {
	return func(im *Importer) {
		im.runs = runs
	}
}

// New creates an Importer.
func New(registry *provider.Registry, store Store, opts ...Option) *Importer {
	im := &Importer{
		registry: registry,
		store:    store,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(im)
	}
	if im.reporter == nil {
		im.reporter = logReporter{logger: im.logger}
	}
	return im
}

// Init imports the provider's full catalog.
func (im *Importer) Init(ctx context.Context, opts Options) (Result, error) {
	r, err := im.prepare(ctx, opts, ModeInit)
	if err != nil {
		r.transition(StateFailed)
		return r.result, err
	}

	mode := datastore.ConflictSkip
	if opts.StopOnConflict {
		mode = datastore.ConflictAbort
	}

	return r.finish(ctx, r.execute(ctx, mode, func(t media.Type) (provider.Sequence, int, error) {
		offset, err := im.startOffset(ctx, r.connector, t, opts)
		if err != nil {
			return nil, 0, err
		}
		return r.connector.Init(t, offset), offset, nil
	}))
}

// Update imports entries the provider changed since the start of the last
// successful run. Stored records are overwritten.
func (im *Importer) Update(ctx context.Context, opts Options) (Result, error) {
	r, err := im.prepare(ctx, opts, ModeUpdate)
	if err != nil {
		r.transition(StateFailed)
		return r.result, err
	}

	since, err := im.lastRunStart(ctx, r.connector.Code())
	if err != nil {
		return r.finish(ctx, err)
	}

	return r.finish(ctx, r.execute(ctx, datastore.ConflictReplace, func(t media.Type) (provider.Sequence, int, error) {
		return r.connector.Update(t, since), 0, nil
	}))
}

func (im *Importer) prepare(ctx context.Context, opts Options, mode string) (*run, error) {
	r := &run{
		im:     im,
		opts:   opts,
		state:  StateIdle,
		result: Result{Provider: opts.Provider, Mode: mode, State: StateIdle},
	}

	if r.opts.CommitEvery == 0 {
		r.opts.CommitEvery = DefaultCommitEvery
	}
	if r.opts.CommitEvery < 0 {
		return r, errors.NewConfigurationError("commit_every", fmt.Sprintf("must be positive, got %d", opts.CommitEvery))
	}
	if r.opts.Offset < 0 {
		return r, errors.NewConfigurationError("offset", fmt.Sprintf("must not be negative, got %d", opts.Offset))
	}
	if r.opts.LinkMappings && im.mappings == nil {
		return r, errors.NewConfigurationError("link_mappings", "no mapping store configured")
	}

	connector, err := im.registry.Resolve(opts.Provider)
	if err != nil {
		return r, err
	}
	r.connector = connector
	r.result.Provider = connector.Code()

	for _, t := range r.opts.Types {
		if !provider.Supports(connector, t) {
			return r, errors.NewConfigurationError("types", fmt.Sprintf("%s does not provide %s", connector.Code(), t))
		}
	}

	if im.runs != nil {
		entry, err := im.runs.StartRun(ctx, connector.Code(), mode)
		if err != nil {
			return r, err
		}
		r.result.RunID = entry.ID
	}

	im.logger.Info("Starting import", "provider", connector.Code(), "mode", mode, "types", r.mediaTypes(), "commit_every", r.opts.CommitEvery)
	return r, nil
}

// startOffset picks the explicit offset, else the stored count when
// resuming, else zero.
func (im *Importer) startOffset(ctx context.Context, connector provider.Connector, t media.Type, opts Options) (int, error) {
	switch {
	case opts.Offset > 0:
		return opts.Offset, nil
	case opts.Resume:
		count, err := im.store.CountByPrefix(ctx, media.KeyPrefix(t, connector.Code()))
		if err != nil {
			return 0, fmt.Errorf("failed to count stored %s records: %w", t, err)
		}
		return count, nil
	}
	return 0, nil
}

func (im *Importer) lastRunStart(ctx context.Context, code string) (time.Time, error) {
	if im.runs == nil {
		im.logger.Warn("No run log configured, updating everything", "provider", code)
		return time.Time{}, nil
	}
	last, ok, err := im.runs.LastSuccessfulRun(ctx, code)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		im.logger.Warn("No successful run recorded, updating everything", "provider", code)
		return time.Time{}, nil
	}
	since, err := last.Started()
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time on run %s: %w", last.ID, err)
	}
	return since, nil
}

// run holds the state of one import. It is never shared between runs.
type run struct {
	im        *Importer
	opts      Options
	connector provider.Connector

	state   State
	mode    datastore.ConflictMode
	current int
	batch   []media.Record
	result  Result
}

// mediaTypes returns the requested types in the connector's declared order.
func (r *run) mediaTypes() []media.Type {
	if len(r.opts.Types) == 0 {
		return r.connector.MediaTypes()
	}
	var types []media.Type
	for _, t := range r.connector.MediaTypes() {
		if slices.Contains(r.opts.Types, t) {
			types = append(types, t)
		}
	}
	return types
}

type sequenceFunc func(t media.Type) (provider.Sequence, int, error)

func (r *run) transition(to State) {
	if !canTransition(r.state, to) {
		panic(fmt.Sprintf("importer: illegal transition %s -> %s", r.state, to))
	}
	if r.state != to {
		r.im.logger.Debug("Import state", "provider", r.result.Provider, "from", r.state, "to", to)
	}
	r.state = to
	r.result.State = to
}

func (r *run) execute(ctx context.Context, mode datastore.ConflictMode, open sequenceFunc) error {
	r.mode = mode
	r.batch = make([]media.Record, 0, min(r.opts.CommitEvery, maxBatchPrealloc))

	for _, t := range r.mediaTypes() {
		r.transition(StateFetching)

		seq, offset, err := open(t)
		if err != nil {
			return r.fail(ctx, err)
		}
		r.result.Types = append(r.result.Types, TypeResult{Type: t, Offset: offset})
		r.current = len(r.result.Types) - 1
		if offset > 0 {
			r.im.logger.Info("Resuming", "provider", r.result.Provider, "type", t, "offset", offset)
		}

		if err := r.consume(ctx, seq, offset); err != nil {
			return err
		}
	}

	r.transition(StateDone)
	return nil
}

// consume drains one media type's sequence, committing at the threshold and
// once more for the trailing partial batch.
func (r *run) consume(ctx context.Context, seq provider.Sequence, offset int) error {
	tr := &r.result.Types[r.current]
	seen := offset

	for {
		record, err := seq.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return r.fail(ctx, err)
		}

		r.transition(StateBuilding)
		if err := media.Validate(record); err != nil {
			return r.fail(ctx, err)
		}
		if record.Type != tr.Type {
			return r.fail(ctx, errors.NewBuildError("type", fmt.Sprintf("got %s record in %s sequence", record.Type, tr.Type)))
		}

		r.transition(StateBatching)
		r.batch = append(r.batch, record)
		seen++
		r.im.reporter.Record(Progress{
			Provider: r.result.Provider,
			Type:     tr.Type,
			Seen:     seen,
			Key:      record.Key,
			Title:    record.Titles.Preferred(),
		})

		if len(r.batch) >= r.opts.CommitEvery {
			if err := r.commit(ctx, false); err != nil {
				return r.abort(err)
			}
		}
		r.transition(StateFetching)
	}

	if len(r.batch) > 0 {
		if err := r.commit(ctx, false); err != nil {
			return r.abort(err)
		}
	}
	return nil
}

func (r *run) commit(ctx context.Context, final bool) error {
	r.transition(StateCommitting)

	res, err := r.im.store.BulkInsert(ctx, r.batch, r.mode)
	if err != nil {
		return err
	}

	tr := &r.result.Types[r.current]
	tr.Attempted += res.Attempted
	tr.Added += res.Added
	r.result.Attempted += res.Attempted
	r.result.Added += res.Added
	r.im.reporter.Committed(Commit{Provider: r.result.Provider, Type: tr.Type, Result: res, Final: final})

	if r.opts.LinkMappings {
		r.link(ctx)
	}

	r.batch = r.batch[:0]
	return nil
}

// link saves a mapping group for every committed record that names related
// keys. Failures are logged; they never undo a commit.
func (r *run) link(ctx context.Context) {
	for _, record := range r.batch {
		if len(record.Related) == 0 {
			continue
		}
		group, err := mapping.NewGroup(append([]media.Key{record.Key}, record.Related...)...)
		if err == nil {
			_, err = r.im.mappings.SaveGroup(ctx, group)
		}
		if err != nil {
			r.im.logger.Warn("Failed to link mapping", "key", record.Key, "related", record.Related, "error", err)
			continue
		}
		r.result.Linked++
	}
}

// abort ends the run after a failed commit. Nothing is left to flush: the
// failed batch was rolled back as a whole.
func (r *run) abort(err error) error {
	r.transition(StateFailed)
	r.batch = r.batch[:0]

	var conflictErr *errors.ConflictError
	if stdErrors.As(err, &conflictErr) {
		conflictErr.Committed = r.result.Added
		return conflictErr
	}
	return fmt.Errorf("commit failed after %d added records: %w", r.result.Added, err)
}

// fail stops taking input and commits what was already built. The flush
// ignores cancellation of ctx so a cancelled run still keeps its work.
func (r *run) fail(ctx context.Context, cause error) error {
	r.transition(StateFailed)
	pending := len(r.batch)

	var flushErr error
	if pending > 0 {
		r.im.logger.Warn("Import failed, flushing built records", "provider", r.result.Provider, "pending", pending, "error", cause)
		flushErr = r.commit(context.WithoutCancel(ctx), true)
		r.state = StateFailed
		r.result.State = StateFailed
	}

	err := fmt.Errorf("import %s stopped after %d added records: %w", r.result.Provider, r.result.Added, cause)
	if flushErr != nil {
		return stdErrors.Join(err, fmt.Errorf("final flush of %d records failed: %w", pending, flushErr))
	}
	return err
}

// finish records the outcome in the run log.
func (r *run) finish(ctx context.Context, err error) (Result, error) {
	if err != nil && r.state != StateFailed {
		r.state = StateFailed
		r.result.State = StateFailed
	}

	if r.im.runs != nil && r.result.RunID != "" {
		if logErr := r.im.runs.FinishRun(context.WithoutCancel(ctx), r.result.RunID, r.result.Attempted, r.result.Added, err); logErr != nil {
			r.im.logger.Warn("Failed to record run outcome", "run", r.result.RunID, "error", logErr)
		}
	}

	if err != nil {
		r.im.logger.Error("Import failed", "provider", r.result.Provider, "added", r.result.Added, "error", err)
		return r.result, err
	}
	r.im.logger.Info("Import finished",
		"provider", r.result.Provider,
		"mode", r.result.Mode,
		"attempted", r.result.Attempted,
		"added", r.result.Added,
		"skipped", r.result.Skipped(),
	)
	return r.result, nil
}
