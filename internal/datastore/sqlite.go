package datastore

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lepinkainen/naoka/internal/errors"
	"github.com/lepinkainen/naoka/internal/media"
)

// maxRowsPerStatement keeps multi-row inserts under SQLite's bound variable
// limit.
const maxRowsPerStatement = 500

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sqlx.DB
	dbPath string
	now    func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
		now:    time.Now,
	}
}

// Connect opens the database and creates missing tables.
func (s *SQLiteStore) Connect() error {
	db, err := sqlx.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return stdErrors.Join(fmt.Errorf("failed to connect to database %s: %w", s.dbPath, err), db.Close())
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return stdErrors.Join(fmt.Errorf("failed to enable foreign keys: %w", err), db.Close())
	}
	for _, schema := range AllSchemas {
		if _, err := db.Exec(schema); err != nil {
			return stdErrors.Join(fmt.Errorf("failed to create table: %w", err), db.Close())
		}
	}

	s.db = db
	return nil
}

// Path returns the database file the store was created with.
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// BulkInsert writes records in one transaction according to mode.
func (s *SQLiteStore) BulkInsert(ctx context.Context, records []media.Record, mode ConflictMode) (InsertResult, error) {
	result := InsertResult{Attempted: len(records)}
	if len(records) == 0 {
		return result, nil
	}

	now := s.now()
	rows := make([]mediaRow, 0, len(records))
	for _, r := range records {
		row, err := newMediaRow(r, now)
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to prepare %s: %w", r.Key, err)
		}
		rows = append(rows, row)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return InsertResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is a no-op
		_ = tx.Rollback()
	}()

	var added int64
	for start := 0; start < len(rows); start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, len(rows))
		query, args := insertStatement(rows[start:end], mode)

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			if mode == ConflictAbort && isUniqueViolation(err) {
				_ = tx.Rollback()
				key := s.conflictingKey(ctx, rows)
				return InsertResult{Attempted: len(records)}, errors.NewConflictError(key, err)
			}
			return InsertResult{}, fmt.Errorf("failed to insert records: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return InsertResult{}, fmt.Errorf("failed to count inserted records: %w", err)
		}
		added += n
	}

	if err := tx.Commit(); err != nil {
		return InsertResult{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result.Added = int(added)
	slog.Debug("Bulk insert committed", "mode", mode, "attempted", result.Attempted, "added", result.Added)
	return result, nil
}

func insertStatement(rows []mediaRow, mode ConflictMode) (string, []any) {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	if mode == ConflictSkip {
		ib.InsertIgnoreInto(mediaTable)
	} else {
		ib.InsertInto(mediaTable)
	}
	ib.Cols(mediaColumns...)
	for _, row := range rows {
		ib.Values(row.values()...)
	}

	query, args := ib.Build()
	if mode == ConflictReplace {
		assignments := make([]string, len(mediaColumnsReplaced))
		for i, col := range mediaColumnsReplaced {
			assignments[i] = col + " = excluded." + col
		}
		query += " ON CONFLICT(mapping) DO UPDATE SET " + strings.Join(assignments, ", ")
	}
	return query, args
}

// conflictingKey finds the first key of the batch that is already stored or
// repeated inside the batch.
func (s *SQLiteStore) conflictingKey(ctx context.Context, rows []mediaRow) string {
	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Mapping)
	}

	stored, err := s.existingKeys(ctx, keys)
	if err != nil {
		slog.Warn("Failed to look up conflicting key", "error", err)
	}

	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if stored[key] || seen[key] {
			return key
		}
		seen[key] = true
	}
	return ""
}

func (s *SQLiteStore) existingKeys(ctx context.Context, keys []string) (map[string]bool, error) {
	found := make(map[string]bool)
	for start := 0; start < len(keys); start += maxRowsPerStatement {
		end := min(start+maxRowsPerStatement, len(keys))

		sb := sqlbuilder.SQLite.NewSelectBuilder()
		sb.Select("mapping").From(mediaTable)
		sb.Where(sb.In("mapping", sqlbuilder.Flatten(keys[start:end])...))
		query, args := sb.Build()

		var stored []string
		if err := s.db.SelectContext(ctx, &stored, query, args...); err != nil {
			return nil, fmt.Errorf("failed to query existing keys: %w", err)
		}
		for _, key := range stored {
			found[key] = true
		}
	}
	return found, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if stdErrors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CountByPrefix counts stored records whose identity key starts with prefix.
// SQLite LIKE ignores ASCII case.
func (s *SQLiteStore) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("COUNT(*)").From(mediaTable)
	sb.Where("mapping LIKE " + sb.Var(likePrefix(prefix)) + ` ESCAPE '\'`)
	query, args := sb.Build()

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count records with prefix %q: %w", prefix, err)
	}
	return count, nil
}

func likePrefix(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}

// ProviderCount is the number of stored records for one provider and media
// type.
type ProviderCount struct {
	Type     string `db:"type"`
	Provider string `db:"provider"`
	Count    int    `db:"count"`
}

// CountByProvider groups stored records by provider code and media type.
func (s *SQLiteStore) CountByProvider(ctx context.Context) ([]ProviderCount, error) {
	const providerExpr = "lower(substr(mapping, length(type) + 2, instr(substr(mapping, length(type) + 2), ':') - 1))"

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(
		sb.As("lower(type)", "type"),
		sb.As(providerExpr, "provider"),
		sb.As("COUNT(*)", "count"),
	)
	sb.From(mediaTable)
	sb.GroupBy("provider", "type")
	sb.OrderBy("provider", "type")
	query, args := sb.Build()

	var counts []ProviderCount
	if err := s.db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to count records by provider: %w", err)
	}
	return counts, nil
}

// Get returns the stored record for key.
func (s *SQLiteStore) Get(ctx context.Context, key media.Key) (media.Record, bool, error) {
	records, err := s.Resolve(ctx, []media.Key{key})
	if err != nil {
		return media.Record{}, false, err
	}
	if len(records) == 0 {
		return media.Record{}, false, nil
	}
	return records[0], true, nil
}

// Resolve returns the stored records whose identity key is in keys, ordered
// by insertion. Keys without a stored record are ignored.
func (s *SQLiteStore) Resolve(ctx context.Context, keys []media.Key) ([]media.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From(mediaTable)
	sb.Where(sb.In("mapping", sqlbuilder.Flatten(keys)...))
	sb.OrderBy("id")
	return s.selectRecords(ctx, sb)
}

// ListOptions filters List.
type ListOptions struct {
	Type   media.Type
	Limit  int
	Offset int
}

// List returns stored records in insertion order.
func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]media.Record, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From(mediaTable)
	if opts.Type != "" {
		sb.Where(sb.Equal("type", string(opts.Type)))
	}
	sb.OrderBy("id")
	if opts.Limit > 0 {
		sb.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		sb.Offset(opts.Offset)
	}
	return s.selectRecords(ctx, sb)
}

func (s *SQLiteStore) selectRows(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]mediaRow, error) {
	query, args := sb.Build()
	var rows []mediaRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return rows, nil
}

func (s *SQLiteStore) selectRecords(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]media.Record, error) {
	rows, err := s.selectRows(ctx, sb)
	if err != nil {
		return nil, err
	}

	records := make([]media.Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("failed to decode stored record: %w", err)
		}
		records = append(records, r)
	}
	return records, nil
}

// Flush deletes every record and mapping group. The run log is kept.
func (s *SQLiteStore) Flush(ctx context.Context) (FlushResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return FlushResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var result FlushResult
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+mappingKeysTable); err != nil {
		return FlushResult{}, fmt.Errorf("failed to delete mapping keys: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM "+mappingGroupsTable)
	if err != nil {
		return FlushResult{}, fmt.Errorf("failed to delete mapping groups: %w", err)
	}
	if result.Mappings, err = res.RowsAffected(); err != nil {
		return FlushResult{}, err
	}
	res, err = tx.ExecContext(ctx, "DELETE FROM "+mediaTable)
	if err != nil {
		return FlushResult{}, fmt.Errorf("failed to delete media: %w", err)
	}
	if result.Media, err = res.RowsAffected(); err != nil {
		return FlushResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return FlushResult{}, fmt.Errorf("failed to commit flush: %w", err)
	}
	slog.Info("Flushed data store", "media", result.Media, "mapping_groups", result.Mappings)
	return result, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// inTx runs fn in a transaction and commits when it returns nil.
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
