package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/lepinkainen/naoka/internal/mapping"
	"github.com/lepinkainen/naoka/internal/media"
)

type mappingKeyRow struct {
	GroupID int64  `db:"group_id"`
	Mapping string `db:"mapping"`
}

// SaveGroup stores a confirmed mapping group. When any of its keys already
// belongs to a stored group, the keys are added to that group instead and
// the merged group is returned. Keys in two different stored groups are an
// error; groups are never merged.
func (s *SQLiteStore) SaveGroup(ctx context.Context, group mapping.Group) (mapping.Group, error) {
	group, err := mapping.NewGroup(group.Keys...)
	if err != nil {
		return mapping.Group{}, err
	}

	var saved mapping.Group
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		owners, err := groupOwners(ctx, tx, group.Keys)
		if err != nil {
			return err
		}

		var groupID int64
		switch len(owners) {
		case 0:
			groupID, err = s.insertGroup(ctx, tx)
			if err != nil {
				return err
			}
		case 1:
			for id := range owners {
				groupID = id
			}
		default:
			return fmt.Errorf("keys belong to %d different mapping groups", len(owners))
		}

		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertIgnoreInto(mappingKeysTable)
		ib.Cols("group_id", "mapping")
		for _, key := range group.Keys {
			ib.Values(groupID, string(key))
		}
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert mapping keys: %w", err)
		}

		saved, err = loadGroup(ctx, tx, groupID)
		return err
	})
	if err != nil {
		return mapping.Group{}, err
	}

	slog.Debug("Saved mapping group", "id", saved.ID, "keys", len(saved.Keys))
	return saved, nil
}

// ExtendGroup adds keys to the stored group id.
func (s *SQLiteStore) ExtendGroup(ctx context.Context, id int64, keys ...media.Key) (mapping.Group, error) {
	var extended mapping.Group
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := loadGroup(ctx, tx, id)
		if err != nil {
			return err
		}
		extended, err = current.Extend(keys...)
		if err != nil {
			return err
		}

		owners, err := groupOwners(ctx, tx, extended.Keys)
		if err != nil {
			return err
		}
		for owner := range owners {
			if owner != id {
				return fmt.Errorf("key already belongs to mapping group %d", owner)
			}
		}

		ib := sqlbuilder.SQLite.NewInsertBuilder()
		ib.InsertIgnoreInto(mappingKeysTable)
		ib.Cols("group_id", "mapping")
		for _, key := range extended.Keys {
			ib.Values(id, string(key))
		}
		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert mapping keys: %w", err)
		}
		return nil
	})
	if err != nil {
		return mapping.Group{}, err
	}
	return extended, nil
}

// GroupFor returns the stored group containing key.
func (s *SQLiteStore) GroupFor(ctx context.Context, key media.Key) (mapping.Group, bool, error) {
	key, err := media.ParseKey(string(key))
	if err != nil {
		return mapping.Group{}, false, err
	}
	owners, err := groupOwners(ctx, s.db, []media.Key{key})
	if err != nil {
		return mapping.Group{}, false, err
	}
	for id := range owners {
		group, err := loadGroup(ctx, s.db, id)
		return group, err == nil, err
	}
	return mapping.Group{}, false, nil
}

// Groups returns every stored mapping group ordered by id.
func (s *SQLiteStore) Groups(ctx context.Context) ([]mapping.Group, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("group_id", "mapping").From(mappingKeysTable)
	sb.OrderBy("group_id", "rowid")
	query, args := sb.Build()

	var rows []mappingKeyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query mapping groups: %w", err)
	}

	var groups []mapping.Group
	for _, row := range rows {
		if len(groups) == 0 || groups[len(groups)-1].ID != row.GroupID {
			groups = append(groups, mapping.Group{ID: row.GroupID})
		}
		last := &groups[len(groups)-1]
		last.Keys = append(last.Keys, media.Key(row.Mapping))
	}
	return groups, nil
}

// ResolveGroup returns the stored records of every key in the group that
// contains key. A key without a group resolves to its own record.
func (s *SQLiteStore) ResolveGroup(ctx context.Context, key media.Key) ([]media.Record, error) {
	key, err := media.ParseKey(string(key))
	if err != nil {
		return nil, err
	}
	group, ok, err := s.GroupFor(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return s.Resolve(ctx, []media.Key{key})
	}
	return s.Resolve(ctx, group.Keys)
}

func (s *SQLiteStore) insertGroup(ctx context.Context, tx *sqlx.Tx) (int64, error) {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto(mappingGroupsTable)
	ib.Cols("created_at")
	ib.Values(s.now().UTC().Format(time.RFC3339))
	query, args := ib.Build()

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to create mapping group: %w", err)
	}
	return res.LastInsertId()
}

func groupOwners(ctx context.Context, q sqlx.QueryerContext, keys []media.Key) (map[int64]bool, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("group_id", "mapping").From(mappingKeysTable)
	sb.Where(sb.In("mapping", sqlbuilder.Flatten(keys)...))
	query, args := sb.Build()

	var rows []mappingKeyRow
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query mapping keys: %w", err)
	}

	owners := make(map[int64]bool)
	for _, row := range rows {
		owners[row.GroupID] = true
	}
	return owners, nil
}

func loadGroup(ctx context.Context, q sqlx.QueryerContext, id int64) (mapping.Group, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("mapping").From(mappingKeysTable)
	sb.Where(sb.Equal("group_id", id))
	sb.OrderBy("rowid")
	query, args := sb.Build()

	var keys []string
	if err := sqlx.SelectContext(ctx, q, &keys, query, args...); err != nil {
		return mapping.Group{}, fmt.Errorf("failed to load mapping group %d: %w", id, err)
	}
	if len(keys) == 0 {
		return mapping.Group{}, fmt.Errorf("mapping group %d not found", id)
	}

	group := mapping.Group{ID: id}
	for _, key := range keys {
		group.Keys = append(group.Keys, media.Key(key))
	}
	return group, nil
}
