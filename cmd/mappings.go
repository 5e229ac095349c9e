package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/lepinkainen/naoka/internal/datastore"
	"github.com/lepinkainen/naoka/internal/mapping"
	"github.com/lepinkainen/naoka/internal/media"
)

// MappingsCmd manages confirmed cross-provider mapping groups.
type MappingsCmd struct {
	Add     MappingsAddCmd     `cmd:"" help:"Confirm that identity keys refer to the same title"`
	Extend  MappingsExtendCmd  `cmd:"" help:"Add identity keys to a stored group"`
	Load    MappingsLoadCmd    `cmd:"" help:"Load confirmed groups from a YAML file"`
	Resolve MappingsResolveCmd `cmd:"" help:"Show the stored records grouped with an identity key"`
	List    MappingsListCmd    `cmd:"" help:"List stored mapping groups"`
}

// MappingsAddCmd saves one group given on the command line.
type MappingsAddCmd struct {
	Keys []string `arg:"" help:"Identity keys, e.g. anime:myanimelist:1 anime:anilist:1"`
}

func (c *MappingsAddCmd) Run() error {
	keys := make([]media.Key, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = media.Key(k)
	}
	group, err := mapping.NewGroup(keys...)
	if err != nil {
		return err
	}

	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		saved, err := store.SaveGroup(ctx, group)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "group %d: %s\n", saved.ID, joinKeys(saved.Keys))
		return nil
	})
}

// MappingsExtendCmd adds keys to an existing group by id.
type MappingsExtendCmd struct {
	Group int64    `arg:"" help:"Group id, see 'naoka mappings list'"`
	Keys  []string `arg:"" help:"Identity keys to add"`
}

func (c *MappingsExtendCmd) Run() error {
	keys := make([]media.Key, len(c.Keys))
	for i, k := range c.Keys {
		keys[i] = media.Key(k)
	}

	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		extended, err := store.ExtendGroup(ctx, c.Group, keys...)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "group %d: %s\n", extended.ID, joinKeys(extended.Keys))
		return nil
	})
}

// MappingsLoadCmd saves every group of a mapping file.
type MappingsLoadCmd struct {
	File string `arg:"" type:"existingfile" help:"YAML mapping file"`
}

func (c *MappingsLoadCmd) Run() error {
	groups, err := mapping.LoadFile(c.File)
	if err != nil {
		return err
	}

	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		for _, group := range groups {
			if _, err := store.SaveGroup(ctx, group); err != nil {
				return fmt.Errorf("failed to save group %s: %w", joinKeys(group.Keys), err)
			}
		}
		fmt.Fprintf(stdout, "Loaded %s mapping groups from %s\n", countStyle.Render(fmt.Sprint(len(groups))), c.File)
		return nil
	})
}

// MappingsResolveCmd prints the records that share a group with a key.
type MappingsResolveCmd struct {
	Key string `arg:"" help:"Identity key to resolve"`
}

func (c *MappingsResolveCmd) Run() error {
	key, err := media.ParseKey(c.Key)
	if err != nil {
		return err
	}

	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		records, err := store.ResolveGroup(ctx, key)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(stdout, "%s %s\n", mutedStyle.Render("nothing stored for"), key)
			return nil
		}

		now := timeNow()
		rows := make([][]string, 0, len(records))
		for _, r := range records {
			rows = append(rows, []string{
				string(r.Key),
				truncate(r.Titles.Preferred(), 50),
				string(r.Format),
				string(r.EffectiveStatus(now)),
			})
		}
		fmt.Fprint(stdout, renderTable([]string{"KEY", "TITLE", "FORMAT", "STATUS"}, rows))
		return nil
	})
}

// MappingsListCmd prints every stored group.
type MappingsListCmd struct{}

func (c *MappingsListCmd) Run() error {
	return withStore(func(ctx context.Context, _ config.Config, store *datastore.SQLiteStore) error {
		groups, err := store.Groups(ctx)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Fprintln(stdout, mutedStyle.Render("no mapping groups stored"))
			return nil
		}

		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{fmt.Sprint(g.ID), joinKeys(g.Keys)})
		}
		fmt.Fprint(stdout, renderTable([]string{"GROUP", "KEYS"}, rows))
		return nil
	})
}

func joinKeys(keys []media.Key) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}
