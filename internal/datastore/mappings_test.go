package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/naoka/internal/mapping"
	"github.com/lepinkainen/naoka/internal/media"
	"github.com/lepinkainen/naoka/internal/provider/providertest"
)

func groupOf(keys ...string) (mapping.Group, error) {
	parsed := make([]media.Key, len(keys))
	for i, k := range keys {
		parsed[i] = media.Key(k)
	}
	return mapping.NewGroup(parsed...)
}

func TestSQLiteStore_SaveGroupIsAdditive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := groupOf("anime:myanimelist:1", "anime:anilist:1")
	require.NoError(t, err)
	saved, err := store.SaveGroup(ctx, first)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)

	second, err := groupOf("anime:anilist:1", "anime:kitsu:1")
	require.NoError(t, err)
	merged, err := store.SaveGroup(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, merged.ID)
	assert.Equal(t, []media.Key{"anime:myanimelist:1", "anime:anilist:1", "anime:kitsu:1"}, merged.Keys)

	groups, err := store.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, merged, groups[0])
}

func TestSQLiteStore_SaveGroupRejectsBridgingTwoGroups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := groupOf("anime:myanimelist:1")
	require.NoError(t, err)
	_, err = store.SaveGroup(ctx, a)
	require.NoError(t, err)
	b, err := groupOf("anime:myanimelist:2")
	require.NoError(t, err)
	_, err = store.SaveGroup(ctx, b)
	require.NoError(t, err)

	bridge, err := groupOf("anime:myanimelist:1", "anime:myanimelist:2")
	require.NoError(t, err)
	_, err = store.SaveGroup(ctx, bridge)
	assert.Error(t, err)

	groups, err := store.Groups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 2)
}

func TestSQLiteStore_SaveGroupIgnoresKeyCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := groupOf("ANIME:MyAnimeList:1", "anime:anilist:1")
	require.NoError(t, err)
	saved, err := store.SaveGroup(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []media.Key{"anime:myanimelist:1", "anime:anilist:1"}, saved.Keys)

	second, err := groupOf("anime:myanimelist:1", "anime:kitsu:9")
	require.NoError(t, err)
	merged, err := store.SaveGroup(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, merged.ID)

	groups, err := store.Groups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)

	group, ok, err := store.GroupFor(ctx, "Anime:ANILIST:1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, saved.ID, group.ID)
}

func TestSQLiteStore_SaveGroupValidatesKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.SaveGroup(ctx, mapping.Group{Keys: []media.Key{"anime:anilist:1", "not-a-key"}})
	assert.ErrorIs(t, err, media.ErrInvalidKey)

	_, err = store.SaveGroup(ctx, mapping.Group{})
	assert.Error(t, err)

	groups, err := store.Groups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestSQLiteStore_ExtendGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	g, err := groupOf("manga:myanimelist:7")
	require.NoError(t, err)
	saved, err := store.SaveGroup(ctx, g)
	require.NoError(t, err)

	extended, err := store.ExtendGroup(ctx, saved.ID, "manga:anilist:30007")
	require.NoError(t, err)
	assert.Equal(t, []media.Key{"manga:myanimelist:7", "manga:anilist:30007"}, extended.Keys)

	_, err = store.ExtendGroup(ctx, saved.ID, "not-a-key")
	assert.ErrorIs(t, err, media.ErrInvalidKey)

	_, err = store.ExtendGroup(ctx, saved.ID+100, "manga:anilist:1")
	assert.Error(t, err)
}

func TestSQLiteStore_ResolveGroup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.BulkInsert(ctx, providertest.Records("myanimelist", media.Anime, 2), ConflictSkip)
	require.NoError(t, err)
	_, err = store.BulkInsert(ctx, providertest.Records("anilist", media.Anime, 1), ConflictSkip)
	require.NoError(t, err)

	g, err := groupOf("anime:myanimelist:1", "anime:anilist:1", "anime:kitsu:99")
	require.NoError(t, err)
	_, err = store.SaveGroup(ctx, g)
	require.NoError(t, err)

	records, err := store.ResolveGroup(ctx, "anime:anilist:1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, media.Key("anime:myanimelist:1"), records[0].Key)
	assert.Equal(t, media.Key("anime:anilist:1"), records[1].Key)

	records, err = store.ResolveGroup(ctx, "anime:myanimelist:2")
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = store.Resolve(ctx, []media.Key{"anime:kitsu:99"})
	require.NoError(t, err)
	assert.Empty(t, records)
}
