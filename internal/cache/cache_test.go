package cache

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/lepinkainen/naoka/internal/testutil"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPage struct {
	Page    int      `json:"page"`
	Entries []string `json:"entries"`
}

func setupTestCache(t *testing.T) *CacheDB {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	env := testutil.NewTestEnv(t)
	cache, err := NewCacheDB(env.DBPath("cache"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })

	viper.Set("cache.ttl", "1h")
	return cache
}

func withGlobalCache(t *testing.T, cache *CacheDB) {
	t.Helper()

	oldCache := globalCache
	globalCache = cache
	globalCacheOnce = sync.Once{}
	globalCacheOnce.Do(func() {})

	t.Cleanup(func() {
		globalCache = oldCache
		globalCacheOnce = sync.Once{}
	})
}

// setClock pins the cache clock to now and returns a way to move it.
func setClock(cache *CacheDB, now time.Time) func(time.Duration) {
	cache.now = func() time.Time { return now }
	return func(d time.Duration) {
		now = now.Add(d)
	}
}

func TestGetOrFetch_MissThenHit(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	calls := 0
	fetch := func() (testPage, error) {
		calls++
		return testPage{Page: 3, Entries: []string{"a", "b"}}, nil
	}

	page, fromCache, err := GetOrFetch("myanimelist", "anime:3", fetch)
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 3, page.Page)

	page, fromCache, err = GetOrFetch("myanimelist", "anime:3", fetch)
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, []string{"a", "b"}, page.Entries)
	assert.Equal(t, 1, calls)
}

func TestGetOrFetch_ErrorsAreNotCached(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	boom := errors.New("remote down")
	_, _, err := GetOrFetch("anilist", "manga:1", func() (testPage, error) {
		return testPage{}, boom
	})
	require.ErrorIs(t, err, boom)

	_, found, err := cache.Get("anilist", "manga:1", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetOrFetch_CorruptPageIsRefetched(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	var logs bytes.Buffer
	oldLogger := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(oldLogger) })

	require.NoError(t, cache.Set("anilist", "anime:1", "{not json"))

	page, fromCache, err := GetOrFetch("anilist", "anime:1", func() (testPage, error) {
		return testPage{Page: 1}, nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, page.Page)
	assert.Contains(t, logs.String(), "Failed to unmarshal cached page")
	assert.Contains(t, logs.String(), "invalid character")

	data, found, err := cache.Get("anilist", "anime:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"page":1,"entries":null}`, data)
}

func TestGetOrFetch_UnknownProviderStillFetches(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)

	page, fromCache, err := GetOrFetch("kitsu", "anime:1", func() (testPage, error) {
		return testPage{Page: 1}, nil
	})
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, 1, page.Page)
}

func TestGet_Expired(t *testing.T) {
	cache := setupTestCache(t)
	advance := setClock(cache, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, cache.Set("anilist", "k", `{"page":1}`))

	advance(59 * time.Minute)
	_, found, err := cache.Get("anilist", "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, found)

	advance(2 * time.Minute)
	_, found, err = cache.Get("anilist", "k", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSet_ReplacesPage(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("anilist", "k", `{"page":1}`))
	require.NoError(t, cache.Set("anilist", "k", `{"page":2}`))

	data, found, err := cache.Get("anilist", "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"page":2}`, data)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)

	require.NoError(t, cache.Set("myanimelist", "anime:1", "{}"))
	require.NoError(t, cache.Set("myanimelist", "anime:2", "{}"))
	require.NoError(t, cache.Set("anilist", "anime:1", "{}"))

	deleted, err := cache.Invalidate("myanimelist")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	_, found, err := cache.Get("anilist", "anime:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestPrune(t *testing.T) {
	cache := setupTestCache(t)
	advance := setClock(cache, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, cache.Set("myanimelist", "old", "{}"))
	advance(3 * time.Hour)
	require.NoError(t, cache.Set("anilist", "fresh", "{}"))

	deleted, err := cache.Prune(2 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	stats, err := cache.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "anilist", stats[0].Provider)
}

func TestStats(t *testing.T) {
	cache := setupTestCache(t)
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	advance := setClock(cache, start)

	require.NoError(t, cache.Set("myanimelist", "a", "1234"))
	advance(time.Minute)
	require.NoError(t, cache.Set("myanimelist", "b", "56"))
	require.NoError(t, cache.Set("anilist", "a", "{}"))

	stats, err := cache.Stats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, ProviderStats{Provider: "anilist", Pages: 1, Bytes: 2, Oldest: start.Add(time.Minute).Unix()}, stats[0])
	assert.Equal(t, "myanimelist", stats[1].Provider)
	assert.Equal(t, 2, stats[1].Pages)
	assert.Equal(t, int64(6), stats[1].Bytes)
	assert.Equal(t, start, stats[1].OldestAt())
}

func TestUnknownProvider(t *testing.T) {
	cache := setupTestCache(t)

	_, err := cache.Invalidate("media; DROP TABLE media")
	assert.Error(t, err)
	assert.Error(t, cache.Set("tmdb", "k", "{}"))
	_, _, err = cache.Get("tmdb", "k", time.Hour)
	assert.Error(t, err)
}

func TestProviders(t *testing.T) {
	assert.Equal(t, []string{"anilist", "myanimelist"}, Providers())
	assert.NoError(t, ValidateProvider("anilist"))
	assert.ErrorContains(t, ValidateProvider("kitsu"), "anilist, myanimelist")
}

func TestTTL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	assert.Equal(t, DefaultCacheTTL, TTL())

	viper.Set("cache.ttl", "6h")
	assert.Equal(t, 6*time.Hour, TTL())

	viper.Set("cache.ttl", "soon")
	assert.Equal(t, DefaultCacheTTL, TTL())
}

func TestInvalidateCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)
	require.NoError(t, cache.Set("anilist", "anime:1", "{}"))

	require.NoError(t, (&InvalidateCacheCmd{Provider: " AniList "}).Run())

	_, found, err := cache.Get("anilist", "anime:1", time.Hour)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidateCacheCmd_UnknownProvider(t *testing.T) {
	cmd := &InvalidateCacheCmd{Provider: "kitsu"}
	err := cmd.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anilist, myanimelist")
}

func TestPruneCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)
	advance := setClock(cache, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	require.NoError(t, cache.Set("anilist", "old", "{}"))
	advance(2 * time.Hour)

	require.NoError(t, (&PruneCacheCmd{}).Run())

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestStatsCacheCmd(t *testing.T) {
	cache := setupTestCache(t)
	withGlobalCache(t, cache)
	require.NoError(t, cache.Set("myanimelist", "anime:1", "{}"))

	var out bytes.Buffer
	require.NoError(t, (&StatsCacheCmd{out: &out}).Run())

	assert.Contains(t, out.String(), "PROVIDER")
	assert.Contains(t, out.String(), "myanimelist")
}
