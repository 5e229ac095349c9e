// Package cache keeps raw provider pages in a local SQLite database so an
// interrupted full import can be re-run without hitting the remote catalog
// for pages it already saw.
package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/viper"
	_ "modernc.org/sqlite"
)

// DefaultCacheTTL is how long a cached page stays fresh without configuration.
const DefaultCacheTTL = 24 * time.Hour

// FetchFunc fetches a page from the remote catalog.
type FetchFunc[T any] func() (T, error)

// CacheDB is a page cache shared by every provider client of a process.
type CacheDB struct {
	db   *sqlx.DB
	mu   sync.RWMutex
	path string
	now  func() time.Time
}

type pageRow struct {
	Data     string `db:"data"`
	CachedAt int64  `db:"cached_at"`
}

// ProviderStats describes the cached pages of one provider.
type ProviderStats struct {
	Provider string `db:"provider"`
	Pages    int    `db:"pages"`
	Bytes    int64  `db:"bytes"`
	Oldest   int64  `db:"oldest"`
}

// OldestAt is the time the oldest page was stored.
func (s ProviderStats) OldestAt() time.Time {
	return time.Unix(s.Oldest, 0).UTC()
}

var (
	globalCache     *CacheDB
	globalCacheOnce sync.Once
)

// ResetGlobalCache closes the shared cache so the next GetGlobalCache opens
// it again.
func ResetGlobalCache() error {
	if globalCache != nil {
		if err := globalCache.Close(); err != nil {
			return err
		}
	}
	globalCache = nil
	globalCacheOnce = sync.Once{}
	return nil
}

// GetGlobalCache opens the cache file named by cache.dbfile once per process.
func GetGlobalCache() (*CacheDB, error) {
	var initErr error
	globalCacheOnce.Do(func() {
		dbPath := viper.GetString("cache.dbfile")
		if dbPath == "" {
			dbPath = "./cache.db"
		}
		globalCache, initErr = NewCacheDB(dbPath)
	})
	if initErr != nil {
		return nil, initErr
	}
	if globalCache == nil {
		return nil, fmt.Errorf("page cache failed to open earlier")
	}
	return globalCache, nil
}

// NewCacheDB opens the cache at dbPath and creates the page table.
func NewCacheDB(dbPath string) (*CacheDB, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), db.Close())
	}
	if _, err := db.Exec(pageSchema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), db.Close())
	}

	return &CacheDB{
		db:   db,
		path: dbPath,
		now:  time.Now,
	}, nil
}

// Path returns the cache database file.
func (c *CacheDB) Path() string {
	return c.path
}

// Close closes the database connection
func (c *CacheDB) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Get returns the page cached for provider under key, and whether it was
// found and younger than ttl.
func (c *CacheDB) Get(provider, key string, ttl time.Duration) (string, bool, error) {
	if err := ValidateProvider(provider); err != nil {
		return "", false, err
	}

	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("data", "cached_at").From(pagesTable)
	sb.Where(sb.Equal("provider", provider), sb.Equal("cache_key", key))
	query, args := sb.Build()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var row pageRow
	err := c.db.Get(&row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query cache: %w", err)
	}

	if age := c.now().Sub(time.Unix(row.CachedAt, 0)); age > ttl {
		slog.Debug("Cache expired", "provider", provider, "key", key, "age", age)
		return "", false, nil
	}
	return row.Data, true, nil
}

// Set stores data for provider under key, replacing an older copy.
func (c *CacheDB) Set(provider, key, data string) error {
	if err := ValidateProvider(provider); err != nil {
		return err
	}

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.ReplaceInto(pagesTable)
	ib.Cols("provider", "cache_key", "data", "cached_at")
	ib.Values(provider, key, data, c.now().Unix())
	query, args := ib.Build()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.Exec(query, args...); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// Invalidate drops every page cached for provider and returns how many were
// deleted.
func (c *CacheDB) Invalidate(provider string) (int64, error) {
	if err := ValidateProvider(provider); err != nil {
		return 0, err
	}

	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom(pagesTable)
	del.Where(del.Equal("provider", provider))
	return c.delete(del)
}

// Prune drops pages of every provider older than ttl.
func (c *CacheDB) Prune(ttl time.Duration) (int64, error) {
	del := sqlbuilder.SQLite.NewDeleteBuilder()
	del.DeleteFrom(pagesTable)
	del.Where(del.LessThan("cached_at", c.now().Add(-ttl).Unix()))
	return c.delete(del)
}

func (c *CacheDB) delete(del *sqlbuilder.DeleteBuilder) (int64, error) {
	query, args := del.Build()

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	slog.Debug("Cache entries deleted", "rows", rows)
	return rows, nil
}

// Stats summarizes the cached pages per provider.
func (c *CacheDB) Stats() ([]ProviderStats, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select(
		"provider",
		sb.As("COUNT(*)", "pages"),
		sb.As("SUM(length(data))", "bytes"),
		sb.As("MIN(cached_at)", "oldest"),
	)
	sb.From(pagesTable)
	sb.GroupBy("provider")
	sb.OrderBy("provider")
	query, args := sb.Build()

	c.mu.RLock()
	defer c.mu.RUnlock()

	var stats []ProviderStats
	if err := c.db.Select(&stats, query, args...); err != nil {
		return nil, fmt.Errorf("failed to summarize cache: %w", err)
	}
	return stats, nil
}

// TTL returns the configured page lifetime.
func TTL() time.Duration {
	ttlStr := viper.GetString("cache.ttl")
	if ttlStr == "" {
		return DefaultCacheTTL
	}
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		slog.Warn("Invalid cache TTL, using default", "ttl", ttlStr, "error", err)
		return DefaultCacheTTL
	}
	return ttl
}

// GetOrFetch returns the page cached for provider under cacheKey, or calls
// fetchFunc and stores its result. The bool reports a cache hit. Cache
// failures never fail the fetch.
func GetOrFetch[T any](provider, cacheKey string, fetchFunc FetchFunc[T]) (T, bool, error) {
	var zero T

	cache, err := GetGlobalCache()
	if err != nil {
		slog.Warn("Failed to open page cache, fetching directly", "error", err)
		data, fetchErr := fetchFunc()
		return data, false, fetchErr
	}

	cached, fromCache, err := cache.Get(provider, cacheKey, TTL())
	if err != nil {
		slog.Warn("Failed to read page cache", "provider", provider, "key", cacheKey, "error", err)
	}
	if fromCache {
		var result T
		unmarshalErr := json.Unmarshal([]byte(cached), &result)
		if unmarshalErr == nil {
			return result, true, nil
		}
		slog.Warn("Failed to unmarshal cached page, will refetch", "provider", provider, "key", cacheKey, "error", unmarshalErr)
	}

	data, err := fetchFunc()
	if err != nil {
		return zero, false, err
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		slog.Warn("Failed to marshal page for caching", "provider", provider, "key", cacheKey, "error", err)
		return data, false, nil
	}
	if err := cache.Set(provider, cacheKey, string(jsonData)); err != nil {
		slog.Warn("Failed to cache page", "provider", provider, "key", cacheKey, "error", err)
	}
	return data, false, nil
}
