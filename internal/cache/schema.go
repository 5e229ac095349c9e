package cache

import (
	"fmt"
	"sort"
	"strings"
)

const pagesTable = "pages"

const pageSchema = `
CREATE TABLE IF NOT EXISTS pages (
	provider TEXT NOT NULL,
	cache_key TEXT NOT NULL,
	data TEXT NOT NULL,
	cached_at INTEGER NOT NULL,
	PRIMARY KEY (provider, cache_key)
);

CREATE INDEX IF NOT EXISTS idx_pages_cached_at ON pages(cached_at);
`

// KnownProviders lists the provider codes whose pages may be cached.
var KnownProviders = map[string]bool{
	"myanimelist": true,
	"anilist":     true,
}

// Providers lists the known provider codes, sorted.
func Providers() []string {
	codes := make([]string, 0, len(KnownProviders))
	for code := range KnownProviders {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ValidateProvider rejects codes without a page cache.
func ValidateProvider(provider string) error {
	if !KnownProviders[provider] {
		return fmt.Errorf("no page cache for provider '%s'; valid providers are: %s",
			provider, strings.Join(Providers(), ", "))
	}
	return nil
}
