package cache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/viper"
)

// InvalidateCacheCmd drops the cached pages of one provider.
type InvalidateCacheCmd struct {
	Provider string `arg:"" help:"Provider whose cached pages to drop: myanimelist, anilist" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	provider := strings.ToLower(strings.TrimSpace(i.Provider))
	if err := ValidateProvider(provider); err != nil {
		return err
	}

	slog.Info("Invalidating cache", "provider", provider, "database", viper.GetString("cache.dbfile"))

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	rowsDeleted, err := cacheInstance.Invalidate(provider)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "provider", provider, "rows_deleted", rowsDeleted)
	return nil
}

// PruneCacheCmd drops pages older than the configured TTL.
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run() error {
	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	ttl := TTL()
	rowsDeleted, err := cacheInstance.Prune(ttl)
	if err != nil {
		return fmt.Errorf("failed to prune cache: %w", err)
	}
	slog.Info("Cache pruned", "ttl", ttl, "rows_deleted", rowsDeleted)
	return nil
}

// StatsCacheCmd prints the number of cached pages per provider.
type StatsCacheCmd struct {
	out io.Writer
}

func (s *StatsCacheCmd) Run() error {
	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	stats, err := cacheInstance.Stats()
	if err != nil {
		return err
	}

	out := s.out
	if out == nil {
		out = os.Stdout
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PROVIDER\tPAGES\tBYTES\tOLDEST")
	for _, st := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", st.Provider, st.Pages, st.Bytes, st.OldestAt().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
