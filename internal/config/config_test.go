package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	cfg := Load()

	assert.Equal(t, "./naoka.db", cfg.DatabaseFile)
	assert.Equal(t, 25, cfg.CommitEvery)
	assert.False(t, cfg.StopOnConflict)
	assert.Equal(t, "https://api.jikan.moe/v4", cfg.MyAnimeList.BaseURL)
	assert.Equal(t, 25, cfg.MyAnimeList.PerPage)
	assert.Equal(t, "https://graphql.anilist.co", cfg.AniList.BaseURL)
	assert.InDelta(t, 0.5, cfg.AniList.RequestsPerSecond, 0.0001)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "naoka", cfg.Datasette.Database)
}

func TestLoad_Overrides(t *testing.T) {
	testCases := []struct {
		name   string
		key    string
		value  any
		verify func(t *testing.T, cfg Config)
	}{
		{
			name:  "commit size",
			key:   "import.commit_every",
			value: 100,
			verify: func(t *testing.T, cfg Config) {
				assert.Equal(t, 100, cfg.CommitEvery)
			},
		},
		{
			name:  "stop on conflict",
			key:   "import.stop_on_conflict",
			value: true,
			verify: func(t *testing.T, cfg Config) {
				assert.True(t, cfg.StopOnConflict)
			},
		},
		{
			name:  "invalid cache ttl falls back",
			key:   "cache.ttl",
			value: "forever",
			verify: func(t *testing.T, cfg Config) {
				assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
			},
		},
		{
			name:  "provider base url",
			key:   "providers.myanimelist.base_url",
			value: "http://localhost:8080/v4",
			verify: func(t *testing.T, cfg Config) {
				assert.Equal(t, "http://localhost:8080/v4", cfg.MyAnimeList.BaseURL)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)

			SetDefaults()
			viper.Set(tc.key, tc.value)
			tc.verify(t, Load())
		})
	}
}

func TestBindEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("DATASETTE_API_TOKEN", "secret")
	t.Setenv("NAOKA_DATABASE", "/tmp/catalog.db")

	SetDefaults()
	assert.NoError(t, BindEnv())

	cfg := Load()
	assert.Equal(t, "secret", cfg.Datasette.APIToken)
	assert.Equal(t, "/tmp/catalog.db", cfg.DatabaseFile)
}
