// Package config reads the naoka configuration from viper.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider holds the connection settings for one remote catalog.
type Provider struct {
	BaseURL           string
	RequestsPerSecond float64
	PerPage           int
}

// Cache holds the page cache settings.
type Cache struct {
	Enabled bool
	DBFile  string
	TTL     time.Duration
}

// Datasette holds the remote export settings.
type Datasette struct {
	URL      string
	APIToken string
	Database string
}

// Config is the resolved configuration for one process.
type Config struct {
	DatabaseFile   string
	CommitEvery    int
	StopOnConflict bool
	ScheduleCron   string
	MyAnimeList    Provider
	AniList        Provider
	Cache          Cache
	Datasette      Datasette
}

// SetDefaults registers the default value of every key.
func SetDefaults() {
	viper.SetDefault("database.file", "./naoka.db")

	viper.SetDefault("import.commit_every", 25)
	viper.SetDefault("import.stop_on_conflict", false)

	viper.SetDefault("schedule.cron", "0 */6 * * *")

	viper.SetDefault("providers.myanimelist.base_url", "https://api.jikan.moe/v4")
	viper.SetDefault("providers.myanimelist.requests_per_second", 1.0)
	viper.SetDefault("providers.myanimelist.per_page", 25)

	viper.SetDefault("providers.anilist.base_url", "https://graphql.anilist.co")
	viper.SetDefault("providers.anilist.requests_per_second", 0.5)
	viper.SetDefault("providers.anilist.per_page", 50)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "24h")

	viper.SetDefault("datasette.url", "")
	viper.SetDefault("datasette.database", "naoka")
}

// BindEnv maps the secrets that are usually kept in the environment.
func BindEnv() error {
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	if err := viper.BindEnv("datasette.api_token", "DATASETTE_API_TOKEN"); err != nil {
		return err
	}
	return viper.BindEnv("database.file", "NAOKA_DATABASE")
}

// Load reads the current viper state into a Config.
func Load() Config {
	ttl, err := time.ParseDuration(viper.GetString("cache.ttl"))
	if err != nil {
		ttl = 24 * time.Hour
	}

	return Config{
		DatabaseFile:   viper.GetString("database.file"),
		CommitEvery:    viper.GetInt("import.commit_every"),
		StopOnConflict: viper.GetBool("import.stop_on_conflict"),
		ScheduleCron:   viper.GetString("schedule.cron"),
		MyAnimeList:    loadProvider("myanimelist"),
		AniList:        loadProvider("anilist"),
		Cache: Cache{
			Enabled: viper.GetBool("cache.enabled"),
			DBFile:  viper.GetString("cache.dbfile"),
			TTL:     ttl,
		},
		Datasette: Datasette{
			URL:      viper.GetString("datasette.url"),
			APIToken: viper.GetString("datasette.api_token"),
			Database: viper.GetString("datasette.database"),
		},
	}
}

func loadProvider(name string) Provider {
	prefix := "providers." + name + "."
	return Provider{
		BaseURL:           viper.GetString(prefix + "base_url"),
		RequestsPerSecond: viper.GetFloat64(prefix + "requests_per_second"),
		PerPage:           viper.GetInt(prefix + "per_page"),
	}
}
