package testutil

import (
	"testing"

	"github.com/lepinkainen/naoka/internal/config"
	"github.com/spf13/viper"
)

// ResetConfig resets viper, installs the default configuration and resets
// viper again when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.SetDefaults()
	t.Cleanup(viper.Reset)
}

// SetTestConfig installs defaults pointing every file at env and disables
// remote side effects such as the page cache.
func SetTestConfig(t *testing.T, env *TestEnv) config.Config {
	t.Helper()

	ResetConfig(t)
	viper.Set("database.file", env.DBPath("naoka"))
	viper.Set("cache.enabled", false)
	viper.Set("cache.dbfile", env.DBPath("cache"))
	return config.Load()
}
