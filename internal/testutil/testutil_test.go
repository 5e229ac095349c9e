package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestEnv_Path(t *testing.T) {
	env := NewTestEnv(t)

	path := env.Path("nested", "file.txt")
	assert.Equal(t, filepath.Join(env.RootDir(), "nested", "file.txt"), path)
	assert.Equal(t, filepath.Join(env.RootDir(), "naoka.db"), env.DBPath("naoka"))
}

func TestTestEnv_WriteFile(t *testing.T) {
	env := NewTestEnv(t)

	env.WriteFileString("dir/mappings.yaml", "groups: []\n")
	assert.True(t, env.FileExists("dir/mappings.yaml"))
	assert.False(t, env.FileExists("missing.yaml"))

	content, err := os.ReadFile(env.Path("dir", "mappings.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "groups: []\n", string(content))
}

func TestTestEnv_Chdir(t *testing.T) {
	env := NewTestEnv(t)
	env.Chdir()

	wd, err := os.Getwd()
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(env.RootDir())
	require.NoError(t, err)
	wdResolved, err := filepath.EvalSymlinks(wd)
	require.NoError(t, err)
	assert.Equal(t, resolved, wdResolved)
}

func TestSetTestConfig(t *testing.T) {
	env := NewTestEnv(t)

	cfg := SetTestConfig(t, env)
	assert.Equal(t, env.DBPath("naoka"), cfg.DatabaseFile)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 25, cfg.CommitEvery)
}

func TestResetConfigInstallsDefaults(t *testing.T) {
	viper.Set("import.commit_every", 999)
	ResetConfig(t)

	assert.Equal(t, 25, viper.GetInt("import.commit_every"))
	assert.Equal(t, "https://graphql.anilist.co", viper.GetString("providers.anilist.base_url"))
}
