package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memFs(t *testing.T) afero.Fs {
	t.Helper()
	prev := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = prev })
	return AppFs
}

func TestLoadConfig(t *testing.T) {
	fs := memFs(t)
	require.NoError(t, afero.WriteFile(fs, "/project/cfg.yaml", []byte("components_dir: ui/components\nplan_cache_size: 16\n"), 0o644))

	t.Run("file and defaults", func(t *testing.T) {
		cfg, err := LoadConfig(viper.New(), "/project/cfg.yaml")
		require.NoError(t, err)
		assert.Equal(t, "ui/components", cfg.ComponentsDir)
		assert.Equal(t, 16, cfg.PlanCacheSize)
		assert.Equal(t, "memory", cfg.ContentProvider)
		assert.False(t, cfg.Debug)
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("NEO_ALCHEMIST_CONTENT_PROVIDER", "sqlite")
		t.Setenv("NEO_ALCHEMIST_DEBUG", "true")
		cfg, err := LoadConfig(viper.New(), "/project/cfg.yaml")
		require.NoError(t, err)
		assert.Equal(t, "sqlite", cfg.ContentProvider)
		assert.True(t, cfg.Debug)
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		_, err := LoadConfig(viper.New(), "/project/missing.yaml")
		assert.Error(t, err)
	})
}

func TestSaveConfig(t *testing.T) {
	memFs(t)
	cfg := &Config{
		ComponentsDir:   "components",
		ContentProvider: "postgres",
		ContentDSN:      "postgres://localhost/content",
		PlanCacheSize:   128,
	}
	path, err := SaveConfig(viper.New(), cfg, "/project/.neo-alchemist.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/project/.neo-alchemist.yaml", path)

	loaded, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, cfg.ContentProvider, loaded.ContentProvider)
	assert.Equal(t, cfg.ContentDSN, loaded.ContentDSN)
	assert.Equal(t, 128, loaded.PlanCacheSize)
}
