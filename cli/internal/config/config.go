package config

import (
	"errors"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

var AppFs = afero.NewOsFs()

// FileName is the config file name without extension.
const FileName = ".neo-alchemist"

// Config holds the application configuration
type Config struct {
	ComponentsDir   string
	DefinitionsDir  string
	ContentProvider string
	ContentDSN      string
	ContentFixture  string
	Debug           bool
	PlanCacheSize   int
}

// LoadConfig loads configuration from the config file, .env files and
// NEO_ALCHEMIST_* environment variables. An explicit file overrides the
// search path.
func LoadConfig(v *viper.Viper, file string) (*Config, error) {
	home, err := homedir.Dir()
	if err != nil {
		return nil, err
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "neo-alchemist"))
	}
	v.SetFs(AppFs)

	v.SetEnvPrefix("NEO_ALCHEMIST")
	v.AutomaticEnv()

	v.SetDefault("components_dir", "components")
	v.SetDefault("definitions_dir", "")
	v.SetDefault("content_provider", "memory")
	v.SetDefault("content_dsn", "")
	v.SetDefault("content_fixture", "")
	v.SetDefault("debug", false)
	v.SetDefault("plan_cache_size", 4096)

	// A missing config file is fine; a broken one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	loadDotEnv()

	return &Config{
		ComponentsDir:   v.GetString("components_dir"),
		DefinitionsDir:  v.GetString("definitions_dir"),
		ContentProvider: v.GetString("content_provider"),
		ContentDSN:      v.GetString("content_dsn"),
		ContentFixture:  v.GetString("content_fixture"),
		Debug:           v.GetBool("debug"),
		PlanCacheSize:   v.GetInt("plan_cache_size"),
	}, nil
}

func exists(path string) bool {
	_, err := AppFs.Stat(path)
	return err == nil
}

// loadDotEnv loads .env and then .env.local, which wins. Failures are
// ignored.
func loadDotEnv() {
	if exists(".env") {
		_ = godotenv.Load()
	}
	if exists(".env.local") {
		_ = godotenv.Overload(".env.local")
	}
}

// SaveConfig writes cfg to path, or to the user config directory when path
// is empty, and returns the file written.
func SaveConfig(v *viper.Viper, cfg *Config, path string) (string, error) {
	v.Set("components_dir", cfg.ComponentsDir)
	v.Set("definitions_dir", cfg.DefinitionsDir)
	v.Set("content_provider", cfg.ContentProvider)
	v.Set("content_dsn", cfg.ContentDSN)
	v.Set("content_fixture", cfg.ContentFixture)
	v.Set("debug", cfg.Debug)
	v.Set("plan_cache_size", cfg.PlanCacheSize)
	v.SetFs(AppFs)

	if path == "" {
		home, err := homedir.Dir()
		if err != nil {
			return "", err
		}
		dir := filepath.Join(home, ".config", "neo-alchemist")
		if err := AppFs.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
		path = filepath.Join(dir, FileName+".yaml")
	}
	v.SetConfigType("yaml")
	return path, v.WriteConfigAs(path)
}
