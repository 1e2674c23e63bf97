// Package config loads CLI settings from flags, the environment, .env files and
// .prisma-docdb.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// AppFs is the filesystem config, .env and query files are read from.
var AppFs = afero.NewOsFs()

// Config keys.
const (
	KeyBackend     = "backend"
	KeyDSN         = "dsn"
	KeyDatabase    = "database"
	KeyDebug       = "debug"
	KeyJSONLogs    = "json_logs"
	KeyMetricsAddr = "metrics_addr"
	KeyIDField     = "id_field"
	KeyConcurrency = "concurrency"
)

const (
	// FileName is the config file name without extension.
	FileName = ".prisma-docdb"
	// EnvPrefix prefixes every environment variable, e.g. PRISMA_DOCDB_DSN.
	EnvPrefix = "PRISMA_DOCDB"
)

// Config holds the application configuration
type Config struct {
	Backend     string `mapstructure:"backend" yaml:"backend"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Database    string `mapstructure:"database" yaml:"database"`
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
	JSONLogs    bool   `mapstructure:"json_logs" yaml:"json_logs"`
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	IDField     string `mapstructure:"id_field" yaml:"id_field"`
	Concurrency int    `mapstructure:"concurrency" yaml:"concurrency"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-" yaml:"-"`
}

// New returns a viper instance with the search paths, env binding and defaults
// set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetFs(AppFs)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "prisma-docdb"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyBackend, "sqlite")
	v.SetDefault(KeyDSN, "prisma-docdb.sqlite")
	v.SetDefault(KeyDatabase, "default")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyJSONLogs, false)
	v.SetDefault(KeyMetricsAddr, ":9464")
	v.SetDefault(KeyIDField, "id")
	v.SetDefault(KeyConcurrency, 0)
	return v
}

// Load reads .env, .env.local and the config file into v and decodes the
// result. configFile, when set, replaces the search paths and must exist.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// .env.local wins over .env, the real environment wins over both
	if err := loadDotEnv(".env", false); err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env.local", true); err != nil {
		return nil, err
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	return cfg, nil
}

// loadDotEnv sets the variables of a .env file. Variables already present in
// the environment are kept unless overload is set.
func loadDotEnv(name string, overload bool) error {
	data, err := afero.ReadFile(AppFs, name)
	if err != nil {
		return nil
	}
	vars, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	for k, val := range vars {
		if _, exists := os.LookupEnv(k); exists && !overload {
			continue
		}
		os.Setenv(k, val)
	}
	return nil
}

// SaveConfig writes cfg as yaml to path, or to ./.prisma-docdb.yaml when path
// is empty.
func SaveConfig(cfg *Config, path string) (string, error) {
	if path == "" {
		path = FileName + ".yaml"
	}
	v := viper.New()
	v.SetFs(AppFs)
	v.Set(KeyBackend, cfg.Backend)
	v.Set(KeyDSN, cfg.DSN)
	v.Set(KeyDatabase, cfg.Database)
	v.Set(KeyDebug, cfg.Debug)
	v.Set(KeyJSONLogs, cfg.JSONLogs)
	v.Set(KeyMetricsAddr, cfg.MetricsAddr)
	v.Set(KeyIDField, cfg.IDField)
	v.Set(KeyConcurrency, cfg.Concurrency)

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config: %w", err)
	}
	return path, nil
}
