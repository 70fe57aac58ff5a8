// Package config loads elabql settings from an optional .elabql.yaml file,
// a .env file and ELABQL_ environment variables. Command-line flags
// override whatever is loaded here.
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
	"go.uber.org/zap/zapcore"
)

// AppFs is the filesystem config files are read from.
var AppFs = afero.NewOsFs()

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ELABQL"

// Config holds the application configuration.
type Config struct {
	// Format is the output format, "text" or "json".
	Format string

	// DB is the path of the SQLite elaboration log. Empty disables
	// recording.
	DB string

	// LogLevel is the zap level name used with --verbose.
	LogLevel string

	// Concurrency bounds the batch workers; 0 means GOMAXPROCS.
	Concurrency int

	// MaxBatch bounds the sources per run; 0 means the engine default.
	MaxBatch int

	// File is the config file that was read, if any.
	File string
}

// Load reads configuration from, in increasing priority: defaults,
// .elabql.yaml (working directory, then $HOME/.config/elabql), .env in the
// working directory, and ELABQL_* environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetFs(AppFs)

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}

	v.SetConfigName(".elabql")
	v.SetConfigType("yaml")
	v.AddConfigPath(wd)
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "elabql"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("format", FormatText)
	v.SetDefault("db", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("concurrency", 0)
	v.SetDefault("max_batch", 0)

	if err := loadDotEnv(filepath.Join(wd, ".env")); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Format:      strings.ToLower(v.GetString("format")),
		DB:          v.GetString("db"),
		LogLevel:    strings.ToLower(v.GetString("log_level")),
		Concurrency: v.GetInt("concurrency"),
		MaxBatch:    v.GetInt("max_batch"),
		File:        v.ConfigFileUsed(),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDotEnv sets ELABQL_* variables from a .env file. Variables already
// present in the environment win.
func loadDotEnv(path string) error {
	f, err := AppFs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, val := range vars {
		if !strings.HasPrefix(key, EnvPrefix+"_") {
			continue
		}
		if _, set := os.LookupEnv(key); set {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
	}
	return nil
}

// Validate checks that every setting has an accepted value.
func (c *Config) Validate() error {
	switch c.Format {
	case FormatText, FormatJSON:
	default:
		return fmt.Errorf("config: format must be %q or %q, got %q", FormatText, FormatJSON, c.Format)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must be non-negative, got %d", c.Concurrency)
	}
	if c.MaxBatch < 0 {
		return fmt.Errorf("config: max_batch must be non-negative, got %d", c.MaxBatch)
	}
	return nil
}

// Level returns the configured log level, or info if it does not parse.
func (c *Config) Level() zapcore.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func parseLevel(s string) (zapcore.Level, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return zapcore.InfoLevel, err
	}
	return lvl, nil
}
