// Package config reads protify settings from the environment. Command-line
// flags override these values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultLCDir        = "lightcurves"
	defaultWorkers      = 1
	defaultHTTPAddr     = ":8080"
	defaultFetchTimeout = 60 * time.Second
)

// Config holds runtime configuration.
type Config struct {
	// LCDir is the root of local light-curve CSV files and archives.
	LCDir string
	// ArchiveURL selects the HTTP light-curve source when set.
	ArchiveURL   string
	Workers      int
	LogLevel     string
	HTTPAddr     string
	FetchTimeout time.Duration
	// DatabaseURL selects the Postgres checkpoint store when set.
	DatabaseURL string
}

// Load reads configuration from environment variables, loading a .env file
// in the working directory first if one exists.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is like Load with an explicit .env path. A missing file is not an
// error; variables already set in the environment take precedence.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg := Config{
		LCDir:        env("PROTIFY_LC_DIR", defaultLCDir),
		ArchiveURL:   env("PROTIFY_ARCHIVE_URL", ""),
		Workers:      defaultWorkers,
		LogLevel:     env("PROTIFY_LOG_LEVEL", "info"),
		HTTPAddr:     env("PROTIFY_HTTP_ADDR", defaultHTTPAddr),
		FetchTimeout: defaultFetchTimeout,
		DatabaseURL:  env("DATABASE_URL", ""),
	}

	if v := env("PROTIFY_WORKERS", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return cfg, fmt.Errorf("config: invalid PROTIFY_WORKERS %q", v)
		}
		cfg.Workers = n
	}

	if v := env("PROTIFY_FETCH_TIMEOUT", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("config: invalid PROTIFY_FETCH_TIMEOUT: %w", err)
		}
		cfg.FetchTimeout = d
	}

	return cfg, nil
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
