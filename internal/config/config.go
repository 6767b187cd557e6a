// Package config loads the settings of the oshify command.
//
// Settings come, in increasing order of precedence, from a .oshify.toml
// file, from the environment (a .env file is loaded first when present)
// and from command line flags, which the caller applies on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/oshifier/oshify/internal/logging"
)

// FileName is the per-project configuration file.
const FileName = ".oshify.toml"

var osGetenv = os.Getenv

type Style struct {
	Getter string `toml:"getter"`
	Format string `toml:"format"`
}

type Config struct {
	// Catalog is the path of the JSON catalog. Relative paths in the
	// configuration file are resolved against its directory.
	Catalog   string `toml:"catalog"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	Locale    string `toml:"locale"`
	Strict    bool   `toml:"strict"`
	NoLock    bool   `toml:"no_lock"`
	Style     Style  `toml:"style"`
}

// Load reads the configuration for a command run from dir.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: cannot load .env: %w", err)
	}

	cfg := &Config{LogLevel: "warn", LogFormat: logging.FormatText}

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		if cfg.Catalog != "" && !filepath.IsAbs(cfg.Catalog) {
			cfg.Catalog = filepath.Join(dir, cfg.Catalog)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	for name, dst := range map[string]*string{
		"OSHIFY_CATALOG":    &c.Catalog,
		"OSHIFY_LOG_LEVEL":  &c.LogLevel,
		"OSHIFY_LOG_FORMAT": &c.LogFormat,
		"OSHIFY_LOCALE":     &c.Locale,
	} {
		if v := osGetenv(name); v != "" {
			*dst = v
		}
	}
	for name, dst := range map[string]*bool{
		"OSHIFY_STRICT":  &c.Strict,
		"OSHIFY_NO_LOCK": &c.NoLock,
	} {
		v := osGetenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: %s must be a boolean, got %q", name, v)
		}
		*dst = b
	}
	return nil
}

// Validate checks the logging settings.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
