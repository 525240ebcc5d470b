// Package config loads vegasave settings from an optional TOML file.
//
// The file lives at $XDG_CONFIG_HOME/vegasave/config.toml (falling back to
// ~/.config/vegasave/config.toml). A missing file is not an error: every
// field has a usable zero-config default, so the tool works out of the box.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/vegakit/vegasave/pkg/errors"
)

const appName = "vegasave"

// Cache backends selectable via the [cache] section.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// Config holds all user-tunable settings.
type Config struct {
	// BinDir is a directory searched first for renderer binaries
	// (vl2vg, vg2svg, rsvg-convert) before PATH and the npm bin dir.
	BinDir string `toml:"bin_dir"`

	// TempDir overrides the directory for intermediate renderer files.
	TempDir string `toml:"temp_dir"`

	// VlVersion and VgVersion label produced MIME types. Only the major
	// version component is used.
	VlVersion string `toml:"vl_version"`
	VgVersion string `toml:"vg_version"`

	// Scale is the raster scale factor for PNG output.
	Scale float64 `toml:"scale"`

	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the artifact cache backend.
type CacheConfig struct {
	// Backend is one of "file", "redis", or "none". Default: "file".
	Backend string `toml:"backend"`

	// Dir overrides the file cache directory ($XDG_CACHE_HOME/vegasave).
	Dir string `toml:"dir"`

	// RedisAddr is the host:port of the redis server for the redis backend.
	RedisAddr string `toml:"redis_addr"`
}

// Default returns the zero-config defaults.
func Default() Config {
	return Config{
		Cache: CacheConfig{Backend: CacheBackendFile},
	}
}

// Load reads the config file at path. When path is empty the default
// location is used. A missing file yields Default() without error.
func Load(path string) (Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInternal, err, "read config %s", path)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInternal, err, "parse config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath returns the XDG-standard config file location.
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendFile, CacheBackendRedis, CacheBackendNone:
		return nil
	default:
		return errors.New(errors.ErrCodeInternal,
			"invalid cache backend %q (must be %q, %q, or %q)",
			c.Cache.Backend, CacheBackendFile, CacheBackendRedis, CacheBackendNone)
	}
}
