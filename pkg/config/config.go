// Package config loads cloudsketch settings from a TOML file.
//
// The file is optional. Every field has a default, and command-line flags
// override whatever the file sets. The default location follows the XDG
// base directory spec:
//
//	$XDG_CONFIG_HOME/cloudsketch/config.toml   (~/.config/cloudsketch/config.toml)
//
// Example:
//
//	[server]
//	addr = ":8080"
//	planner_url = "http://planner.internal/v1/plan"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	prefix = "cloudsketch:"
//	ttl = "24h"
//
//	[render]
//	target = "diagrams"
//	imports = true
//
//	[render.modules]
//	Kafka = "diagrams.onprem.queue"
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
	"github.com/matzehuels/cloudsketch/pkg/pipeline"
)

// AppName names the XDG subdirectories.
const AppName = "cloudsketch"

// Cache backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
)

// Config is the full settings tree.
type Config struct {
	Server ServerConfig `toml:"server"`
	Cache  CacheConfig  `toml:"cache"`
	Render RenderConfig `toml:"render"`
}

// ServerConfig configures `cloudsketch serve`.
type ServerConfig struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64 `toml:"max_body_bytes"`
	// PlannerURL enables POST /v1/diagrams/query when set.
	PlannerURL string `toml:"planner_url"`
}

// CacheConfig selects and configures the cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	Prefix   string   `toml:"prefix"`
	TTL      Duration `toml:"ttl"`
}

// RenderConfig holds generation defaults.
type RenderConfig struct {
	Target  string            `toml:"target"`
	Imports bool              `toml:"imports"`
	Modules map[string]string `toml:"modules"`
}

// Duration is a time.Duration written as a string ("30s", "24h") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText writes the duration in Go syntax.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
			MaxBodyBytes: 1 << 20,
		},
		Cache: CacheConfig{
			Backend:  BackendFile,
			RedisURL: "redis://localhost:6379/0",
			Prefix:   AppName + ":",
			TTL:      Duration{24 * time.Hour},
		},
		Render: RenderConfig{
			Target: pipeline.DefaultTarget,
		},
	}
}

// Load reads the file at path over the defaults. An empty path means the
// default location, which may be absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, cfg.Validate()
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return cfg, cfg.Validate()
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errs.New(errs.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var backends = []string{BackendNone, BackendFile, BackendRedis}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "server.addr cannot be empty")
	}
	if c.Server.ReadTimeout.Duration < 0 || c.Server.WriteTimeout.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server timeouts cannot be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "server.max_body_bytes must be positive")
	}
	if !slices.Contains(backends, c.Cache.Backend) {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.backend must be one of %s, got %q", strings.Join(backends, ", "), c.Cache.Backend)
	}
	if c.Cache.Backend == BackendRedis && c.Cache.RedisURL == "" {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	if c.Cache.TTL.Duration < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl cannot be negative")
	}
	if err := pipeline.ValidateTarget(c.Render.Target); err != nil {
		return errs.Wrap(errs.ErrCodeInvalidConfig, err, "render.target")
	}
	for typ, mod := range c.Render.Modules {
		if typ == "" || mod == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "render.modules entries need a type and a module")
		}
	}
	return nil
}

// CacheDir returns the file cache directory: cache.dir if set, otherwise
// $XDG_CACHE_HOME/cloudsketch (~/.cache/cloudsketch).
func (c *Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return DefaultCacheDir()
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	if home := os.Getenv("XDG_CONFIG_HOME"); home != "" {
		return filepath.Join(home, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// DefaultCacheDir returns the XDG cache directory for cloudsketch.
func DefaultCacheDir() (string, error) {
	if home := os.Getenv("XDG_CACHE_HOME"); home != "" {
		return filepath.Join(home, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}
