package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/matzehuels/cloudsketch/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = "127.0.0.1:9000"
read_timeout = "5s"
planner_url = "http://planner.local/plan"

[cache]
backend = "redis"
redis_url = "redis://cache:6379/2"
prefix = "test:"
ttl = "90m"

[render]
target = "dot"
imports = true

[render.modules]
Kafka = "diagrams.onprem.queue"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout.Duration != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout.Duration != 30*time.Second {
		t.Errorf("WriteTimeout should keep its default, got %v", cfg.Server.WriteTimeout)
	}
	if cfg.Server.PlannerURL != "http://planner.local/plan" {
		t.Errorf("PlannerURL = %q", cfg.Server.PlannerURL)
	}
	if cfg.Cache.Backend != BackendRedis || cfg.Cache.RedisURL != "redis://cache:6379/2" || cfg.Cache.Prefix != "test:" {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Cache.TTL.Duration != 90*time.Minute {
		t.Errorf("Cache.TTL = %v", cfg.Cache.TTL)
	}
	if cfg.Render.Target != "dot" || !cfg.Render.Imports || cfg.Render.Modules["Kafka"] != "diagrams.onprem.queue" {
		t.Errorf("Render = %+v", cfg.Render)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errs.Code
	}{
		{"syntax", `[server`, errs.ErrCodeInvalidConfig},
		{"unknown key", "[server]\nport = 80\n", errs.ErrCodeInvalidConfig},
		{"bad duration", "[cache]\nttl = \"soon\"\n", errs.ErrCodeInvalidConfig},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n", errs.ErrCodeInvalidConfig},
		{"bad target", "[render]\ntarget = \"svg\"\n", errs.ErrCodeInvalidConfig},
		{"redis without url", "[cache]\nbackend = \"redis\"\nredis_url = \"\"\n", errs.ErrCodeInvalidConfig},
		{"empty module", "[render.modules]\nEC2 = \"\"\n", errs.ErrCodeInvalidConfig},
		{"zero body limit", "[server]\nmax_body_bytes = 0\n", errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !errs.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoad_MissingFiles(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); !errs.Is(err, errs.ErrCodeFileNotFound) {
		t.Errorf("explicit missing path error = %v, want FILE_NOT_FOUND", err)
	}

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") with no default file error: %v", err)
	}
	if cfg.Server.Addr != Default().Server.Addr {
		t.Error("missing default file should yield defaults")
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != BackendNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")

	if p, _ := DefaultPath(); p != filepath.Join("/xdg/config", AppName, "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}
	if d, _ := DefaultCacheDir(); d != filepath.Join("/xdg/cache", AppName) {
		t.Errorf("DefaultCacheDir() = %q", d)
	}

	cfg := Default()
	if d, _ := cfg.CacheDir(); d != filepath.Join("/xdg/cache", AppName) {
		t.Errorf("CacheDir() = %q", d)
	}
	cfg.Cache.Dir = "/custom"
	if d, _ := cfg.CacheDir(); d != "/custom" {
		t.Errorf("CacheDir() with override = %q", d)
	}
}

func TestPathsWithoutXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_CACHE_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if p, _ := DefaultPath(); p != filepath.Join(home, ".config", AppName, "config.toml") {
		t.Errorf("DefaultPath() = %q", p)
	}
	if d, _ := DefaultCacheDir(); d != filepath.Join(home, ".cache", AppName) {
		t.Errorf("DefaultCacheDir() = %q", d)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatal(err)
	}
	out, _ := d.MarshalText()
	if string(out) != "1h30m0s" {
		t.Errorf("MarshalText() = %q", out)
	}
}
