// ABOUTME: Tests for config loading, environment overrides, and validation.
// ABOUTME: Uses temp files and t.Setenv.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"STREAM_URL", "STREAM_PARAM", "LISTEN_ADDR", "LOG_LEVEL", "LOG_FILE", "RATE_PER_MINUTE"} {
		t.Setenv(key, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestLoadMissingRequiredFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true); err == nil {
		t.Fatal("expected error for missing required file")
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
stream:
  url: https://proxy.internal/api/stream
server:
  render_cache_ttl: 30s
examples:
  - only one
`)
	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	want.Stream.URL = "https://proxy.internal/api/stream"
	want.Server.RenderCacheTTL = 30 * time.Second
	want.Examples = []string{"only one"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := writeFile(t, "stream: [unclosed")
	_, err := Load(path, false)
	if err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "stream:\n  url: http://from-file/stream\n")
	t.Setenv("STREAM_URL", "http://from-env/stream")
	t.Setenv("STREAM_PARAM", "q")
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_PER_MINUTE", "5")

	cfg, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stream.URL != "http://from-env/stream" || cfg.Stream.Param != "q" ||
		cfg.Server.Listen != ":9999" || cfg.Log.Level != "debug" || cfg.Server.RatePerMinute != 5 {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestEnvBadInteger(t *testing.T) {
	t.Setenv("RATE_PER_MINUTE", "lots")
	if _, err := Load("", false); err == nil {
		t.Fatal("expected error for non-numeric RATE_PER_MINUTE")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.Stream.URL = "/api/stream" }},
		{"bad scheme", func(c *Config) { c.Stream.URL = "ws://host/stream" }},
		{"empty param", func(c *Config) { c.Stream.Param = " " }},
		{"negative rate", func(c *Config) { c.Server.RatePerMinute = -1 }},
		{"negative ttl", func(c *Config) { c.Server.RenderCacheTTL = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
