// ABOUTME: Loads streamconsole.yaml and applies environment overrides on top of defaults.
// ABOUTME: Flags are applied by the CLI after Load; Validate checks the merged result.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "streamconsole.yaml"

// Config is the merged console configuration.
type Config struct {
	Stream   Stream   `yaml:"stream"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Examples []string `yaml:"examples"`
}

// Stream describes the upstream SSE endpoint.
type Stream struct {
	URL   string `yaml:"url"`
	Param string `yaml:"param"`
}

// Server configures the web console.
type Server struct {
	Listen         string        `yaml:"listen"`
	RatePerMinute  int           `yaml:"rate_per_minute"`
	RenderCacheTTL time.Duration `yaml:"render_cache_ttl"`
}

// Log configures the base logger.
type Log struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Stream: Stream{
			URL:   "http://localhost:8000/api/stream",
			Param: "text",
		},
		Server: Server{
			Listen:         "127.0.0.1:8080",
			RatePerMinute:  60,
			RenderCacheTTL: 10 * time.Minute,
		},
		Log: Log{Level: "info"},
		Examples: []string{
			"Explain 4-3 vs 3-4 defense and why cats purr.",
			"Give me 3 training tips for a kitten and a summary of zone coverage.",
			"Summarize nickel defense and how cats show stress.",
		},
	}
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error unless required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && !required:
		case err != nil:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("STREAM_URL", &c.Stream.URL)
	str("STREAM_PARAM", &c.Stream.Param)
	str("LISTEN_ADDR", &c.Server.Listen)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FILE", &c.Log.File)

	if v, ok := lookup("RATE_PER_MINUTE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_PER_MINUTE: %w", err)
		}
		c.Server.RatePerMinute = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	u, err := url.Parse(c.Stream.URL)
	if err != nil {
		return fmt.Errorf("stream.url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("stream.url %q: must be an absolute http(s) URL", c.Stream.URL)
	}
	if strings.TrimSpace(c.Stream.Param) == "" {
		return errors.New("stream.param must not be empty")
	}
	if c.Server.RatePerMinute < 0 {
		return fmt.Errorf("server.rate_per_minute must not be negative, got %d", c.Server.RatePerMinute)
	}
	if c.Server.RenderCacheTTL < 0 {
		return fmt.Errorf("server.render_cache_ttl must not be negative, got %s", c.Server.RenderCacheTTL)
	}
	return nil
}
