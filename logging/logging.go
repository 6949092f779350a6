// ABOUTME: Process-wide zerolog configuration and component loggers.
// ABOUTME: Configure sets level, writer and format; WithComponent derives tagged child loggers.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config captures options for the base logger.
type Config struct {
	Level   string    // "debug", "info", ...; info when empty
	Output  io.Writer // os.Stderr when nil
	Console bool      // human-readable output instead of JSON
	Service string    // attached to every entry, "streamconsole" when empty
	Version string
}

var (
	mu   sync.RWMutex
	base = zerolog.New(os.Stderr).With().Timestamp().Str("service", "streamconsole").Logger()
)

// Configure replaces the base logger. An unparseable level is an error and
// leaves the current logger in place.
func Configure(cfg Config) error {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return fmt.Errorf("parse log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}
	if cfg.Console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	service := cfg.Service
	if service == "" {
		service = "streamconsole"
	}

	zctx := zerolog.New(writer).Level(level).With().Timestamp().Str("service", service)
	if cfg.Version != "" {
		zctx = zctx.Str("version", cfg.Version)
	}

	mu.Lock()
	base = zctx.Logger()
	mu.Unlock()
	return nil
}

// Discard routes all logging to io.Discard. Used while a terminal UI owns the screen.
func Discard() {
	mu.Lock()
	base = zerolog.Nop()
	mu.Unlock()
}

// Base returns the configured base logger.
func Base() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// WithComponent returns a child logger annotated with the component name.
func WithComponent(component string) zerolog.Logger {
	return Base().With().Str("component", component).Logger()
}
