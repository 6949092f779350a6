// ABOUTME: Entry point for the streamconsole CLI: a live console for agent SSE streams.
// ABOUTME: Wires config, logging, metrics and the stream session into the tui, serve and run commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389-research/streamconsole/config"
	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/logging"
	"github.com/2389-research/streamconsole/metrics"
)

var version = "dev"

func main() {
	loadDotEnvAuto()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// exitError ends the process with code. Its message has already been shown
// to the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) ExitCode() int { return e.code }

func (e *exitError) Unwrap() error { return e.err }

// options holds the persistent flags shared by every command.
type options struct {
	configPath  string
	streamURL   string
	streamParam string
	logLevel    string
	logFile     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "streamconsole",
		Short:         "Live console for agent SSE streams",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	opts.addFlags(root)

	root.AddCommand(
		newTUICmd(opts),
		newServeCmd(opts),
		newRunCmd(opts),
		newVersionCmd(),
	)
	return root
}

func (o *options) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	flags.StringVar(&o.streamURL, "stream-url", "", "upstream SSE endpoint")
	flags.StringVar(&o.streamParam, "stream-param", "", "query parameter carrying the prompt")
	flags.StringVar(&o.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&o.logFile, "log-file", "", "append logs to this file")
}

// load merges defaults, the config file, the environment and any flags set
// on cmd, in that order, and validates the result.
func (o *options) load(cmd *cobra.Command) (config.Config, error) {
	path, required := o.configPath, true
	if path == "" {
		path, required = config.DefaultFile, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("stream-url") {
		cfg.Stream.URL = o.streamURL
	}
	if flags.Changed("stream-param") {
		cfg.Stream.Param = o.streamParam
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = o.logFile
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// setupLogging configures the base logger. Interactive commands own the
// terminal, so they only log when a log file is configured. The returned
// function closes the log file.
func setupLogging(cfg config.Log, stderr io.Writer, interactive bool) (func(), error) {
	if cfg.File == "" {
		if interactive {
			logging.Discard()
			return func() {}, nil
		}
		err := logging.Configure(logging.Config{
			Level:   cfg.Level,
			Output:  stderr,
			Console: isTerminal(stderr),
			Version: version,
		})
		return func() {}, err
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return func() {}, fmt.Errorf("open log file: %w", err)
	}
	if err := logging.Configure(logging.Config{Level: cfg.Level, Output: f, Version: version}); err != nil {
		f.Close()
		return func() {}, err
	}
	return func() { f.Close() }, nil
}

// newSession builds the stream session for cfg, recording metrics into reg.
func newSession(cfg config.Config, reg prometheus.Registerer) *console.Session {
	transport := &console.HTTPTransport{
		URL:   cfg.Stream.URL,
		Param: cfg.Stream.Param,
		// no Timeout: streams are long-lived and cancelled through the context
		Client: &http.Client{},
	}
	return console.NewSession(transport,
		console.WithLogger(logging.WithComponent("session")),
		console.WithRecorder(metrics.New(reg)),
	)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "streamconsole %s\n", version)
		},
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
