// ABOUTME: Tests for the streamconsole command tree: config merging, version, run and serve.
// ABOUTME: The run command is exercised end to end against an httptest SSE endpoint.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/2389-research/streamconsole/config"
	"github.com/2389-research/streamconsole/logging"
	"github.com/2389-research/streamconsole/web"
)

// clearConfigEnv removes environment overrides that config.Load would apply.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"STREAM_URL", "STREAM_PARAM", "LISTEN_ADDR", "LOG_LEVEL", "LOG_FILE", "RATE_PER_MINUTE"} {
		unsetForTest(t, k)
	}
}

func sseServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		for _, f := range frames {
			fmt.Fprintf(w, "data: %s\n\n", f)
			w.(http.Flusher).Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if out != "streamconsole dev\n" {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommandCompleted(t *testing.T) {
	clearConfigEnv(t)
	srv := sseServer(t,
		`{"type":"status","state":"working"}`,
		`{"type":"message","text":"hello back"}`,
		`{"type":"message","text":"## Plan\n- one"}`,
		`{"type":"done"}`,
	)

	out, errOut, err := execute(t, "--stream-url", srv.URL, "--log-level", "error", "run", "say", "hello")
	if err != nil {
		t.Fatalf("run: %v (stderr %q)", err, errOut)
	}
	for _, want := range []string{"status [working] State: working", "message hello back", "Plan", "one"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if !strings.Contains(errOut, "Completed (3 events)") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunCommandPlainSkipsRendering(t *testing.T) {
	clearConfigEnv(t)
	srv := sseServer(t, `{"type":"message","text":"## Plan"}`, `{"type":"done"}`)

	out, _, err := execute(t, "--stream-url", srv.URL, "--log-level", "error", "run", "--plain", "go")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "message ## Plan") {
		t.Errorf("output = %q", out)
	}
}

func TestRunCommandStreamError(t *testing.T) {
	clearConfigEnv(t)
	srv := sseServer(t, `{"type":"error","message":"boom"}`)

	_, errOut, err := execute(t, "--stream-url", srv.URL, "--log-level", "error", "run", "hello")
	var exitErr *exitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(errOut, "Error: boom") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunCommandTransportError(t *testing.T) {
	clearConfigEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, errOut, err := execute(t, "--stream-url", srv.URL, "--log-level", "error", "run", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(errOut, "Stream error. Check the proxy and agent server logs.") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunCommandBlankPrompt(t *testing.T) {
	clearConfigEnv(t)
	_, _, err := execute(t, "--log-level", "error", "run", "   ")
	if err == nil || !strings.Contains(err.Error(), "prompt must not be empty") {
		t.Errorf("err = %v", err)
	}
}

func TestRunCommandRejectsInvalidURL(t *testing.T) {
	clearConfigEnv(t)
	_, _, err := execute(t, "--stream-url", "ftp://example.com", "run", "hello")
	if err == nil || !strings.Contains(err.Error(), "invalid configuration") {
		t.Errorf("err = %v", err)
	}
}

func loadWithArgs(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	opts := &options{}
	var cfg config.Config
	cmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cfg, err = opts.load(cmd)
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	opts.addFlags(cmd)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return cfg, err
}

func TestLoadMergesFileEnvAndFlags(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "console.yaml")
	yaml := "stream:\n  url: http://file.example/stream\n  param: q\nlog:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("STREAM_PARAM", "prompt")

	cfg, err := loadWithArgs(t, "--config", path, "--stream-url", "https://flag.example/stream")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stream.URL != "https://flag.example/stream" {
		t.Errorf("url = %q, want flag value", cfg.Stream.URL)
	}
	if cfg.Stream.Param != "prompt" {
		t.Errorf("param = %q, want env value", cfg.Stream.Param)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("level = %q, want file value", cfg.Log.Level)
	}
}

func TestLoadExplicitConfigMustExist(t *testing.T) {
	clearConfigEnv(t)
	if _, err := loadWithArgs(t, "--config", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestSetupLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	closeLog, err := setupLogging(config.Log{Level: "info", File: path}, nil, true)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	defer logging.Discard()
	logger := logging.WithComponent("test")
	logger.Info().Msg("hello")
	closeLog()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("log file = %q", data)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	clearConfigEnv(t)
	session := newSession(config.Default(), prometheus.NewRegistry())
	defer session.Close()

	srv, err := web.NewServer(session, web.ServerConfig{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, session) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeStopsWhenSessionCloses(t *testing.T) {
	session := newSession(config.Default(), prometheus.NewRegistry())
	srv, err := web.NewServer(session, web.ServerConfig{Addr: "127.0.0.1:0"})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), srv, session) }()
	session.Close()

	select {
	case err := <-done:
		if !errors.Is(err, errSessionClosed) {
			t.Errorf("serve = %v, want errSessionClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after session close")
	}
}
