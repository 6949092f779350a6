// ABOUTME: The tui command: runs the Bubble Tea console over a live stream session.
// ABOUTME: Logging is discarded unless a log file is configured, since the UI owns the screen.
package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/2389-research/streamconsole/render"
	"github.com/2389-research/streamconsole/tui"
)

func newTUICmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal console (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *options) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg.Log, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer closeLog()

	session := newSession(cfg, prometheus.NewRegistry())
	defer session.Close()

	style := render.StyleLight
	if lipgloss.HasDarkBackground() {
		style = render.StyleDark
	}
	model := tui.NewAppModel(session, cfg.Examples, render.NewTerminal(style))

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
