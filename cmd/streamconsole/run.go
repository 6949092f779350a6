// ABOUTME: The run command: streams one prompt non-interactively and prints each event as it arrives.
// ABOUTME: Exits 0 when the stream completes and 1 when it ends in error or is stopped.
package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/render"
)

const defaultWidth = 80

func newRunCmd(opts *options) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "run <prompt>",
		Short: "Stream one prompt and print its events",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			closeLog, err := setupLogging(cfg.Log, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer closeLog()

			session := newSession(cfg, prometheus.NewRegistry())
			defer session.Close()

			p := newEventPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), plain)
			return streamPrompt(cmd.Context(), session, strings.Join(args, " "), p)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print event text without markdown rendering")
	return cmd
}

// eventPrinter writes events to out and the outcome to errOut.
type eventPrinter struct {
	out       io.Writer
	errOut    io.Writer
	renderer  *render.TerminalRenderer // nil prints raw text
	width     int
	projector console.Projector
	printed   int
}

func newEventPrinter(out, errOut io.Writer, plain bool) *eventPrinter {
	p := &eventPrinter{
		out:       out,
		errOut:    errOut,
		width:     defaultWidth,
		projector: console.Projector{Markdown: func(string) template.HTML { return "" }},
	}
	if plain {
		return p
	}

	style := render.StyleNoTTY
	if isTerminal(out) {
		if w, _, err := term.GetSize(int(out.(*os.File).Fd())); err == nil && w > 0 {
			p.width = w
		}
		style = render.StyleLight
		if lipgloss.HasDarkBackground() {
			style = render.StyleDark
		}
	}
	p.renderer = render.NewTerminal(style)
	return p
}

// update prints the events of snap not yet printed.
func (p *eventPrinter) update(snap console.Snapshot) {
	if len(snap.Events) <= p.printed {
		return
	}
	vm := p.projector.Project(snap)
	for _, ev := range vm.Events[p.printed:] {
		p.event(ev)
	}
	p.printed = len(vm.Events)
}

func (p *eventPrinter) event(ev console.EventView) {
	header := ev.Clock + " " + ev.Type
	if ev.State != "" {
		header += " [" + ev.State + "]"
	}

	if ev.Mode == console.ModeMarkdown && p.renderer != nil {
		fmt.Fprintln(p.out, header)
		fmt.Fprintln(p.out, strings.TrimRight(p.renderer.Render(p.width, ev.Line), "\n"))
		return
	}
	fmt.Fprintf(p.out, "%s %s\n", header, render.StripEscapes(ev.Line))
}

// streamPrompt starts prompt on session and prints events until the stream
// reaches a terminal status or ctx is cancelled.
func streamPrompt(ctx context.Context, session *console.Session, prompt string, p *eventPrinter) error {
	updates, unsubscribe := session.Subscribe()
	defer unsubscribe()

	if !session.Start(prompt) {
		return errors.New("prompt must not be empty")
	}

	for {
		select {
		case <-ctx.Done():
			session.Stop()
			fmt.Fprintln(p.errOut, "Stopped")
			return &exitError{code: 130, err: ctx.Err()}

		case snap, ok := <-updates:
			if !ok {
				return errSessionClosed
			}
			p.update(snap)
			if snap.Live {
				continue
			}
			switch snap.Status {
			case console.StatusCompleted:
				fmt.Fprintf(p.errOut, "%s (%d events)\n", snap.Status.Label(), len(snap.Events))
				return nil
			case console.StatusError:
				fmt.Fprintf(p.errOut, "%s: %s\n", snap.Status.Label(), snap.ErrorMessage)
				return &exitError{code: 1, err: errors.New(snap.ErrorMessage)}
			default:
				fmt.Fprintln(p.errOut, snap.Status.Label())
				return &exitError{code: 1}
			}
		}
	}
}
