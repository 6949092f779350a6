// ABOUTME: The serve command: hosts the web console and its metrics endpoint for one session.
// ABOUTME: The server and session lifetimes are tied together with an errgroup.
package main

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/2389-research/streamconsole/console"
	"github.com/2389-research/streamconsole/logging"
	"github.com/2389-research/streamconsole/web"
)

var errSessionClosed = errors.New("stream session closed")

func newServeCmd(opts *options) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			closeLog, err := setupLogging(cfg.Log, cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			defer closeLog()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			session := newSession(cfg, reg)
			defer session.Close()

			srv, err := web.NewServer(session, web.ServerConfig{
				Addr:           cfg.Server.Listen,
				StreamURL:      cfg.Stream.URL,
				Examples:       cfg.Examples,
				RatePerMinute:  cfg.Server.RatePerMinute,
				RenderCacheTTL: cfg.Server.RenderCacheTTL,
				Gatherer:       reg,
				Logger:         logging.WithComponent("web"),
			})
			if err != nil {
				return err
			}
			return serve(cmd.Context(), srv, session)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

// serve runs srv until ctx is cancelled or the session goes away.
func serve(ctx context.Context, srv *web.Server, session *console.Session) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			return errSessionClosed
		}
	})
	return g.Wait()
}
