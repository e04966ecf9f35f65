package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ersonp/name-historian/internal/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the name history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				cfg := d.Config.API
				if addr != "" {
					cfg.Addr = addr
				}

				srv := api.NewServer(d.Logger, cfg, api.Handlers{
					History: d.HistoryHandler,
					Resolve: d.ResolveHandler,
					Observe: d.ObserveHandler,
					Import:  d.ImportHandler,
				}, d.Metrics.Handler())

				errCh := make(chan error, 1)
				go func() { errCh <- srv.Start() }()

				select {
				case err := <-errCh:
					if err != nil {
						return fmt.Errorf("serving: %w", err)
					}
					return nil
				case <-cmd.Context().Done():
				}

				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					return fmt.Errorf("shutting down: %w", err)
				}
				return <-errCh
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides api.addr)")

	return cmd
}
