package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/apache/sunny-website/internal/monitoring"
	"github.com/apache/sunny-website/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var flags *StandardFlags

	serveCmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Start the development server",
		Long: `Build the site and serve it with live reload. Changes to docs, blog posts,
static files, the custom stylesheet or site.yml trigger a rebuild, after
which open browser tabs reload. A failed build shows an error overlay.

The server also answers /health and, when metrics are enabled, /metrics.

Examples:
  sunnysite serve                   # http://localhost:3000
  sunnysite serve -p 8080 --open    # custom port, open a browser
  sunnysite serve --no-live-reload  # serve the output once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.ValidateFlags(cmd); err != nil {
				return err
			}
			if flags.NoLiveReload {
				a.cfg.Development.LiveReload = false
			}
			return a.runServe(cmd)
		},
	}

	flags = AddStandardFlags(serveCmd, "server", "build")
	return serveCmd
}

func (a *app) runServe(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var metrics *monitoring.Metrics
	if a.cfg.Metrics.Enabled {
		metrics = monitoring.NewMetrics(nil)
	}

	srv, err := server.New(a.cfg, server.Options{
		ConfigFile: a.v.ConfigFileUsed(),
		Logger:     a.logger,
		Metrics:    metrics,
	})
	if err != nil {
		return err
	}

	if err := srv.Start(ctx); err != nil {
		return err
	}
	a.logger.Info(context.Background(), "Server stopped")
	return nil
}
