package cli

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/matzehuels/newton/internal/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var maxN, maxConcurrent int
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve renders over HTTP",
		Long: `Serve runs the HTTP API:

  GET /healthz           liveness and build info
  GET /render.{format}   render the fractal (png, bmp, tiff)
  GET /runs              recent runs, newest first
  GET /runs/{id}         one run

The domain comes from the [grid] section of the config; requests choose the
resolution (n), iteration budget (max_iter), strategy and output size.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("max-n") {
				cfg.Server.MaxN = maxN
			}

			runner, err := c.newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			defaults := cfg.Options()
			defaults.Formats = nil
			srv := server.New(runner, server.Config{
				Addr:          cfg.Server.Addr,
				MaxN:          cfg.Server.MaxN,
				ReadTimeout:   cfg.Server.ReadTimeout,
				WriteTimeout:  cfg.Server.WriteTimeout,
				MaxConcurrent: maxConcurrent,
				Defaults:      defaults,
			}, c.Logger)
			defer srv.Close()

			printInfo("Listening on %s", StyleHighlight.Render(cfg.Server.Addr))
			printDetail("cache: %s · store: %s", cfg.Cache.Backend, cfg.Store.Backend)

			err = srv.ListenAndServe(ctx)
			if stderrors.Is(err, http.ErrServerClosed) || stderrors.Is(err, context.Canceled) {
				printSuccess("Server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&maxN, "max-n", 4096, "largest grid side a request may ask for")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 4, "renders running at once")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
