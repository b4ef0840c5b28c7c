package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jsonviz/jsonviz/internal/config"
	"github.com/jsonviz/jsonviz/internal/server"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout API and the streaming worker over HTTP",
		Long: `Serve the layout API and the streaming worker over HTTP.

Routes:
  GET  /healthz    liveness and version
  POST /v1/layout  run the pipeline on the request body
  GET  /v1/ws      worker protocol over WebSocket (?codec=json|msgpack)

Layout results are cached with the configured cache backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), origins)
		},
	}

	cmd.Flags().String("addr", config.DefaultAddr, "listen address")
	cmd.Flags().StringSliceVar(&origins, "allowed-origin", nil, "allowed WebSocket origin (repeatable, \"*\" for any)")

	return cmd
}

// serverConfig assembles the server configuration from the loaded config.
func (c *CLI) serverConfig(origins []string) server.Config {
	cfg := c.config()
	wc := cfg.Worker.WorkerConfig()
	wc.Logger = c.Logger

	if len(origins) == 0 {
		origins = cfg.Server.AllowedOrigins
	}
	defaults := cfg.PipelineOptions()
	defaults.Logger = c.Logger

	return server.Config{
		Addr:            cfg.Server.Addr,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		MaxBodyBytes:    cfg.Server.MaxBodyBytes,
		AllowedOrigins:  origins,
		Defaults:        defaults,
		Worker:          wc,
		Logger:          c.Logger,
	}
}

func (c *CLI) runServe(ctx context.Context, origins []string) error {
	runner, err := c.newRunner(ctx, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	cfg := c.serverConfig(origins)
	cfg.Runner = runner

	printInfo("Serving on %s", StyleHighlight.Render(cfg.Addr))
	printDetail("cache: %s", c.config().Cache.Backend)
	if err := server.New(cfg).Serve(ctx); err != nil {
		return err
	}
	printSuccess("Server stopped")
	return nil
}
