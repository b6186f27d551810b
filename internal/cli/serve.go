package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/guff/internal/server"
	"github.com/roach88/guff/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Database string
	Listen   string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the guff REST backend",
		Long: `Serve the chat feed, private questions and profiles over HTTP,
backed by a local SQLite database (created if it doesn't exist).

Callers identify themselves with the X-Guff-Principal header. Prometheus
metrics are exposed on /metrics and a health check on /health.

Examples:
  guff serve
  guff serve --db ./guff.db --listen :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (default from config)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	dbPath := opts.Database
	if dbPath == "" {
		dbPath = opts.Config.Database
	}
	listen := opts.Listen
	if listen == "" {
		listen = opts.Config.Listen
	}
	logger := opts.Logger

	logger.Info("opening database", "path", dbPath)
	st, err := store.Open(dbPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	ctx, stop := commandContext(cmd)
	defer stop()

	srv := server.New(listen, server.NewRouter(logger, st), logger)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on %s. Press Ctrl-C to stop.\n", listen)

	if err := srv.Run(ctx); err != nil {
		return WrapExitError(ExitFailure, "server error", err)
	}
	return nil
}
