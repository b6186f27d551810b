package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/datasync"
	"github.com/roach88/guff/internal/mutation"
	"github.com/roach88/guff/internal/validate"
)

var errNotFound = errors.New("not found")

// app wires the client core for one command invocation.
type app struct {
	opts   *RootOptions
	client backend.Client // nil when no backend is configured
	sync   *datasync.Engine
	mut    *mutation.Coordinator
	out    *OutputFormatter
}

func newApp(opts *RootOptions, cmd *cobra.Command) *app {
	cfg := opts.Config

	var client backend.Client
	if cfg.BackendURL != "" {
		client = backend.NewHTTPClient(cfg.BackendURL, cfg.PrincipalID())
	}

	engine := datasync.New(
		datasync.WithLogger(opts.Logger),
		datasync.WithPolling(datasync.KeyChatMessages, cfg.PollVisible, cfg.PollHidden),
		datasync.WithFetchTimeout(cfg.FetchTimeout),
	)

	return &app{
		opts:   opts,
		client: client,
		sync:   engine,
		mut:    mutation.New(client, engine, opts.Logger),
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}
}

// requireClient fails when no backend is configured.
func (a *app) requireClient() error {
	if a.client == nil {
		return WrapExitError(ExitCommandError, "no backend_url configured", backend.ErrNotConnected)
	}
	return nil
}

// commandError maps a failure of a user action to an ExitError.
func commandError(action string, err error) error {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		return WrapExitError(ExitFailure, fmt.Sprintf("cannot %s", action), err)
	case errors.Is(err, backend.ErrNotConnected):
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot %s", action), err)
	default:
		return WrapExitError(ExitFailure, fmt.Sprintf("failed to %s", action), err)
	}
}

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
