package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/guff/internal/compose"
	"github.com/roach88/guff/internal/datasync"
	"github.com/roach88/guff/internal/model"
)

// ChatOptions holds flags for the chat commands.
type ChatOptions struct {
	*RootOptions
	Limit int
}

// NewChatCommand creates the chat command group.
func NewChatCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChatOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Read and post chat messages",
	}
	cmd.PersistentFlags().IntVar(&opts.Limit, "limit", 0, "number of messages to load (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:   "read",
		Short: "Print the chat feed, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatRead(opts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Follow the chat feed until interrupted",
		Long: `Print the chat feed and keep polling for new messages until
interrupted. With --format json, each message is printed as one JSON line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatWatch(opts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "send <text>...",
		Short: "Post a chat message",
		Long: `Post a chat message. The display name comes from the config, or
from your profile when the config sets none.

Examples:
  guff chat send namaste
  guff chat send "k cha khabar?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChatSend(opts, strings.Join(args, " "), cmd)
		},
	})

	return cmd
}

func (o *ChatOptions) limit() int {
	if o.Limit > 0 {
		return o.Limit
	}
	return o.Config.FetchLimit
}

func runChatRead(opts *ChatOptions, cmd *cobra.Command) error {
	a := newApp(opts.RootOptions, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	sub := datasync.Subscribe(a.sync, datasync.Messages(a.client, opts.limit()))
	defer sub.Close()

	if err := sub.Wait(ctx); err != nil {
		return commandError("load messages", err)
	}
	msgs := sub.Snapshot().Items

	if a.out.IsJSON() {
		return a.out.Success(msgs)
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out.Writer, "No messages yet.")
		return nil
	}
	for _, m := range msgs {
		printMessage(a.out.Writer, m)
	}
	return nil
}

func runChatWatch(opts *ChatOptions, cmd *cobra.Command) error {
	a := newApp(opts.RootOptions, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- a.sync.Run(ctx) }()
	defer func() {
		stop()
		<-done
	}()

	sub := datasync.Subscribe(a.sync, datasync.Messages(a.client, opts.limit()))
	defer sub.Close()

	enc := json.NewEncoder(a.out.Writer)
	var last int64
	var lastErr error
	for {
		snap := sub.Snapshot()
		if snap.Err != nil && snap.Err != lastErr {
			a.opts.Logger.Warn("failed to refresh messages", "error", snap.Err)
		}
		lastErr = snap.Err

		for _, m := range snap.Items {
			if m.Timestamp <= last {
				continue
			}
			last = m.Timestamp
			if a.out.IsJSON() {
				if err := enc.Encode(m); err != nil {
					return err
				}
			} else {
				printMessage(a.out.Writer, m)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-sub.Changes():
		}
	}
}

func runChatSend(opts *ChatOptions, text string, cmd *cobra.Command) error {
	a := newApp(opts.RootOptions, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	name := opts.Config.DisplayName
	if name == "" && !opts.Config.PrincipalID().IsAnonymous() {
		profile, err := a.client.GetCallerUserProfile(ctx)
		if err != nil {
			return commandError("load profile", err)
		}
		if profile != nil {
			name = profile.Name
		}
	}

	composer := compose.NewMessageComposer(a.mut, name)
	composer.SetDraft(text)
	if err := composer.Submit(ctx); err != nil {
		return commandError("send message", err)
	}

	if a.out.IsJSON() {
		return a.out.Success(map[string]bool{"sent": true})
	}
	fmt.Fprintln(a.out.Writer, "Message sent.")
	return nil
}

func printMessage(w io.Writer, m model.Message) {
	fmt.Fprintf(w, "[%s] %s: %s\n", m.Time().UTC().Format(time.DateTime), m.AuthorName(), m.Content)
}
