package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/guff/internal/compose"
)

// NewProfileCommand creates the profile command group.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or set your display name",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileShow(rootOpts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <name>...",
		Short: "Set your display name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfileSet(rootOpts, strings.Join(args, " "), cmd)
		},
	})

	return cmd
}

func runProfileShow(opts *RootOptions, cmd *cobra.Command) error {
	a := newApp(opts, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	profile, err := a.client.GetCallerUserProfile(ctx)
	if err != nil {
		return commandError("load profile", err)
	}
	if profile == nil {
		if a.out.IsJSON() {
			return a.out.Success(nil)
		}
		fmt.Fprintln(a.out.Writer, "No profile set. Run \"guff profile set <name>\".")
		return nil
	}
	if a.out.IsJSON() {
		return a.out.Success(profile)
	}
	fmt.Fprintf(a.out.Writer, "Name: %s\n", profile.Name)
	return nil
}

func runProfileSet(opts *RootOptions, name string, cmd *cobra.Command) error {
	a := newApp(opts, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	profile, err := compose.SetupProfile(ctx, a.client, name)
	if err != nil {
		return commandError("save profile", err)
	}
	if a.out.IsJSON() {
		return a.out.Success(profile)
	}
	fmt.Fprintf(a.out.Writer, "Profile saved as %q.\n", profile.Name)
	return nil
}
