package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/guff/internal/harness"
)

// NewVoiceCommand creates the voice command group.
func NewVoiceCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Exercise the speech capture and playback engines",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "replay <scenario.yaml|dir>",
		Short: "Replay scripted speech scenarios",
		Long: `Drive the capture or playback engine through scripted scenarios
against a simulated speech platform and print the resulting trace.

The argument is a scenario file or a directory of *.yaml scenarios.
Exits with status 1 when any scenario fails its expectations.

Examples:
  guff voice replay internal/harness/testdata/scenarios
  guff voice replay capture_dictation.yaml --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVoiceReplay(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func loadScenarios(path string) ([]*harness.Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return harness.LoadScenarioDir(path)
	}
	s, err := harness.LoadScenario(path)
	if err != nil {
		return nil, err
	}
	return []*harness.Scenario{s}, nil
}

func runVoiceReplay(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenarios, err := loadScenarios(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenarios", err)
	}
	if len(scenarios) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no scenarios found in %s", path))
	}

	var hopts []harness.Option
	if opts.Verbose {
		hopts = append(hopts, harness.WithLogger(opts.Logger))
	}
	h := harness.New(hopts...)

	ctx, stop := commandContext(cmd)
	defer stop()

	results := make([]*harness.Result, 0, len(scenarios))
	failed := 0
	for _, s := range scenarios {
		out.VerboseLog("replaying %s", s.Name)
		res, err := h.Run(ctx, s)
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("scenario %s", s.Name), err)
		}
		if !res.Pass {
			failed++
		}
		results = append(results, res)
	}

	if out.IsJSON() {
		if err := out.Success(results); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			fmt.Fprint(out.Writer, res.Render())
			for _, e := range res.Errors {
				fmt.Fprintf(out.Writer, "FAIL: %s\n", e)
			}
			fmt.Fprintln(out.Writer)
		}
		fmt.Fprintf(out.Writer, "%d/%d scenarios passed\n", len(results)-failed, len(results))
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenarios failed", failed, len(results)))
	}
	return nil
}
