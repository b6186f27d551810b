package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/guff/internal/compose"
	"github.com/roach88/guff/internal/datasync"
	"github.com/roach88/guff/internal/model"
)

// NewQACommand creates the qa command group.
func NewQACommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Manage your private questions and answers",
		Long: `Questions are private to the principal that asked them. Only the
asker can list them or record an answer.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your questions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQAList(rootOpts, cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "ask <text>...",
		Short: "Ask a new question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQAAsk(rootOpts, strings.Join(args, " "), cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "answer <id> <text>...",
		Short: "Record or replace the answer to a question",
		Long: `Record or replace the answer to one of your questions.

Examples:
  guff qa answer 3 "Kathmandu"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return WrapExitError(ExitCommandError, fmt.Sprintf("invalid question id %q", args[0]), err)
			}
			return runQAAnswer(rootOpts, model.QuestionID(id), strings.Join(args[1:], " "), cmd)
		},
	})

	return cmd
}

func loadQuestions(a *app, cmd *cobra.Command) ([]model.Question, error) {
	ctx, stop := commandContext(cmd)
	defer stop()

	sub := datasync.Subscribe(a.sync, datasync.Questions(a.client, a.opts.Config.FetchLimit))
	defer sub.Close()

	if err := sub.Wait(ctx); err != nil {
		return nil, commandError("load questions", err)
	}
	return sub.Snapshot().Items, nil
}

func runQAList(opts *RootOptions, cmd *cobra.Command) error {
	a := newApp(opts, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	questions, err := loadQuestions(a, cmd)
	if err != nil {
		return err
	}

	if a.out.IsJSON() {
		return a.out.Success(questions)
	}
	if len(questions) == 0 {
		fmt.Fprintln(a.out.Writer, "No questions yet.")
		return nil
	}
	for _, q := range questions {
		fmt.Fprintf(a.out.Writer, "#%d [%s] %s\n", q.ID, q.Created().UTC().Format(time.DateTime), q.Content)
		if q.HasAnswer() {
			fmt.Fprintf(a.out.Writer, "    -> %s\n", *q.Answer)
		}
	}
	return nil
}

func runQAAsk(opts *RootOptions, text string, cmd *cobra.Command) error {
	a := newApp(opts, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	ctx, stop := commandContext(cmd)
	defer stop()

	composer := compose.NewQuestionComposer(a.mut)
	composer.SetDraft(text)
	id, err := composer.Submit(ctx)
	if err != nil {
		return commandError("ask question", err)
	}

	if a.out.IsJSON() {
		return a.out.Success(map[string]model.QuestionID{"id": id})
	}
	fmt.Fprintf(a.out.Writer, "Question #%d created.\n", id)
	return nil
}

func runQAAnswer(opts *RootOptions, id model.QuestionID, text string, cmd *cobra.Command) error {
	a := newApp(opts, cmd)
	if err := a.requireClient(); err != nil {
		return err
	}
	questions, err := loadQuestions(a, cmd)
	if err != nil {
		return err
	}

	var target *model.Question
	for i := range questions {
		if questions[i].ID == id {
			target = &questions[i]
			break
		}
	}
	if target == nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("question #%d", id), errNotFound)
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	editor := compose.NewAnswerEditor(a.mut, *target)
	editor.SetText(text)
	if err := editor.Save(ctx); err != nil {
		return commandError("save answer", err)
	}

	if a.out.IsJSON() {
		return a.out.Success(map[string]any{"id": id, "answered": true})
	}
	fmt.Fprintf(a.out.Writer, "Answer to #%d saved.\n", id)
	return nil
}
