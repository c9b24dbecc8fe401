package commands

import (
	"fmt"

	"github.com/leapstack-labs/sqlquest/internal/cli/output"
	"github.com/leapstack-labs/sqlquest/pkg/core"
	"github.com/spf13/cobra"
)

// ShowOptions holds options for the show command.
type ShowOptions struct {
	Phase string
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	opts := &ShowOptions{}

	cmd := &cobra.Command{
		Use:   "show <lesson>",
		Short: "Print a lesson's content",
		Long: `Print the content of every phase of a lesson, or of a single phase
with --phase. Phases are: intro, learn, practice, quiz, cheatsheet.`,
		Example: `  # Whole lesson
  sqlquest show select-basics

  # Only the cheatsheet
  sqlquest show select-basics --phase cheatsheet`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeLessonIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Phase, "phase", "p", "", "Only print this phase")
	_ = cmd.RegisterFlagCompletionFunc("phase", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return phaseNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runShow(cmd *cobra.Command, lessonID string, opts *ShowOptions) error {
	cmdCtx, err := NewCommandContextWithoutJournal(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	l, err := cmdCtx.Catalog.Get(lessonID)
	if err != nil {
		return err
	}

	if opts.Phase != "" {
		p, ok := core.ParsePhase(opts.Phase)
		if !ok {
			return fmt.Errorf("unknown phase %q (valid: %v)", opts.Phase, phaseNames())
		}
		return renderPhase(r, l, p, -1)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(l)
	}

	r.Header(1, l.Title)
	if l.Description != "" {
		r.Println(l.Description)
		r.Println()
	}
	for _, p := range core.Phases() {
		if err := renderPhase(r, l, p, -1); err != nil {
			return err
		}
	}
	return nil
}

func phaseNames() []string {
	phases := core.Phases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p)
	}
	return names
}

// completeLessonIDs offers catalog lesson ids for the first argument.
func completeLessonIDs(cmd *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	cmdCtx, err := NewCommandContextWithoutJournal(cmd)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, l := range cmdCtx.Catalog.List() {
		ids = append(ids, l.ID+"\t"+l.Title)
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
