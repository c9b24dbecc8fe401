package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/sqlquest/internal/tutor"
	"github.com/leapstack-labs/sqlquest/pkg/core"
	"github.com/spf13/cobra"
)

// ErrChallengeFailed is returned by check when the submission does not
// match the reference, so the process exits non-zero.
var ErrChallengeFailed = errors.New("challenge not solved")

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Input string
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check <lesson> <challenge> [sql]",
		Short: "Grade a SQL submission against a challenge",
		Long: `Seed a fresh sandbox from the lesson, run the submission and compare it
with the challenge's reference solution.

The SQL is read from the third argument, from --input, or from stdin when
--input is "-". Exits with status 1 when the submission does not match.`,
		Example: `  sqlquest check select-basics all-books "SELECT * FROM books;"
  sqlquest check select-basics all-books --input answer.sql
  echo "SELECT * FROM books;" | sqlquest check select-basics all-books --input -`,
		Args:              cobra.RangeArgs(2, 3),
		ValidArgsFunction: completeLessonIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the submission from a file (- for stdin)")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	submission, err := readSubmission(cmd, args, opts)
	if err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	l, err := cmdCtx.Catalog.Get(args[0])
	if err != nil {
		return err
	}

	t := cmdCtx.NewTutor()
	defer t.Dispose()

	ctx := cmd.Context()
	if err := t.StartLesson(ctx, l); err != nil {
		return err
	}
	if !seekChallenge(t, args[1]) {
		return fmt.Errorf("lesson %s has no challenge %q", l.ID, args[1])
	}

	verdict, err := t.Submit(ctx, submission)
	if err != nil {
		return err
	}
	if err := renderVerdict(cmdCtx.Renderer, verdict); err != nil {
		return err
	}
	if !verdict.Passed {
		return fmt.Errorf("%w: %s", ErrChallengeFailed, verdict.ChallengeID)
	}
	return nil
}

func readSubmission(cmd *cobra.Command, args []string, opts *CheckOptions) (string, error) {
	if len(args) == 3 {
		if opts.Input != "" {
			return "", fmt.Errorf("pass the SQL as an argument or with --input, not both")
		}
		return args[2], nil
	}

	var data []byte
	var err error
	switch opts.Input {
	case "":
		return "", fmt.Errorf("no SQL given: pass it as the third argument or with --input")
	case "-":
		data, err = io.ReadAll(cmd.InOrStdin())
	default:
		data, err = os.ReadFile(opts.Input)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read submission: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("submission is empty")
	}
	return string(data), nil
}

// seekChallenge moves t to the practice phase and to the challenge with id.
func seekChallenge(t *tutor.Tutor, id string) bool {
	l := t.Lesson()
	if l == nil {
		return false
	}
	idx := -1
	for i, c := range l.Challenges() {
		if c.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}

	t.GoToPhase(string(core.AssessmentPhase))
	for t.Phases().ChallengeIndex() < idx {
		t.NextChallenge()
	}
	c, ok := t.CurrentChallenge()
	return ok && c.ID == id
}
