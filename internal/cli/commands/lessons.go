package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sqlquest/internal/cli/output"
	"github.com/spf13/cobra"
)

// lessonItem is one row of the lessons listing.
type lessonItem struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty,omitempty"`
	Challenges int    `json:"challenges"`
	Questions  int    `json:"questions"`
	Solved     int    `json:"solved"`
	Attempts   int    `json:"attempts"`
	Source     string `json:"source,omitempty"`
}

// NewLessonsCommand creates the lessons command.
func NewLessonsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "lessons",
		Aliases: []string{"ls"},
		Short:   "List available lessons",
		Long: `List the built-in lessons plus any found in the lessons directory,
with your progress from the attempt journal.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format

Use --output to override: auto, text, markdown, json`,
		Example: `  # List lessons
  sqlquest lessons

  # As JSON
  sqlquest lessons -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLessons(cmd)
		},
	}
}

func runLessons(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	lessons := cmdCtx.Catalog.List()

	items := make([]lessonItem, 0, len(lessons))
	for _, l := range lessons {
		stats, err := cmdCtx.Journal.Stats(cmd.Context(), l.ID)
		if err != nil {
			return fmt.Errorf("failed to read progress for %s: %w", l.ID, err)
		}
		items = append(items, lessonItem{
			ID:         l.ID,
			Title:      l.Title,
			Difficulty: string(l.Difficulty),
			Challenges: len(l.Challenges()),
			Questions:  len(l.Questions()),
			Solved:     stats.SolvedChallenges,
			Attempts:   stats.Attempts,
			Source:     l.Source,
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(items)
	}

	r.Header(1, fmt.Sprintf("Lessons (%d total)", len(items)))
	rows := make([][]string, len(items))
	for i, it := range items {
		rows[i] = []string{
			it.ID,
			it.Title,
			it.Difficulty,
			fmt.Sprintf("%d/%d", it.Solved, it.Challenges),
			strconv.Itoa(it.Attempts),
		}
	}
	r.Table([]string{"id", "title", "level", "solved", "attempts"}, rows)
	return nil
}
