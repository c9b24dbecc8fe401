package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlquest/internal/cli/output"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// phaseView is the JSON shape of one rendered phase.
type phaseView struct {
	Lesson  string             `json:"lesson"`
	Phase   core.Phase         `json:"phase"`
	Content *core.PhaseContent `json:"content"`
}

// renderPhase writes the content of one lesson phase. current is the
// zero-based index of the highlighted challenge, or -1.
func renderPhase(r *output.Renderer, l *core.Lesson, p core.Phase, current int) error {
	pc := l.Phase(p)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(phaseView{Lesson: l.ID, Phase: p, Content: pc})
	}

	r.Header(2, fmt.Sprintf("%s: %s", l.Title, output.PhaseTitle(p)))
	if pc == nil {
		r.Println(r.Muted("(nothing in this phase)"))
		return nil
	}

	if text := strings.TrimSpace(pc.Content); text != "" {
		r.Println(text)
		r.Println()
	}
	for _, ex := range pc.Examples {
		renderSQL(r, ex.Title, ex.SQL)
	}
	for i, c := range pc.Challenges {
		renderChallenge(r, i, len(pc.Challenges), c, i == current)
	}
	for i, q := range pc.Questions {
		renderQuestion(r, i, q)
	}
	if len(pc.Entries) > 0 {
		rows := make([][]string, len(pc.Entries))
		for i, e := range pc.Entries {
			rows[i] = []string{e.Syntax, e.Description}
		}
		r.Table([]string{"syntax", "meaning"}, rows)
	}
	return nil
}

func renderSQL(r *output.Renderer, title, sqlText string) {
	if r.EffectiveMode() == output.ModeMarkdown {
		if title != "" {
			r.Println(output.FormatKeyValue("Example", title))
			r.Println()
		}
		r.Println(output.FormatCodeBlock("sql", sqlText))
		r.Println()
		return
	}

	styles := r.Styles()
	if title != "" {
		r.Println(styles.Bold.Render(title))
	}
	for _, line := range strings.Split(strings.TrimRight(sqlText, "\n"), "\n") {
		r.Println("  " + styles.Code.Render(line))
	}
	r.Println()
}

func renderChallenge(r *output.Renderer, i, total int, c core.Challenge, current bool) {
	label := fmt.Sprintf("Challenge %d/%d (%s)", i+1, total, c.ID)
	if current {
		label += " <- current"
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatBold(label))
	} else {
		r.Println(r.Styles().Bold.Render(label))
	}
	r.Println(strings.TrimSpace(c.Prompt))
	r.Println()
}

func renderQuestion(r *output.Renderer, i int, q core.QuizQuestion) {
	prompt := fmt.Sprintf("Q%d. %s", i+1, strings.TrimSpace(q.Prompt))
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatBold(prompt))
		r.Println()
		for j, opt := range q.Options {
			r.Printf("%d. %s\n", j+1, opt)
		}
	} else {
		r.Println(r.Styles().Bold.Render(prompt))
		for j, opt := range q.Options {
			r.Printf("  %d) %s\n", j+1, opt)
		}
	}
	r.Println()
}

// renderVerdict writes the outcome of a graded submission.
func renderVerdict(r *output.Renderer, v core.Verdict) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(v)
	}
	if v.Passed {
		r.Success(fmt.Sprintf("Correct! %s solved", v.ChallengeID))
		return nil
	}

	m := v.Mismatch
	if m == nil {
		r.Error("Not quite")
		return nil
	}
	r.Error(fmt.Sprintf("Not quite (%s): %s", m.Kind, m.Detail))
	if m.Kind == core.MismatchLearnerError || m.Kind == core.MismatchReferenceError {
		return nil
	}

	r.Header(3, "Your result")
	if err := r.Result(v.Learner); err != nil {
		return err
	}
	r.Header(3, "Expected")
	return r.Result(v.Reference)
}
