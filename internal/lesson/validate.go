package lesson

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// ValidationError lists every problem found in one lesson.
type ValidationError struct {
	LessonID string
	Problems []string
}

func (e *ValidationError) Error() string {
	id := e.LessonID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("lesson %s is invalid:\n  - %s", id, strings.Join(e.Problems, "\n  - "))
}

// Validate checks a lesson's structure. SQL is not executed.
func Validate(l *core.Lesson) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(l.ID) == "" {
		add("id is required")
	}
	if strings.TrimSpace(l.Title) == "" {
		add("title is required")
	}
	switch l.Difficulty {
	case "", core.DifficultyBeginner, core.DifficultyIntermediate, core.DifficultyAdvanced:
	default:
		add("unknown difficulty %q", l.Difficulty)
	}

	for p := range l.Phases {
		if !p.Valid() {
			add("unknown phase %q", p)
		}
	}

	seen := make(map[string]bool)
	for i, c := range l.Challenges() {
		label := c.ID
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			add("challenge %s: id is required", label)
		} else if seen[c.ID] {
			add("challenge %s: duplicate id", label)
		}
		seen[c.ID] = true

		if strings.TrimSpace(c.Reference) == "" {
			add("challenge %s: reference is required", label)
		}
		switch c.EffectiveKind() {
		case core.ChallengeQuery, core.ChallengeSchema:
		case core.ChallengeMutation:
			if strings.TrimSpace(c.Check) == "" {
				add("challenge %s: mutation challenges need a check query", label)
			}
		default:
			add("challenge %s: unknown kind %q", label, c.Kind)
		}
		switch c.Order {
		case "", core.OrderOrdered, core.OrderUnordered:
		default:
			add("challenge %s: unknown order %q", label, c.Order)
		}
	}

	for i, q := range l.Questions() {
		if strings.TrimSpace(q.Prompt) == "" {
			add("question %d: prompt is required", i+1)
		}
		if len(q.Options) < 2 {
			add("question %d: needs at least two options", i+1)
		}
		if q.Answer < 0 || q.Answer >= len(q.Options) {
			add("question %d: answer %d out of range", i+1, q.Answer)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{LessonID: l.ID, Problems: problems}
}
