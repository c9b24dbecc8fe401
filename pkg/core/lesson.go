package core

// =============================================================================
// Lesson content
// =============================================================================

// Difficulty grades a lesson.
type Difficulty string

// Difficulty levels.
const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Lesson is immutable instructional content loaded from static files.
type Lesson struct {
	ID          string                  `yaml:"id" json:"id"`
	Title       string                  `yaml:"title" json:"title"`
	Description string                  `yaml:"description" json:"description"`
	Difficulty  Difficulty              `yaml:"difficulty" json:"difficulty,omitempty"`
	Order       int                     `yaml:"order" json:"order,omitempty"`
	Seed        string                  `yaml:"seed" json:"seed"`
	Phases      map[Phase]*PhaseContent `yaml:"phases" json:"phases"`

	// Source is the file the lesson was loaded from (empty for built-ins).
	Source string `yaml:"-" json:"source,omitempty"`
}

// PhaseContent is the content shown while a lesson is in one phase.
type PhaseContent struct {
	Content    string            `yaml:"content" json:"content,omitempty"`
	Examples   []Example         `yaml:"examples" json:"examples,omitempty"`
	Challenges []Challenge       `yaml:"challenges" json:"challenges,omitempty"`
	Questions  []QuizQuestion    `yaml:"questions" json:"questions,omitempty"`
	Entries    []CheatsheetEntry `yaml:"entries" json:"entries,omitempty"`
}

// Example is a worked query shown in the learn phase.
type Example struct {
	Title string `yaml:"title" json:"title"`
	SQL   string `yaml:"sql" json:"sql"`
}

// QuizQuestion is a multiple-choice question graded without the sandbox.
type QuizQuestion struct {
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Options     []string `yaml:"options" json:"options"`
	Answer      int      `yaml:"answer" json:"answer"`
	Explanation string   `yaml:"explanation" json:"explanation,omitempty"`
}

// CheatsheetEntry is one syntax reminder.
type CheatsheetEntry struct {
	Syntax      string `yaml:"syntax" json:"syntax"`
	Description string `yaml:"description" json:"description"`
}

// Phase returns the content for p, or nil when the lesson has none.
func (l *Lesson) Phase(p Phase) *PhaseContent {
	if l == nil || l.Phases == nil {
		return nil
	}
	return l.Phases[p]
}

// Challenges returns the ordered challenges of the assessment phase.
func (l *Lesson) Challenges() []Challenge {
	if pc := l.Phase(AssessmentPhase); pc != nil {
		return pc.Challenges
	}
	return nil
}

// Questions returns the quiz questions.
func (l *Lesson) Questions() []QuizQuestion {
	if pc := l.Phase(PhaseQuiz); pc != nil {
		return pc.Questions
	}
	return nil
}

// =============================================================================
// Challenges
// =============================================================================

// ChallengeKind selects how a submission is evaluated.
type ChallengeKind string

// Challenge kinds.
const (
	// ChallengeQuery compares the submission's result set with the reference's.
	ChallengeQuery ChallengeKind = "query"
	// ChallengeMutation compares the Check query run after the statement.
	ChallengeMutation ChallengeKind = "mutation"
	// ChallengeSchema compares schema snapshots taken after the statement.
	ChallengeSchema ChallengeKind = "schema"
)

// RowOrder declares whether row order is significant when comparing.
type RowOrder string

// Row orders.
const (
	OrderOrdered   RowOrder = "ordered"
	OrderUnordered RowOrder = "unordered"
)

// Challenge is one graded exercise of the assessment phase.
type Challenge struct {
	ID               string        `yaml:"id" json:"id"`
	Prompt           string        `yaml:"prompt" json:"prompt"`
	Reference        string        `yaml:"reference" json:"reference"`
	Setup            string        `yaml:"setup" json:"setup,omitempty"`
	Kind             ChallengeKind `yaml:"kind" json:"kind,omitempty"`
	Check            string        `yaml:"check" json:"check,omitempty"`
	Order            RowOrder      `yaml:"order" json:"order,omitempty"`
	MatchColumnNames bool          `yaml:"match_column_names" json:"match_column_names,omitempty"`
	Hints            []string      `yaml:"hints" json:"hints,omitempty"`
}

// EffectiveKind returns the declared kind, defaulting to ChallengeQuery.
func (c Challenge) EffectiveKind() ChallengeKind {
	if c.Kind == "" {
		return ChallengeQuery
	}
	return c.Kind
}

// Ordered reports whether row order is significant (the default).
func (c Challenge) Ordered() bool {
	return c.Order != OrderUnordered
}
