// Package tutor is the entry point UI layers drive. It composes one learner
// sandbox, the challenge validator, the lesson phase controller and an
// optional attempt journal, and keeps a schema snapshot that is recomputed
// after every statement.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqlquest/internal/journal"
	"github.com/leapstack-labs/sqlquest/internal/phase"
	"github.com/leapstack-labs/sqlquest/internal/sandbox"
	"github.com/leapstack-labs/sqlquest/internal/validator"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// Errors returned by lesson operations.
var (
	ErrNoLesson      = errors.New("no lesson started")
	ErrNoChallenge   = errors.New("lesson has no challenges")
	ErrNoQuestion    = errors.New("quiz question out of range")
	ErrInvalidOption = errors.New("quiz option out of range")
)

// Options configures a Tutor.
type Options struct {
	// Engine is the sandbox engine name (default "sqlite").
	Engine string
	// Params are engine-specific settings.
	Params map[string]any
	// Journal records attempts when set. The Tutor does not close it.
	Journal *journal.Store
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Snapshot is the observable state of a Tutor.
type Snapshot struct {
	Phase       phase.State      `json:"phase"`
	Initialized bool             `json:"initialized"`
	Schema      []core.TableInfo `json:"schema"`
	Solved      map[string]bool  `json:"solved,omitempty"`
	HintsShown  map[string]int   `json:"hints_shown,omitempty"`
	QuizAnswers map[int]int      `json:"quiz_answers,omitempty"`
	LastVerdict *core.Verdict    `json:"last_verdict,omitempty"`
}

// Tutor owns one learner session.
type Tutor struct {
	mu sync.Mutex

	sandbox   *sandbox.Session
	validator *validator.Validator
	phases    *phase.Controller
	journal   *journal.Store
	logger    *slog.Logger

	baseline    string
	schema      []core.TableInfo
	solved      map[string]bool
	hints       map[string]int
	quiz        map[int]int
	lastVerdict *core.Verdict

	subs    map[int]func(Snapshot)
	nextSub int
}

// New creates a tutor with an uninitialized sandbox and no lesson.
func New(opts Options) *Tutor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sb := sandbox.New(sandbox.Options{Engine: opts.Engine, Params: opts.Params, Logger: logger})
	t := &Tutor{
		sandbox:   sb,
		validator: validator.New(sb, logger),
		phases:    phase.New(nil, logger),
		journal:   opts.Journal,
		logger:    logger.With("session", sb.ID()[:8]),
		schema:    []core.TableInfo{},
		subs:      make(map[int]func(Snapshot)),
	}
	t.resetProgressLocked()
	t.phases.Subscribe(func(phase.State) { t.notify() })
	return t
}

// SessionID identifies this learner session.
func (t *Tutor) SessionID() string { return t.sandbox.ID() }

// Engine returns the sandbox engine name.
func (t *Tutor) Engine() string { return t.sandbox.Engine() }

// Phases exposes the phase controller for read access.
func (t *Tutor) Phases() *phase.Controller { return t.phases }

// Lesson returns the current lesson, or nil.
func (t *Tutor) Lesson() *core.Lesson { return t.phases.Lesson() }

// =============================================================================
// Sandbox operations
// =============================================================================

// InitializeDatabase creates a fresh sandbox seeded with seed. The seed
// becomes the baseline that challenges restore to. A discarded
// initialization leaves the baseline and schema snapshot untouched.
func (t *Tutor) InitializeDatabase(ctx context.Context, seed string) error {
	err := t.sandbox.Initialize(ctx, seed)
	if errors.Is(err, core.ErrInitializeDiscarded) {
		t.logger.Debug("initialization discarded", "error", err)
		return err
	}

	var seedErr *core.SeedError
	if err == nil || errors.As(err, &seedErr) {
		t.mu.Lock()
		t.baseline = seed
		t.mu.Unlock()
	}
	t.refresh(ctx)
	return err
}

// ExecuteQuery runs learner SQL in the sandbox.
func (t *Tutor) ExecuteQuery(ctx context.Context, sqlText string) core.QueryResult {
	res := t.sandbox.ExecuteQuery(ctx, sqlText)
	t.refresh(ctx)
	return res
}

// SetupSchema installs SQL in the sandbox with ExecuteQuery semantics.
func (t *Tutor) SetupSchema(ctx context.Context, sqlText string) core.QueryResult {
	res := t.sandbox.SetupSchema(ctx, sqlText)
	t.refresh(ctx)
	return res
}

// GetSchema returns the schema snapshot taken after the last operation.
func (t *Tutor) GetSchema() []core.TableInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.TableInfo(nil), t.schema...)
}

// ResetDatabase discards the sandbox. InitializeDatabase or StartLesson is
// required before executing again.
func (t *Tutor) ResetDatabase() {
	t.sandbox.Reset()
	t.refresh(context.Background())
}

// RestoreBaseline re-creates the sandbox from the current baseline.
func (t *Tutor) RestoreBaseline(ctx context.Context) error {
	t.mu.Lock()
	seed := t.baseline
	t.mu.Unlock()
	return t.InitializeDatabase(ctx, seed)
}

// Dispose releases the sandbox for good.
func (t *Tutor) Dispose() {
	t.sandbox.Dispose()
	t.mu.Lock()
	t.schema = []core.TableInfo{}
	t.mu.Unlock()
}

// refresh recomputes the schema snapshot and notifies subscribers.
func (t *Tutor) refresh(ctx context.Context) {
	tables, err := t.sandbox.GetSchema(ctx)
	if err != nil {
		t.logger.Warn("failed to refresh schema", "error", err)
		tables = []core.TableInfo{}
	}
	t.mu.Lock()
	t.schema = tables
	t.mu.Unlock()
	t.notify()
}

// =============================================================================
// Phase operations
// =============================================================================

// NextPhase advances one phase.
func (t *Tutor) NextPhase() { t.phases.NextPhase() }

// PrevPhase goes back one phase.
func (t *Tutor) PrevPhase() { t.phases.PrevPhase() }

// GoToPhase jumps to a named phase; unknown names are ignored.
func (t *Tutor) GoToPhase(name string) bool { return t.phases.GoToPhase(name) }

// NextChallenge advances to the next challenge.
func (t *Tutor) NextChallenge() { t.phases.NextChallenge() }

// ResetLesson rewinds to the first phase and challenge and forgets hints
// and quiz answers. The sandbox is left as is.
func (t *Tutor) ResetLesson() {
	t.mu.Lock()
	t.resetProgressLocked()
	t.mu.Unlock()
	t.phases.ResetLesson()
	t.notify()
}

// =============================================================================
// Lesson operations
// =============================================================================

// StartLesson loads lesson, rewinds the controller and seeds a fresh
// sandbox from the lesson's seed.
func (t *Tutor) StartLesson(ctx context.Context, lesson *core.Lesson) error {
	if lesson == nil {
		return ErrNoLesson
	}
	t.logger.Info("starting lesson", "lesson", lesson.ID)

	t.mu.Lock()
	t.resetProgressLocked()
	t.mu.Unlock()
	t.phases.SetLesson(lesson)

	if err := t.InitializeDatabase(ctx, lesson.Seed); err != nil {
		return fmt.Errorf("failed to start lesson %s: %w", lesson.ID, err)
	}
	return nil
}

// CurrentChallenge returns the challenge the learner is on.
func (t *Tutor) CurrentChallenge() (core.Challenge, bool) {
	return t.phases.CurrentChallenge()
}

// Submit grades sql against the current challenge. A failed verdict is not
// an error; errors mean there is nothing to grade against.
func (t *Tutor) Submit(ctx context.Context, sqlText string) (core.Verdict, error) {
	lesson := t.phases.Lesson()
	if lesson == nil {
		return core.Verdict{}, ErrNoLesson
	}
	challenge, ok := t.phases.CurrentChallenge()
	if !ok {
		return core.Verdict{}, ErrNoChallenge
	}

	t.mu.Lock()
	baseline := t.baseline
	t.mu.Unlock()

	verdict := t.validator.Validate(ctx, baseline, challenge, sqlText)

	t.mu.Lock()
	if verdict.Passed {
		t.solved[challenge.ID] = true
	}
	t.lastVerdict = &verdict
	t.mu.Unlock()

	t.record(ctx, lesson.ID, sqlText, verdict)
	t.refresh(ctx)
	return verdict, nil
}

func (t *Tutor) record(ctx context.Context, lessonID, sqlText string, v core.Verdict) {
	if t.journal == nil {
		return
	}
	a := &journal.Attempt{
		SessionID:   t.SessionID(),
		LessonID:    lessonID,
		ChallengeID: v.ChallengeID,
		SQL:         sqlText,
		Passed:      v.Passed,
	}
	if v.Mismatch != nil {
		a.MismatchKind = string(v.Mismatch.Kind)
		a.MismatchDetail = v.Mismatch.Detail
	}
	if err := t.journal.RecordAttempt(ctx, a); err != nil {
		t.logger.Warn("failed to record attempt", "error", err)
	}
}

// NextHint reveals the next hint of the current challenge. It returns false
// once every hint has been shown.
func (t *Tutor) NextHint() (string, bool) {
	challenge, ok := t.phases.CurrentChallenge()
	if !ok {
		return "", false
	}

	t.mu.Lock()
	shown := t.hints[challenge.ID]
	if shown >= len(challenge.Hints) {
		t.mu.Unlock()
		return "", false
	}
	t.hints[challenge.ID] = shown + 1
	t.mu.Unlock()

	t.notify()
	return challenge.Hints[shown], true
}

// AnswerQuiz records the chosen option for a quiz question and reports
// whether it is correct.
func (t *Tutor) AnswerQuiz(ctx context.Context, question, option int) (bool, error) {
	lesson := t.phases.Lesson()
	if lesson == nil {
		return false, ErrNoLesson
	}
	questions := lesson.Questions()
	if question < 0 || question >= len(questions) {
		return false, fmt.Errorf("%w: %d", ErrNoQuestion, question)
	}
	q := questions[question]
	if option < 0 || option >= len(q.Options) {
		return false, fmt.Errorf("%w: %d", ErrInvalidOption, option)
	}
	correct := option == q.Answer

	t.mu.Lock()
	t.quiz[question] = option
	t.mu.Unlock()

	if t.journal != nil {
		err := t.journal.RecordQuizAnswer(ctx, &journal.QuizAnswer{
			SessionID: t.SessionID(),
			LessonID:  lesson.ID,
			Question:  question,
			Chosen:    option,
			Correct:   correct,
		})
		if err != nil {
			t.logger.Warn("failed to record quiz answer", "error", err)
		}
	}

	t.notify()
	return correct, nil
}

func (t *Tutor) resetProgressLocked() {
	t.solved = make(map[string]bool)
	t.hints = make(map[string]int)
	t.quiz = make(map[int]int)
	t.lastVerdict = nil
}

// =============================================================================
// Observation
// =============================================================================

// Snapshot returns the current observable state.
func (t *Tutor) Snapshot() Snapshot {
	st := t.phases.State()
	initialized := t.sandbox.Initialized()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked(st, initialized)
}

func (t *Tutor) snapshotLocked(st phase.State, initialized bool) Snapshot {
	s := Snapshot{
		Phase:       st,
		Initialized: initialized,
		Schema:      append([]core.TableInfo(nil), t.schema...),
		Solved:      make(map[string]bool, len(t.solved)),
		HintsShown:  make(map[string]int, len(t.hints)),
		QuizAnswers: make(map[int]int, len(t.quiz)),
	}
	for k, v := range t.solved {
		s.Solved[k] = v
	}
	for k, v := range t.hints {
		s.HintsShown[k] = v
	}
	for k, v := range t.quiz {
		s.QuizAnswers[k] = v
	}
	if t.lastVerdict != nil {
		v := *t.lastVerdict
		s.LastVerdict = &v
	}
	return s
}

// Subscribe registers fn to receive a snapshot after every operation. The
// returned function unregisters it.
func (t *Tutor) Subscribe(fn func(Snapshot)) (cancel func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs, id)
	}
}

func (t *Tutor) notify() {
	st := t.phases.State()
	initialized := t.sandbox.Initialized()

	t.mu.Lock()
	if len(t.subs) == 0 {
		t.mu.Unlock()
		return
	}
	snap := t.snapshotLocked(st, initialized)
	subs := make([]func(Snapshot), 0, len(t.subs))
	for _, fn := range t.subs {
		subs = append(subs, fn)
	}
	t.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
