package tutor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlquest/internal/journal"
	"github.com/leapstack-labs/sqlquest/internal/testutil"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

const seed = `CREATE TABLE t(id INT, name TEXT); INSERT INTO t VALUES (1,'a');`

func testLesson() *core.Lesson {
	return &core.Lesson{
		ID:    "basics",
		Title: "Basics",
		Seed:  seed,
		Phases: map[core.Phase]*core.PhaseContent{
			core.PhaseIntro: {Content: "hello"},
			core.PhasePractice: {Challenges: []core.Challenge{
				{ID: "all", Reference: "SELECT id, name FROM t", Hints: []string{"use *", "SELECT * FROM t"}},
				{ID: "drop", Kind: core.ChallengeSchema, Reference: "DROP TABLE t"},
			}},
			core.PhaseQuiz: {Questions: []core.QuizQuestion{
				{Prompt: "?", Options: []string{"no", "yes"}, Answer: 1},
			}},
		},
	}
}

func newTutor(t *testing.T, store *journal.Store) *Tutor {
	t.Helper()
	tu := New(Options{Logger: testutil.NewTestLogger(t), Journal: store})
	t.Cleanup(tu.Dispose)
	return tu
}

func TestTutor_SchemaRecomputedAfterEveryOperation(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)

	assert.Empty(t, tu.GetSchema())

	require.NoError(t, tu.InitializeDatabase(ctx, seed))
	assert.Equal(t, []string{"t"}, core.TableNames(tu.GetSchema()))

	res := tu.ExecuteQuery(ctx, "CREATE TABLE u(x INT)")
	require.True(t, res.OK, res.Error)
	assert.Equal(t, []string{"t", "u"}, core.TableNames(tu.GetSchema()))

	res = tu.SetupSchema(ctx, "DROP TABLE t")
	require.True(t, res.OK, res.Error)
	assert.Equal(t, []string{"u"}, core.TableNames(tu.GetSchema()))

	tu.ResetDatabase()
	assert.Empty(t, tu.GetSchema())
	assert.False(t, tu.Snapshot().Initialized)

	res = tu.ExecuteQuery(ctx, "SELECT 1")
	assert.False(t, res.OK)
}

func TestTutor_RestoreBaseline(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)

	require.NoError(t, tu.InitializeDatabase(ctx, seed))
	require.True(t, tu.ExecuteQuery(ctx, "DROP TABLE t").OK)
	assert.Empty(t, tu.GetSchema())

	require.NoError(t, tu.RestoreBaseline(ctx))
	assert.Equal(t, []string{"t"}, core.TableNames(tu.GetSchema()))
}

func TestTutor_DiscardedInitializeKeepsState(t *testing.T) {
	tu := newTutor(t, nil)
	require.NoError(t, tu.InitializeDatabase(context.Background(), seed))

	notified := 0
	cancelSub := tu.Subscribe(func(Snapshot) { notified++ })
	defer cancelSub()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tu.InitializeDatabase(ctx, "CREATE TABLE other(x INT)")
	require.ErrorIs(t, err, core.ErrInitializeDiscarded)

	assert.Equal(t, []string{"t"}, core.TableNames(tu.GetSchema()))
	assert.True(t, tu.Snapshot().Initialized)
	assert.Zero(t, notified)

	// The baseline is still the original seed.
	require.NoError(t, tu.RestoreBaseline(context.Background()))
	assert.Equal(t, []string{"t"}, core.TableNames(tu.GetSchema()))
}

func TestTutor_StartLessonAndSubmit(t *testing.T) {
	ctx := context.Background()
	store := journal.NewStore(nil)
	require.NoError(t, store.Open(journal.MemoryPath))
	t.Cleanup(func() { _ = store.Close() })

	tu := newTutor(t, store)
	require.NoError(t, tu.StartLesson(ctx, testLesson()))

	snap := tu.Snapshot()
	assert.Equal(t, "basics", snap.Phase.LessonID)
	assert.Equal(t, core.PhaseIntro, snap.Phase.Phase)
	assert.True(t, snap.Initialized)
	assert.Equal(t, []string{"t"}, core.TableNames(snap.Schema))

	require.True(t, tu.GoToPhase("practice"))

	verdict, err := tu.Submit(ctx, "SELECT name FROM t")
	require.NoError(t, err)
	assert.False(t, verdict.Passed)
	require.NotNil(t, verdict.Mismatch)
	assert.Equal(t, core.MismatchColumnCount, verdict.Mismatch.Kind)

	verdict, err = tu.Submit(ctx, "SELECT * FROM t")
	require.NoError(t, err)
	assert.True(t, verdict.Passed)
	assert.Equal(t, []core.Row{{int64(1), "a"}}, verdict.Learner.Rows)

	tu.NextChallenge()
	verdict, err = tu.Submit(ctx, "DROP TABLE t;")
	require.NoError(t, err)
	assert.True(t, verdict.Passed)
	assert.Empty(t, tu.GetSchema())

	snap = tu.Snapshot()
	assert.Equal(t, map[string]bool{"all": true, "drop": true}, snap.Solved)
	require.NotNil(t, snap.LastVerdict)
	assert.Equal(t, "drop", snap.LastVerdict.ChallengeID)

	attempts, err := store.ListAttempts(ctx, "basics")
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, "column_count", attempts[0].MismatchKind)
	assert.Equal(t, tu.SessionID(), attempts[0].SessionID)

	stats, err := store.Stats(ctx, "basics")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.SolvedChallenges)
}

func TestTutor_SubmitWithoutLesson(t *testing.T) {
	tu := newTutor(t, nil)
	_, err := tu.Submit(context.Background(), "SELECT 1")
	assert.ErrorIs(t, err, ErrNoLesson)
}

func TestTutor_SubmitWithoutChallenges(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)
	require.NoError(t, tu.StartLesson(ctx, &core.Lesson{ID: "empty", Title: "Empty"}))

	_, err := tu.Submit(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrNoChallenge)
}

func TestTutor_StartLessonSeedFailure(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)

	l := testLesson()
	l.Seed = "CREATE TABLE ok(id INT); CREATE TABLE (;"
	err := tu.StartLesson(ctx, l)

	var seedErr *core.SeedError
	require.ErrorAs(t, err, &seedErr)
	assert.Equal(t, []string{"ok"}, core.TableNames(tu.GetSchema()))
}

func TestTutor_NextHint(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)
	require.NoError(t, tu.StartLesson(ctx, testLesson()))

	hint, ok := tu.NextHint()
	assert.True(t, ok)
	assert.Equal(t, "use *", hint)

	hint, ok = tu.NextHint()
	assert.True(t, ok)
	assert.Equal(t, "SELECT * FROM t", hint)

	_, ok = tu.NextHint()
	assert.False(t, ok)
	assert.Equal(t, 2, tu.Snapshot().HintsShown["all"])

	tu.ResetLesson()
	hint, ok = tu.NextHint()
	assert.True(t, ok)
	assert.Equal(t, "use *", hint)
}

func TestTutor_AnswerQuiz(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)

	_, err := tu.AnswerQuiz(ctx, 0, 0)
	assert.ErrorIs(t, err, ErrNoLesson)

	require.NoError(t, tu.StartLesson(ctx, testLesson()))

	tests := []struct {
		name     string
		question int
		option   int
		correct  bool
		err      error
	}{
		{"wrong", 0, 0, false, nil},
		{"right", 0, 1, true, nil},
		{"no such question", 3, 0, false, ErrNoQuestion},
		{"negative question", -1, 0, false, ErrNoQuestion},
		{"no such option", 0, 5, false, ErrInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			correct, err := tu.AnswerQuiz(ctx, tt.question, tt.option)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.correct, correct)
		})
	}

	assert.Equal(t, map[int]int{0: 1}, tu.Snapshot().QuizAnswers)
}

func TestTutor_PhaseNavigation(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)
	require.NoError(t, tu.StartLesson(ctx, testLesson()))

	for i := 0; i < 10; i++ {
		tu.NextPhase()
	}
	assert.Equal(t, 4, tu.Snapshot().Phase.PhaseIndex)

	assert.False(t, tu.GoToPhase("nowhere"))
	assert.Equal(t, core.PhaseCheatsheet, tu.Phases().CurrentPhase())

	tu.GoToPhase("practice")
	tu.PrevPhase()
	assert.Equal(t, core.PhaseLearn, tu.Phases().CurrentPhase())

	tu.NextChallenge()
	tu.NextChallenge()
	ch, ok := tu.CurrentChallenge()
	require.True(t, ok)
	assert.Equal(t, "drop", ch.ID)

	tu.ResetLesson()
	snap := tu.Snapshot()
	assert.Equal(t, 0, snap.Phase.PhaseIndex)
	assert.Equal(t, 0, snap.Phase.ChallengeIndex)
}

func TestTutor_Subscribe(t *testing.T) {
	ctx := context.Background()
	tu := newTutor(t, nil)

	var snaps []Snapshot
	cancel := tu.Subscribe(func(s Snapshot) { snaps = append(snaps, s) })

	require.NoError(t, tu.StartLesson(ctx, testLesson()))
	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.True(t, last.Initialized)
	assert.Equal(t, []string{"t"}, core.TableNames(last.Schema))

	n := len(snaps)
	tu.ExecuteQuery(ctx, "CREATE TABLE u(x INT)")
	require.Greater(t, len(snaps), n)
	assert.Equal(t, []string{"t", "u"}, core.TableNames(snaps[len(snaps)-1].Schema))

	n = len(snaps)
	tu.NextPhase()
	require.Greater(t, len(snaps), n)
	assert.Equal(t, core.PhaseLearn, snaps[len(snaps)-1].Phase.Phase)

	cancel()
	n = len(snaps)
	tu.NextPhase()
	assert.Len(t, snaps, n)
}
