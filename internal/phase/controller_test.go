package phase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlquest/internal/testutil"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

func testLesson(challenges int) *core.Lesson {
	var list []core.Challenge
	for i := 0; i < challenges; i++ {
		list = append(list, core.Challenge{ID: string(rune('a' + i)), Reference: "SELECT 1"})
	}
	return &core.Lesson{
		ID:    "select-basics",
		Title: "SELECT basics",
		Phases: map[core.Phase]*core.PhaseContent{
			core.PhasePractice: {Challenges: list},
		},
	}
}

func TestController_NextPhaseSaturates(t *testing.T) {
	c := New(testLesson(0), testutil.NewTestLogger(t))
	for i := 0; i < 10; i++ {
		c.NextPhase()
	}
	assert.Equal(t, 4, c.PhaseIndex())
	assert.Equal(t, core.PhaseCheatsheet, c.CurrentPhase())
	assert.True(t, c.IsLastPhase())
}

func TestController_PrevPhaseSaturates(t *testing.T) {
	c := New(nil, nil)
	c.PrevPhase()
	c.PrevPhase()
	assert.Equal(t, 0, c.PhaseIndex())
	assert.True(t, c.IsFirstPhase())
}

func TestController_GoToPhase(t *testing.T) {
	tests := []struct {
		name     string
		start    int
		target   string
		ok       bool
		expected core.Phase
	}{
		{"practice from intro", 0, "practice", true, core.PhasePractice},
		{"intro from cheatsheet", 4, "intro", true, core.PhaseIntro},
		{"same phase", 2, "practice", true, core.PhasePractice},
		{"unknown name", 1, "homework", false, core.PhaseLearn},
		{"empty name", 3, "", false, core.PhaseQuiz},
		{"wrong case", 0, "Practice", false, core.PhaseIntro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(testLesson(1), nil)
			for i := 0; i < tt.start; i++ {
				c.NextPhase()
			}
			assert.Equal(t, tt.ok, c.GoToPhase(tt.target))
			assert.Equal(t, tt.expected, c.CurrentPhase())
		})
	}
}

func TestController_GoToThenPrev(t *testing.T) {
	c := New(testLesson(1), nil)
	require.True(t, c.GoToPhase("practice"))
	c.PrevPhase()
	assert.Equal(t, core.PhaseLearn, c.CurrentPhase())
}

func TestController_NextChallengeClamps(t *testing.T) {
	c := New(testLesson(3), nil)

	ch, ok := c.CurrentChallenge()
	require.True(t, ok)
	assert.Equal(t, "a", ch.ID)
	assert.False(t, c.IsLastChallenge())

	for i := 0; i < 5; i++ {
		c.NextChallenge()
	}
	assert.Equal(t, 2, c.ChallengeIndex())
	assert.True(t, c.IsLastChallenge())

	ch, ok = c.CurrentChallenge()
	require.True(t, ok)
	assert.Equal(t, "c", ch.ID)
}

func TestController_NoChallenges(t *testing.T) {
	c := New(testLesson(0), nil)
	c.NextChallenge()
	assert.Equal(t, 0, c.ChallengeIndex())
	assert.True(t, c.IsLastChallenge())

	_, ok := c.CurrentChallenge()
	assert.False(t, ok)
}

func TestController_ResetLesson(t *testing.T) {
	c := New(testLesson(3), nil)
	c.NextPhase()
	c.NextPhase()
	c.NextChallenge()

	c.ResetLesson()
	assert.Equal(t, 0, c.PhaseIndex())
	assert.Equal(t, 0, c.ChallengeIndex())
}

func TestController_SetLessonRewinds(t *testing.T) {
	c := New(testLesson(3), nil)
	c.NextPhase()
	c.NextChallenge()

	next := testLesson(2)
	next.ID = "joins"
	c.SetLesson(next)

	s := c.State()
	assert.Equal(t, "joins", s.LessonID)
	assert.Equal(t, 0, s.PhaseIndex)
	assert.Equal(t, 0, s.ChallengeIndex)
	assert.Equal(t, 2, s.ChallengeCount)
	assert.Same(t, next, c.Lesson())
}

func TestController_Subscribe(t *testing.T) {
	c := New(testLesson(2), nil)

	var got []State
	cancel := c.Subscribe(func(s State) { got = append(got, s) })

	c.PrevPhase() // no change
	c.NextPhase()
	c.GoToPhase("bogus")
	c.GoToPhase("learn") // already there
	c.NextChallenge()
	c.NextChallenge() // clamped

	require.Len(t, got, 2)
	assert.Equal(t, core.PhaseLearn, got[0].Phase)
	assert.Equal(t, 1, got[1].ChallengeIndex)
	assert.True(t, got[1].IsLastChallenge)

	cancel()
	c.NextPhase()
	assert.Len(t, got, 2)
}
