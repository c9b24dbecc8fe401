// Package phase tracks a learner's position within a lesson: the current
// instructional phase and the current challenge of the assessment phase.
//
// The Controller is an explicit state object independent of any UI. Views
// either poll State or Subscribe to receive a snapshot after each change.
package phase

import (
	"log/slog"
	"sync"

	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// State is an immutable snapshot of a Controller.
type State struct {
	LessonID        string     `json:"lesson_id,omitempty"`
	Phase           core.Phase `json:"phase"`
	PhaseIndex      int        `json:"phase_index"`
	ChallengeIndex  int        `json:"challenge_index"`
	ChallengeCount  int        `json:"challenge_count"`
	IsFirstPhase    bool       `json:"is_first_phase"`
	IsLastPhase     bool       `json:"is_last_phase"`
	IsLastChallenge bool       `json:"is_last_challenge"`
}

// Controller is the lesson phase state machine. Transitions saturate at the
// ends of the phase sequence and the challenge list.
type Controller struct {
	mu        sync.Mutex
	lesson    *core.Lesson
	phase     int
	challenge int

	subs    map[int]func(State)
	nextSub int

	logger *slog.Logger
}

// New creates a controller positioned at the first phase of lesson.
// lesson may be nil.
func New(lesson *core.Lesson, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		lesson: lesson,
		subs:   make(map[int]func(State)),
		logger: logger,
	}
}

// SetLesson loads a lesson and rewinds to its first phase.
func (c *Controller) SetLesson(lesson *core.Lesson) {
	c.update(func() {
		c.lesson = lesson
		c.phase = 0
		c.challenge = 0
	}, true)
}

// Lesson returns the loaded lesson, or nil.
func (c *Controller) Lesson() *core.Lesson {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lesson
}

// NextPhase advances one phase, stopping at the last.
func (c *Controller) NextPhase() {
	c.update(func() {
		if c.phase < core.PhaseCount()-1 {
			c.phase++
		}
	}, false)
}

// PrevPhase goes back one phase, stopping at the first.
func (c *Controller) PrevPhase() {
	c.update(func() {
		if c.phase > 0 {
			c.phase--
		}
	}, false)
}

// GoToPhase jumps to the named phase. Unknown names are ignored and
// reported by returning false.
func (c *Controller) GoToPhase(name string) bool {
	p, ok := core.ParsePhase(name)
	if !ok {
		c.logger.Debug("ignoring unknown phase", "phase", name)
		return false
	}
	c.update(func() { c.phase = p.Index() }, false)
	return true
}

// NextChallenge advances to the next challenge, stopping at the last.
func (c *Controller) NextChallenge() {
	c.update(func() {
		if c.challenge < c.challengeCountLocked()-1 {
			c.challenge++
		}
	}, false)
}

// ResetLesson returns to the first phase and first challenge.
func (c *Controller) ResetLesson() {
	c.update(func() {
		c.phase = 0
		c.challenge = 0
	}, false)
}

// PhaseIndex returns the current phase index.
func (c *Controller) PhaseIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ChallengeIndex returns the current challenge index.
func (c *Controller) ChallengeIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.challenge
}

// CurrentPhase returns the current phase.
func (c *Controller) CurrentPhase() core.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return core.PhaseAt(c.phase)
}

// IsFirstPhase reports whether the controller is on the first phase.
func (c *Controller) IsFirstPhase() bool { return c.State().IsFirstPhase }

// IsLastPhase reports whether the controller is on the last phase.
func (c *Controller) IsLastPhase() bool { return c.State().IsLastPhase }

// IsLastChallenge reports whether no further challenge exists.
func (c *Controller) IsLastChallenge() bool { return c.State().IsLastChallenge }

// CurrentChallenge returns the current challenge, if the lesson has any.
func (c *Controller) CurrentChallenge() (core.Challenge, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	challenges := c.lesson.Challenges()
	if c.challenge >= len(challenges) {
		return core.Challenge{}, false
	}
	return challenges[c.challenge], true
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Subscribe registers fn to receive a snapshot after every transition that
// changed state. The returned function unregisters it.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Controller) stateLocked() State {
	count := c.challengeCountLocked()
	s := State{
		Phase:           core.PhaseAt(c.phase),
		PhaseIndex:      c.phase,
		ChallengeIndex:  c.challenge,
		ChallengeCount:  count,
		IsFirstPhase:    c.phase == 0,
		IsLastPhase:     c.phase == core.PhaseCount()-1,
		IsLastChallenge: c.challenge >= count-1,
	}
	if c.lesson != nil {
		s.LessonID = c.lesson.ID
	}
	return s
}

func (c *Controller) challengeCountLocked() int {
	return len(c.lesson.Challenges())
}

// update applies mutate and notifies subscribers if the state changed, or
// unconditionally when force is set.
func (c *Controller) update(mutate func(), force bool) {
	c.mu.Lock()
	before := c.stateLocked()
	mutate()
	after := c.stateLocked()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	if before == after && !force {
		return
	}
	c.logger.Debug("phase state changed",
		"phase", after.Phase,
		"challenge", after.ChallengeIndex,
	)
	for _, fn := range subs {
		fn(after)
	}
}
