package core

// Phase is one step in the fixed instructional sequence of a lesson.
type Phase string

// The fixed, ordered phase sequence.
const (
	PhaseIntro      Phase = "intro"
	PhaseLearn      Phase = "learn"
	PhasePractice   Phase = "practice"
	PhaseQuiz       Phase = "quiz"
	PhaseCheatsheet Phase = "cheatsheet"
)

// AssessmentPhase is the phase whose challenges are graded against the sandbox.
const AssessmentPhase = PhasePractice

var phaseSequence = []Phase{PhaseIntro, PhaseLearn, PhasePractice, PhaseQuiz, PhaseCheatsheet}

// Phases returns the ordered phase sequence. The returned slice is a copy.
func Phases() []Phase {
	out := make([]Phase, len(phaseSequence))
	copy(out, phaseSequence)
	return out
}

// PhaseCount is the number of phases in the sequence.
func PhaseCount() int {
	return len(phaseSequence)
}

// PhaseAt returns the phase at index i, or "" when out of range.
func PhaseAt(i int) Phase {
	if i < 0 || i >= len(phaseSequence) {
		return ""
	}
	return phaseSequence[i]
}

// ParsePhase converts a name to a Phase.
func ParsePhase(name string) (Phase, bool) {
	for _, p := range phaseSequence {
		if string(p) == name {
			return p, true
		}
	}
	return "", false
}

// Index returns the position of p in the sequence, or -1.
func (p Phase) Index() int {
	for i, q := range phaseSequence {
		if q == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is part of the sequence.
func (p Phase) Valid() bool {
	return p.Index() >= 0
}

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}
