package core

// MismatchKind names why a submission did not match the reference.
type MismatchKind string

// Mismatch kinds.
const (
	MismatchLearnerError   MismatchKind = "learner_error"
	MismatchReferenceError MismatchKind = "reference_error"
	MismatchColumnCount    MismatchKind = "column_count"
	MismatchColumnNames    MismatchKind = "column_names"
	MismatchRowCount       MismatchKind = "row_count"
	MismatchRowValues      MismatchKind = "row_values"
)

// Mismatch describes the first difference found between two results.
// Row is the zero-based row index for MismatchRowValues, -1 otherwise.
type Mismatch struct {
	Kind   MismatchKind `json:"kind"`
	Detail string       `json:"detail"`
	Row    int          `json:"row"`
}

// Verdict is the outcome of validating a submission. A failed verdict is a
// normal outcome, not an error; both results are kept for diff display.
type Verdict struct {
	ChallengeID string      `json:"challenge_id"`
	Passed      bool        `json:"passed"`
	Learner     QueryResult `json:"learner"`
	Reference   QueryResult `json:"reference"`
	Mismatch    *Mismatch   `json:"mismatch,omitempty"`
}
