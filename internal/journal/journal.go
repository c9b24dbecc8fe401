// Package journal records a learner's challenge attempts and quiz answers
// in a SQLite database so progress can be reported across sessions.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// MemoryPath keeps the journal in memory for the life of the process.
const MemoryPath = ":memory:"

// ErrNotOpen is returned when the store is used before Open.
var ErrNotOpen = errors.New("journal not opened")

// Attempt is one graded challenge submission.
type Attempt struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	LessonID       string    `json:"lesson_id"`
	ChallengeID    string    `json:"challenge_id"`
	SQL            string    `json:"sql"`
	Passed         bool      `json:"passed"`
	MismatchKind   string    `json:"mismatch_kind,omitempty"`
	MismatchDetail string    `json:"mismatch_detail,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// QuizAnswer is one answered quiz question.
type QuizAnswer struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	LessonID  string    `json:"lesson_id"`
	Question  int       `json:"question"`
	Chosen    int       `json:"chosen"`
	Correct   bool      `json:"correct"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarizes progress on one lesson.
type Stats struct {
	LessonID         string    `json:"lesson_id"`
	Attempts         int       `json:"attempts"`
	Passed           int       `json:"passed"`
	SolvedChallenges int       `json:"solved_challenges"`
	QuizAnswered     int       `json:"quiz_answered"`
	QuizCorrect      int       `json:"quiz_correct"`
	LastAttempt      time.Time `json:"last_attempt,omitzero"`
}

// Store persists attempts in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a journal store. Call Open before use.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the journal database at path and applies migrations.
// Use ":memory:" (or an empty path) for an in-memory journal.
func (s *Store) Open(path string) error {
	if path == "" {
		path = MemoryPath
	}

	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return fmt.Errorf("failed to open journal database: %w", err)
	}
	if path == MemoryPath {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping journal database: %w", err)
	}

	s.db = db
	s.path = path

	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return err
	}
	s.logger.Debug("journal opened", "path", path)
	return nil
}

// Close closes the journal database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	db := s.db
	s.db = nil
	return db.Close()
}

// Path returns the database path passed to Open.
func (s *Store) Path() string {
	return s.path
}

func buildDSN(path string) string {
	pragmas := url.Values{}
	pragmas.Add("_pragma", "foreign_keys(1)")
	pragmas.Add("_pragma", "busy_timeout(5000)")
	if path != MemoryPath {
		pragmas.Add("_pragma", "journal_mode(WAL)")
	}
	return path + "?" + pragmas.Encode()
}

// RecordAttempt stores a graded submission. ID and CreatedAt are filled in
// when empty.
func (s *Store) RecordAttempt(ctx context.Context, a *Attempt) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempts (id, session_id, lesson_id, challenge_id, submitted_sql, passed, mismatch_kind, mismatch_detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.LessonID, a.ChallengeID, a.SQL, a.Passed,
		nullString(a.MismatchKind), nullString(a.MismatchDetail), a.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// ListAttempts returns attempts for lessonID, oldest first. An empty
// lessonID lists every attempt.
func (s *Store) ListAttempts(ctx context.Context, lessonID string) ([]Attempt, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	query := `SELECT id, session_id, lesson_id, challenge_id, submitted_sql, passed, mismatch_kind, mismatch_detail, created_at
		FROM attempts`
	var args []any
	if lessonID != "" {
		query += ` WHERE lesson_id = ?`
		args = append(args, lessonID)
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var attempts []Attempt
	for rows.Next() {
		var (
			a       Attempt
			kind    sql.NullString
			detail  sql.NullString
			created int64
		)
		if err := rows.Scan(&a.ID, &a.SessionID, &a.LessonID, &a.ChallengeID, &a.SQL, &a.Passed, &kind, &detail, &created); err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		a.MismatchKind = kind.String
		a.MismatchDetail = detail.String
		a.CreatedAt = time.UnixMilli(created).UTC()
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// RecordQuizAnswer stores an answered quiz question.
func (s *Store) RecordQuizAnswer(ctx context.Context, q *QuizAnswer) error {
	if s.db == nil {
		return ErrNotOpen
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quiz_answers (id, session_id, lesson_id, question, chosen, correct, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.SessionID, q.LessonID, q.Question, q.Chosen, q.Correct, q.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record quiz answer: %w", err)
	}
	return nil
}

// Stats summarizes attempts and quiz answers for lessonID.
func (s *Store) Stats(ctx context.Context, lessonID string) (Stats, error) {
	if s.db == nil {
		return Stats{}, ErrNotOpen
	}

	st := Stats{LessonID: lessonID}
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*),
		        coalesce(sum(passed), 0),
		        count(DISTINCT CASE WHEN passed = 1 THEN challenge_id END),
		        max(created_at)
		 FROM attempts WHERE lesson_id = ?`,
		lessonID,
	).Scan(&st.Attempts, &st.Passed, &st.SolvedChallenges, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute attempt stats: %w", err)
	}
	if last.Valid {
		st.LastAttempt = time.UnixMilli(last.Int64).UTC()
	}

	// Only the latest answer per question counts.
	err = s.db.QueryRowContext(ctx,
		`SELECT count(*), coalesce(sum(correct), 0)
		 FROM quiz_answers q
		 WHERE lesson_id = ?
		   AND rowid = (SELECT max(rowid) FROM quiz_answers WHERE lesson_id = q.lesson_id AND question = q.question)`,
		lessonID,
	).Scan(&st.QuizAnswered, &st.QuizCorrect)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute quiz stats: %w", err)
	}
	return st, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
