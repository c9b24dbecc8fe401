package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sqlquest/internal/journal"
	"github.com/leapstack-labs/sqlquest/internal/lesson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCommand(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantErrIs error
		errSubstr string
		wantOut   string
	}{
		{
			name:    "correct submission",
			args:    []string{"select-basics", "all-books", "SELECT * FROM books;"},
			wantOut: "Correct! all-books solved",
		},
		{
			name:    "later challenge",
			args:    []string{"select-basics", "publication-years", "SELECT title, year FROM books ORDER BY year DESC;"},
			wantOut: "Correct! publication-years solved",
		},
		{
			name:      "wrong columns",
			args:      []string{"select-basics", "all-books", "SELECT title FROM books;"},
			wantErrIs: ErrChallengeFailed,
			wantOut:   "column_count",
		},
		{
			name:      "learner error",
			args:      []string{"select-basics", "all-books", "SELECT * FROM nope;"},
			wantErrIs: ErrChallengeFailed,
			wantOut:   "learner_error",
		},
		{
			name:      "mutation challenge",
			args:      []string{"changing-data", "restock-mouse", "UPDATE products SET stock = 0;"},
			wantErrIs: ErrChallengeFailed,
		},
		{
			name:      "unknown lesson",
			args:      []string{"nope", "all-books", "SELECT 1;"},
			wantErrIs: lesson.ErrNotFound,
		},
		{
			name:      "unknown challenge",
			args:      []string{"select-basics", "nope", "SELECT 1;"},
			errSubstr: `has no challenge "nope"`,
		},
		{
			name:      "missing sql",
			args:      []string{"select-basics", "all-books"},
			errSubstr: "no SQL given",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupConfig(t, "text")
			out, _, err := execute(t, NewCheckCommand(), tt.args...)

			switch {
			case tt.wantErrIs != nil:
				require.ErrorIs(t, err, tt.wantErrIs)
			case tt.errSubstr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errSubstr)
			default:
				require.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}
		})
	}
}

func TestCheckCommand_MismatchShowsBothResults(t *testing.T) {
	setupConfig(t, "markdown")
	out, _, err := execute(t, NewCheckCommand(), "select-basics", "titles-and-authors",
		"SELECT author, title FROM books;")
	require.ErrorIs(t, err, ErrChallengeFailed)

	assert.Contains(t, out, "### Your result")
	assert.Contains(t, out, "### Expected")
	assert.Contains(t, out, "| author | title |")
	assert.Contains(t, out, "| title | author |")
}

func TestCheckCommand_InputFile(t *testing.T) {
	dir := setupConfig(t, "text")
	path := filepath.Join(dir, "answer.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT title, author\nFROM books;\n"), 0600))

	out, _, err := execute(t, NewCheckCommand(), "select-basics", "titles-and-authors", "--input", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Correct!")
}

func TestCheckCommand_Stdin(t *testing.T) {
	setupConfig(t, "text")
	cmd := NewCheckCommand()
	cmd.SetIn(strings.NewReader("SELECT * FROM books;"))

	out, _, err := execute(t, cmd, "select-basics", "all-books", "--input", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Correct!")
}

func TestCheckCommand_ArgAndInputConflict(t *testing.T) {
	setupConfig(t, "text")
	_, _, err := execute(t, NewCheckCommand(), "select-basics", "all-books", "SELECT 1;", "--input", "x.sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")
}

func TestCheckCommand_EmptyInput(t *testing.T) {
	setupConfig(t, "text")
	cmd := NewCheckCommand()
	cmd.SetIn(strings.NewReader("  \n"))

	_, _, err := execute(t, cmd, "select-basics", "all-books", "--input", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "submission is empty")
}

func TestCheckCommand_JSON(t *testing.T) {
	setupConfig(t, "json")
	out, _, err := execute(t, NewCheckCommand(), "select-basics", "all-books", "SELECT * FROM books;")
	require.NoError(t, err)
	assert.Contains(t, out, `"challenge_id": "all-books"`)
	assert.Contains(t, out, `"passed": true`)
}

func TestCheckCommand_RecordsAttempts(t *testing.T) {
	dir := setupConfig(t, "text")

	_, _, err := execute(t, NewCheckCommand(), "select-basics", "all-books", "SELECT title FROM books;")
	require.ErrorIs(t, err, ErrChallengeFailed)
	_, _, err = execute(t, NewCheckCommand(), "select-basics", "all-books", "SELECT * FROM books;")
	require.NoError(t, err)

	store := journal.NewStore(nil)
	require.NoError(t, store.Open(filepath.Join(dir, "journal.db")))
	defer func() { _ = store.Close() }()

	attempts, err := store.ListAttempts(context.Background(), "select-basics")
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.False(t, attempts[0].Passed)
	assert.Equal(t, "column_count", attempts[0].MismatchKind)
	assert.True(t, attempts[1].Passed)
	assert.Equal(t, "all-books", attempts[1].ChallengeID)
}
