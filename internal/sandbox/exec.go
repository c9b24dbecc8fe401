package sandbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqlquest/internal/script"
	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// runLocked executes a script statement by statement. The caller holds s.mu.
//
// The result is the last row-returning statement's result set. When no
// statement returns rows the result is an empty success carrying the total
// rows affected. The first failure stops the script; earlier statements keep
// their effects.
func (s *Session) runLocked(ctx context.Context, sqlText string) (res core.QueryResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("engine panic recovered", "panic", r)
			res = core.Failure(fmt.Sprintf("engine panic: %v", r))
		}
	}()

	if s.db == nil {
		return core.Failure(core.ErrNotInitialized.Error())
	}

	var (
		last     *core.QueryResult
		affected int64
	)
	for _, stmt := range script.Split(sqlText) {
		if stmt.ReturnsRows {
			r, err := queryRows(ctx, s.db, stmt.SQL)
			if err != nil {
				return core.Failure(engineMessage(err))
			}
			if len(r.Columns) == 0 {
				// e.g. a PRAGMA assignment; behaves like a mutation.
				continue
			}
			last = &r
			continue
		}

		n, err := s.db.Exec(ctx, stmt.SQL)
		if err != nil {
			return core.Failure(engineMessage(err))
		}
		if stmt.IsDML() {
			affected += n
		}
	}

	if last != nil {
		return *last
	}
	return core.Success(nil, nil, affected)
}

// queryRows runs a row-returning statement and normalizes every value.
func queryRows(ctx context.Context, db adapter.Adapter, sqlText string) (core.QueryResult, error) {
	rows, err := db.Query(ctx, sqlText)
	if err != nil {
		return core.QueryResult{}, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return core.QueryResult{}, fmt.Errorf("failed to read columns: %w", err)
	}

	out := make([]core.Row, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return core.QueryResult{}, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(core.Row, len(values))
		for i, v := range values {
			row[i] = core.NormalizeValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return core.QueryResult{}, err
	}

	return core.Success(columns, out, 0), nil
}

// engineMessage strips our own wrapping and returns the engine's diagnostic.
func engineMessage(err error) string {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			return err.Error()
		}
		err = inner
	}
}

func statementCount(sqlText string) int {
	return len(script.Split(sqlText))
}
