package sandbox

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// GetSchema reads the live catalog: user tables in creation order with
// columns in ordinal order. An uninitialized session has an empty schema.
// The snapshot is never cached.
func (s *Session) GetSchema(ctx context.Context) (tables []core.TableInfo, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			tables, err = nil, fmt.Errorf("engine panic: %v", r)
		}
	}()

	if s.db == nil {
		return []core.TableInfo{}, nil
	}
	tables, err = s.db.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect schema: %w", err)
	}
	if tables == nil {
		tables = []core.TableInfo{}
	}
	return tables, nil
}

// SchemaResult returns the schema flattened to (table, column, type) rows.
func (s *Session) SchemaResult(ctx context.Context) core.QueryResult {
	tables, err := s.GetSchema(ctx)
	if err != nil {
		return core.Failure(engineMessage(err))
	}
	columns := append([]string(nil), core.SchemaColumns...)
	return core.Success(columns, core.SchemaRows(tables), 0)
}
