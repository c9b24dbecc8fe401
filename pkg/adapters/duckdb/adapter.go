// Package duckdb provides a DuckDB sandbox engine for SQLQuest.
//
// Import this package with a blank identifier to register the engine:
//
//	import _ "github.com/leapstack-labs/sqlquest/pkg/adapters/duckdb"
package duckdb

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/leapstack-labs/sqlquest/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Name is the registry name of this engine.
const Name = "duckdb"

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Name returns the registry name of this engine.
func (a *Adapter) Name() string {
	return Name
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := ParseParams(cfg.Params)
	if err != nil {
		return err
	}

	if err := a.Close(); err != nil {
		a.Logger.Warn("failed to close previous duckdb instance", "error", err)
	}

	path := cfg.Path
	if path == adapter.MemoryPath {
		path = ""
	}

	db, err := adapter.OpenSingle(ctx, "duckdb", path)
	if err != nil {
		return err
	}
	a.DB = db
	a.Cfg = cfg
	a.Cfg.Type = Name

	if err := a.applyParams(ctx, params); err != nil {
		_ = a.Close()
		return err
	}
	a.Logger.Debug("opened duckdb database", "path", cfg.Path, "extensions", params.Extensions)
	return nil
}

// applyParams installs extensions and session settings.
func (a *Adapter) applyParams(ctx context.Context, params *Params) error {
	for _, ext := range params.Extensions {
		if !isIdentifier(ext) {
			return fmt.Errorf("invalid extension name %q", ext)
		}
		if _, err := a.Exec(ctx, fmt.Sprintf("INSTALL %s; LOAD %s;", ext, ext)); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	keys := make([]string, 0, len(params.Settings))
	for k := range params.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !isIdentifier(k) {
			return fmt.Errorf("invalid setting name %q", k)
		}
		v := strings.ReplaceAll(params.Settings[k], "'", "''")
		if _, err := a.Exec(ctx, fmt.Sprintf("SET %s = '%s'", k, v)); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", k, err)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// Tables lists user tables of the current schema in creation (oid) order.
func (a *Adapter) Tables(ctx context.Context) ([]core.TableInfo, error) {
	const names = `
		SELECT table_name
		FROM duckdb_tables()
		WHERE NOT internal
		AND NOT temporary
		AND database_name = current_database()
		AND schema_name = current_schema()
		ORDER BY table_oid
	`
	return adapter.ScanTables(ctx, a.DB, names, a.columns)
}

func (a *Adapter) columns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	query := `
		SELECT column_name, data_type
		FROM duckdb_columns()
		WHERE table_name = ?
		AND database_name = current_database()
		AND schema_name = current_schema()
		ORDER BY column_index
	`
	rows, err := a.DB.QueryContext(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []core.ColumnInfo
	for rows.Next() {
		var col core.ColumnInfo
		if err := rows.Scan(&col.Name, &col.Type); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	return cols, nil
}

// Version reports the DuckDB library version.
func (a *Adapter) Version(ctx context.Context) (string, error) {
	return a.QueryString(ctx, "SELECT version()")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
