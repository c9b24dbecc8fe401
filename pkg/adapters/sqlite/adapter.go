// Package sqlite provides the default SQLQuest sandbox engine: a private,
// pure-Go SQLite database per connection.
//
// Import this package with a blank identifier to register the engine:
//
//	import _ "github.com/leapstack-labs/sqlquest/pkg/adapters/sqlite"
package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/leapstack-labs/sqlquest/pkg/core"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Name is the registry name of this engine.
const Name = "sqlite"

func init() {
	adapter.Register(Name, func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Params holds SQLite-specific configuration.
// Parsed from adapter.Config.Params using mapstructure.
type Params struct {
	// Pragmas applied to the connection (e.g., foreign_keys: "1").
	Pragmas map[string]string `mapstructure:"pragmas"`
}

// defaultPragmas are applied unless overridden by Params.
var defaultPragmas = map[string]string{
	"foreign_keys": "1",
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
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

// Connect opens a fresh database. An empty path or ":memory:" gives a
// private in-memory database that disappears on Close.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	var params Params
	if err := adapter.DecodeParams(cfg.Params, &params); err != nil {
		return err
	}

	// Never hold two instances.
	if err := a.Close(); err != nil {
		a.Logger.Warn("failed to close previous sqlite instance", "error", err)
	}

	path := cfg.Path
	if path == "" {
		path = adapter.MemoryPath
	}

	db, err := adapter.OpenSingle(ctx, "sqlite", buildDSN(path, params.Pragmas))
	if err != nil {
		return err
	}

	a.DB = db
	a.Cfg = cfg
	a.Cfg.Type = Name
	a.Logger.Debug("opened sqlite database", "path", path)
	return nil
}

// buildDSN appends _pragma parameters in a stable order.
func buildDSN(path string, overrides map[string]string) string {
	pragmas := make(map[string]string, len(defaultPragmas)+len(overrides))
	for k, v := range defaultPragmas {
		pragmas[k] = v
	}
	for k, v := range overrides {
		pragmas[k] = v
	}

	keys := make([]string, 0, len(pragmas))
	for k := range pragmas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	q := make([]string, 0, len(keys))
	for _, k := range keys {
		q = append(q, "_pragma="+url.QueryEscape(fmt.Sprintf("%s(%s)", k, pragmas[k])))
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + strings.Join(q, "&")
}

// Tables lists user tables in creation order (sqlite_master rowid order).
// Internal sqlite_* tables are excluded.
func (a *Adapter) Tables(ctx context.Context) ([]core.TableInfo, error) {
	const names = `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		AND name NOT LIKE 'sqlite_%'
		ORDER BY rowid
	`
	return adapter.ScanTables(ctx, a.DB, names, a.columns)
}

func (a *Adapter) columns(ctx context.Context, table string) ([]core.ColumnInfo, error) {
	rows, err := a.DB.QueryContext(ctx, `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
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

// Version reports the SQLite library version.
func (a *Adapter) Version(ctx context.Context) (string, error) {
	return a.QueryString(ctx, "SELECT sqlite_version()")
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
