package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// ErrNotConnected is returned when an adapter is used before Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, and Query implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close closes the database connection. Closing twice is a no-op.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection", "engine", b.Cfg.Type)
	}
	db := b.DB
	b.DB = nil
	return db.Close()
}

// Exec executes a SQL statement that doesn't return rows.
// Engine errors are wrapped with %w so callers can recover the diagnostic.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) (int64, error) {
	if b.DB == nil {
		return 0, ErrNotConnected
	}
	res, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return 0, fmt.Errorf("failed to execute SQL: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		// DDL on some engines has no meaningful count.
		return 0, nil
	}
	return n, nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// QueryString runs a single-value query, used for version probes.
func (b *BaseSQLAdapter) QueryString(ctx context.Context, query string) (string, error) {
	if b.DB == nil {
		return "", ErrNotConnected
	}
	var s string
	if err := b.DB.QueryRowContext(ctx, query).Scan(&s); err != nil {
		return "", fmt.Errorf("failed to query %q: %w", query, err)
	}
	return s, nil
}

// OpenSingle opens a database/sql handle pinned to one pooled connection.
// In-memory engines create one database per connection, so the sandbox must
// never let the pool open a second one.
func OpenSingle(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}

// DecodeParams decodes engine-specific params from the adapter config.
func DecodeParams(params map[string]any, out any) error {
	if len(params) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid engine params: %w", err)
	}
	return nil
}

// ScanTables collects (name) rows and resolves columns for each with
// columnsFor, preserving the order of the name query.
func ScanTables(ctx context.Context, db *sql.DB, namesQuery string, columnsFor func(ctx context.Context, name string) ([]core.ColumnInfo, error)) ([]core.TableInfo, error) {
	if db == nil {
		return nil, ErrNotConnected
	}
	rows, err := db.QueryContext(ctx, namesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}
	// The single pooled connection must be released before the column queries.
	_ = rows.Close()

	tables := make([]core.TableInfo, 0, len(names))
	for _, name := range names {
		cols, err := columnsFor(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, core.TableInfo{Name: name, Columns: cols})
	}
	return tables, nil
}
