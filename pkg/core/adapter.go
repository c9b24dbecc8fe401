package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all sandbox engines must implement.
type Adapter interface {
	// Connect creates a fresh, private database instance.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close releases the database instance.
	Close() error

	// Exec executes a statement that doesn't return rows and reports rows affected.
	Exec(ctx context.Context, sql string) (int64, error)

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// Tables returns the user tables of the live catalog in creation order.
	Tables(ctx context.Context) ([]TableInfo, error)

	// Version reports the engine version string.
	Version(ctx context.Context) (string, error)

	// Name returns the registry name of the engine (e.g., "sqlite").
	Name() string
}

// AdapterConfig holds configuration for creating a sandbox database.
type AdapterConfig struct {
	Type   string
	Path   string
	Params map[string]any
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
