// Package adapter provides the sandbox engine contract and shared
// database/sql plumbing for SQLQuest.
//
// Concrete engines live in pkg/adapters/ subdirectories and register
// themselves by name from init(). Core types (Config, Rows) are defined in
// pkg/core and re-exported here via type aliases.
package adapter

import (
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// Adapter is an alias for core.Adapter.
	Adapter = core.Adapter
)

// MemoryPath is the path used for private in-memory databases.
const MemoryPath = ":memory:"
