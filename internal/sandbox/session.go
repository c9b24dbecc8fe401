// Package sandbox owns a learner's private, in-memory database instance.
//
// A Session boots the embedded engine once per process, creates a fresh
// database per Initialize, runs arbitrary learner SQL into a uniform
// core.QueryResult and reports the live schema. All operations on one
// session are serialized.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/leapstack-labs/sqlquest/pkg/core"

	// Register the bundled engines.
	_ "github.com/leapstack-labs/sqlquest/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlquest/pkg/adapters/sqlite"
)

// DefaultEngine is used when Options.Engine is empty.
const DefaultEngine = "sqlite"

// Options configures a Session.
type Options struct {
	// Engine is the registered engine name (default "sqlite").
	Engine string
	// Params are engine-specific settings passed to the adapter.
	Params map[string]any
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Session is one learner's sandbox.
type Session struct {
	mu sync.Mutex

	id     string
	engine string
	params map[string]any
	logger *slog.Logger
	rt     *runtime

	db         adapter.Adapter
	generation uint64
	disposed   bool
}

// New creates an uninitialized session. No engine work happens until
// Initialize.
func New(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	engine := opts.Engine
	if engine == "" {
		engine = DefaultEngine
	}
	id := uuid.NewString()
	return &Session{
		id:     id,
		engine: engine,
		params: opts.Params,
		logger: logger.With("session", id[:8], "engine", engine),
		rt:     processRuntime,
	}
}

// Scratch returns a new, uninitialized session with the same engine
// settings. The caller owns it and must Dispose it.
func (s *Session) Scratch() *Session {
	return &Session{
		id:     uuid.NewString(),
		engine: s.engine,
		params: s.params,
		logger: s.logger.With("scratch", true),
		rt:     s.rt,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Engine returns the engine name.
func (s *Session) Engine() string { return s.engine }

// Initialized reports whether a database instance is live.
func (s *Session) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Disposed reports whether Dispose has been called.
func (s *Session) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Initialize boots the engine runtime if needed, replaces any live instance
// with a fresh one and applies seed.
//
// If the session is reset, disposed or re-initialized while the runtime is
// booting, or ctx is cancelled, the result is discarded and the session is
// left as the newer operation set it. A boot or connect failure returns
// *core.EngineBootError and leaves the session uninitialized. A failing seed
// returns *core.SeedError; the instance stays live with the statements that
// ran before the failure.
func (s *Session) Initialize(ctx context.Context, seed string) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return core.ErrDisposed
	}
	gen := s.generation
	s.mu.Unlock()

	if _, err := s.rt.Boot(ctx, s.engine, s.params, s.logger); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %w", core.ErrInitializeDiscarded, ctxErr)
		}
		s.logger.Error("engine boot failed", "error", err)
		return &core.EngineBootError{Engine: s.engine, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", core.ErrInitializeDiscarded, err)
	}
	if s.disposed || s.generation != gen {
		s.logger.Debug("discarding stale initialization", "generation", gen, "current", s.generation)
		return core.ErrInitializeDiscarded
	}

	// Release the previous instance before creating its replacement.
	s.closeLocked()
	s.generation++

	cfg := adapter.Config{Type: s.engine, Path: adapter.MemoryPath, Params: s.params}
	db, err := adapter.NewAdapter(cfg, s.logger)
	if err != nil {
		return &core.EngineBootError{Engine: s.engine, Err: err}
	}
	if err := db.Connect(ctx, cfg); err != nil {
		_ = db.Close()
		s.logger.Error("failed to create database instance", "error", err)
		return &core.EngineBootError{Engine: s.engine, Err: err}
	}
	s.db = db
	s.logger.Debug("database instance created", "generation", s.generation)

	if strings.TrimSpace(seed) == "" {
		return nil
	}
	res := s.runLocked(ctx, seed)
	if res.Failed() {
		s.logger.Warn("seed script failed", "error", res.Error)
		return &core.SeedError{Message: res.Error}
	}
	return nil
}

// ExecuteQuery runs learner SQL, which may hold several statements.
// Engine errors come back as a failure result, never as a panic or error.
func (s *Session) ExecuteQuery(ctx context.Context, sqlText string) core.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("executing query", "sql", truncate(sqlText, 200))
	res := s.runLocked(ctx, sqlText)
	if res.Failed() {
		s.logger.Debug("query failed", "error", res.Error)
	}
	return res
}

// SetupSchema installs DDL/DML with the same semantics as ExecuteQuery.
func (s *Session) SetupSchema(ctx context.Context, sqlText string) core.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Info("installing schema", "statements", statementCount(sqlText))
	res := s.runLocked(ctx, sqlText)
	if res.Failed() {
		s.logger.Warn("schema installation failed", "error", res.Error)
	}
	return res
}

// Reset closes and discards the live instance. Initialize is required
// before the session can execute again. Resetting twice is harmless.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.closeLocked()
	s.logger.Debug("sandbox reset")
}

// Dispose releases the instance for good. It is idempotent.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.disposed = true
	s.generation++
	s.closeLocked()
	s.logger.Debug("sandbox disposed")
}

func (s *Session) closeLocked() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		s.logger.Warn("failed to close database instance", "error", err)
	}
	s.db = nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
