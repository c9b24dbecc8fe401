package core

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the sandbox packages.
var (
	// ErrNotInitialized is returned when a sandbox is used before Initialize.
	ErrNotInitialized = errors.New("database not initialized")

	// ErrDisposed is returned when a disposed sandbox is initialized again.
	ErrDisposed = errors.New("sandbox disposed")

	// ErrInitializeDiscarded is returned when an initialization finished after
	// its session was reset, disposed, or its context was cancelled.
	ErrInitializeDiscarded = errors.New("initialization discarded: session changed while booting")
)

// EngineBootError reports that the embedded engine runtime or a database
// instance could not be created. The sandbox stays uninitialized.
type EngineBootError struct {
	Engine string
	Err    error
}

func (e *EngineBootError) Error() string {
	return fmt.Sprintf("failed to boot %s engine: %v", e.Engine, e.Err)
}

func (e *EngineBootError) Unwrap() error {
	return e.Err
}

// SeedError reports that a lesson seed script failed. The sandbox remains
// initialized with whatever the script applied before the failing statement.
type SeedError struct {
	Message string
}

func (e *SeedError) Error() string {
	return "seed schema failed: " + e.Message
}

// IsEngineBootError reports whether err is or wraps an EngineBootError.
func IsEngineBootError(err error) bool {
	var bootErr *EngineBootError
	return errors.As(err, &bootErr)
}
