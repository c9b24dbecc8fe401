package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Factory builds an unconnected engine adapter.
type Factory func(*slog.Logger) Adapter

// ErrUnknownEngine is matched by UnknownAdapterError.
var ErrUnknownEngine = errors.New("unknown engine")

// engines maps normalized engine names to their factories. Engine packages
// fill it from init, so reads vastly outnumber writes.
var engines = struct {
	sync.RWMutex
	byName map[string]Factory
}{byName: make(map[string]Factory)}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes an engine available under name. Engine packages call it
// from init; a later registration under the same name replaces the earlier.
func Register(name string, factory Factory) {
	if factory == nil {
		panic("adapter: Register factory is nil for " + name)
	}
	engines.Lock()
	defer engines.Unlock()
	engines.byName[normalizeName(name)] = factory
}

// Get returns the factory registered under name.
func Get(name string) (Factory, bool) {
	engines.RLock()
	defer engines.RUnlock()
	f, ok := engines.byName[normalizeName(name)]
	return f, ok
}

// IsRegistered reports whether an engine is registered under name.
func IsRegistered(name string) bool {
	_, ok := Get(name)
	return ok
}

// ListAdapters returns the registered engine names in sorted order.
func ListAdapters() []string {
	engines.RLock()
	names := make([]string, 0, len(engines.byName))
	for name := range engines.byName {
		names = append(names, name)
	}
	engines.RUnlock()
	sort.Strings(names)
	return names
}

// NewAdapter builds the adapter for cfg.Type. It does not connect. A nil
// logger discards.
func NewAdapter(cfg Config, logger *slog.Logger) (Adapter, error) {
	if strings.TrimSpace(cfg.Type) == "" {
		return nil, fmt.Errorf("adapter type not specified")
	}
	factory, ok := Get(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: ListAdapters()}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return factory(logger), nil
}

// UnknownAdapterError reports a sandbox engine that no linked package
// registered.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	available := "none registered"
	if len(e.Available) > 0 {
		available = strings.Join(e.Available, ", ")
	}
	return fmt.Sprintf("unknown engine %q (available: %s); choose one with --engine, SQLQUEST_ENGINE or the engine key in sqlquest.yaml",
		e.Type, available)
}

// Unwrap lets errors.Is match ErrUnknownEngine.
func (e *UnknownAdapterError) Unwrap() error { return ErrUnknownEngine }
