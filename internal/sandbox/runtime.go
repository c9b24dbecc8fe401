package sandbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/leapstack-labs/sqlquest/pkg/adapter"
)

// runtime tracks which embedded engines have been brought up in this
// process. Boots are lazy, happen once per engine type and are shared by
// every session. A failed boot is not remembered, so the next call retries.
type runtime struct {
	group singleflight.Group

	mu     sync.Mutex
	booted map[string]string // engine -> version
}

var processRuntime = newRuntime()

func newRuntime() *runtime {
	return &runtime{booted: make(map[string]string)}
}

// Version returns the version recorded when engine booted.
func (r *runtime) Version(engine string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.booted[engine]
	return v, ok
}

// Boot makes sure the engine runtime is available. Concurrent callers for
// the same engine share one boot. The caller's context only bounds its own
// wait; the shared boot itself runs detached from cancellation.
func (r *runtime) Boot(ctx context.Context, engine string, params map[string]any, logger *slog.Logger) (string, error) {
	if v, ok := r.Version(engine); ok {
		return v, nil
	}

	ch := r.group.DoChan(engine, func() (any, error) {
		if v, ok := r.Version(engine); ok {
			return v, nil
		}
		v, err := bootEngine(context.WithoutCancel(ctx), engine, params, logger)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.booted[engine] = v
		r.mu.Unlock()
		return v, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// bootEngine opens a throwaway in-memory instance and probes its version.
func bootEngine(ctx context.Context, engine string, params map[string]any, logger *slog.Logger) (string, error) {
	logger.Debug("booting engine runtime", "engine", engine)

	cfg := adapter.Config{Type: engine, Path: adapter.MemoryPath, Params: params}
	db, err := adapter.NewAdapter(cfg, logger)
	if err != nil {
		return "", err
	}
	if err := db.Connect(ctx, cfg); err != nil {
		return "", fmt.Errorf("failed to open probe instance: %w", err)
	}
	defer func() { _ = db.Close() }()

	version, err := db.Version(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to probe version: %w", err)
	}

	logger.Info("engine runtime ready", "engine", engine, "version", version)
	return version, nil
}
