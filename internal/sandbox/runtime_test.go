package sandbox

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlquest/internal/testutil"
	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/leapstack-labs/sqlquest/pkg/core"
)

// fakeAdapter is a scriptable engine for exercising session lifecycle.
type fakeAdapter struct {
	connectErr error
	gate       *gate
	versions   *atomic.Int32
	connects   *atomic.Int32
	panicOn    bool
}

var _ adapter.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Connect(_ context.Context, _ adapter.Config) error {
	if f.connects != nil {
		f.connects.Add(1)
	}
	if f.gate != nil {
		f.gate.wait()
	}
	if f.connectErr != nil {
		return f.connectErr
	}
	return nil
}

func (f *fakeAdapter) Close() error { return nil }

func (f *fakeAdapter) Exec(_ context.Context, _ string) (int64, error) {
	if f.panicOn {
		panic("driver exploded")
	}
	return 0, nil
}

func (f *fakeAdapter) Query(_ context.Context, _ string) (*adapter.Rows, error) {
	if f.panicOn {
		panic("driver exploded")
	}
	return nil, errors.New("not supported")
}

func (f *fakeAdapter) Tables(_ context.Context) ([]core.TableInfo, error) {
	if f.panicOn {
		panic("catalog exploded")
	}
	return nil, nil
}

func (f *fakeAdapter) Version(_ context.Context) (string, error) {
	if f.versions != nil {
		f.versions.Add(1)
	}
	return "fake-1.0", nil
}

func (f *fakeAdapter) Name() string { return "fake" }

// gate blocks the first caller until released.
type gate struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wait() {
	g.once.Do(func() { close(g.started) })
	<-g.release
}

// mockAdapter runs a BaseSQLAdapter over go-sqlmock.
type mockAdapter struct {
	adapter.BaseSQLAdapter
}

func (m *mockAdapter) Connect(_ context.Context, _ adapter.Config) error { return nil }
func (m *mockAdapter) Tables(_ context.Context) ([]core.TableInfo, error) {
	return nil, errors.New("not supported")
}
func (m *mockAdapter) Version(_ context.Context) (string, error) { return "mock", nil }
func (m *mockAdapter) Name() string                              { return "mock" }

func isolatedSession(t *testing.T, engine string) *Session {
	t.Helper()
	s := New(Options{Engine: engine, Logger: testutil.NewTestLogger(t)})
	s.rt = newRuntime()
	t.Cleanup(s.Dispose)
	return s
}

func TestRuntime_BootFailureIsRetried(t *testing.T) {
	var connects atomic.Int32
	adapter.Register("broken-test", func(*slog.Logger) adapter.Adapter {
		return &fakeAdapter{connectErr: errors.New("wasm unavailable"), connects: &connects}
	})

	s := isolatedSession(t, "broken-test")
	ctx := context.Background()

	err := s.Initialize(ctx, "")
	require.Error(t, err)
	assert.True(t, core.IsEngineBootError(err))
	assert.Contains(t, err.Error(), "wasm unavailable")
	assert.False(t, s.Initialized())

	_, booted := s.rt.Version("broken-test")
	assert.False(t, booted)

	err = s.Initialize(ctx, "")
	require.Error(t, err)
	assert.Equal(t, int32(2), connects.Load())
}

func TestRuntime_UnknownEngine(t *testing.T) {
	s := isolatedSession(t, "no-such-engine")

	err := s.Initialize(context.Background(), "")
	require.Error(t, err)

	var bootErr *core.EngineBootError
	require.ErrorAs(t, err, &bootErr)
	assert.Equal(t, "no-such-engine", bootErr.Engine)

	var unknown *adapter.UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}

func TestRuntime_BootsOncePerProcess(t *testing.T) {
	var versions atomic.Int32
	adapter.Register("counting-test", func(*slog.Logger) adapter.Adapter {
		return &fakeAdapter{versions: &versions}
	})

	rt := newRuntime()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := New(Options{Engine: "counting-test"})
			s.rt = rt
			defer s.Dispose()
			errs[i] = s.Initialize(ctx, "")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), versions.Load())

	v, ok := rt.Version("counting-test")
	assert.True(t, ok)
	assert.Equal(t, "fake-1.0", v)
}

func TestRuntime_ResetDuringBootDiscardsInitialize(t *testing.T) {
	g := newGate()
	adapter.Register("gated-test", func(*slog.Logger) adapter.Adapter {
		return &fakeAdapter{gate: g}
	})

	s := isolatedSession(t, "gated-test")
	errCh := make(chan error, 1)
	go func() { errCh <- s.Initialize(context.Background(), "") }()

	<-g.started
	s.Reset()
	close(g.release)

	err := <-errCh
	assert.ErrorIs(t, err, core.ErrInitializeDiscarded)
	assert.False(t, s.Initialized())

	// The runtime booted anyway, so the next call succeeds.
	require.NoError(t, s.Initialize(context.Background(), ""))
	assert.True(t, s.Initialized())
}

func TestRuntime_DisposeDuringBootDiscardsInitialize(t *testing.T) {
	g := newGate()
	adapter.Register("gated-dispose-test", func(*slog.Logger) adapter.Adapter {
		return &fakeAdapter{gate: g}
	})

	s := isolatedSession(t, "gated-dispose-test")
	errCh := make(chan error, 1)
	go func() { errCh <- s.Initialize(context.Background(), "") }()

	<-g.started
	s.Dispose()
	close(g.release)

	assert.ErrorIs(t, <-errCh, core.ErrInitializeDiscarded)
	assert.False(t, s.Initialized())
}

func TestSession_PanicsBecomeFailures(t *testing.T) {
	s := isolatedSession(t, "unused")
	s.db = &fakeAdapter{panicOn: true}
	ctx := context.Background()

	res := s.ExecuteQuery(ctx, "INSERT INTO t VALUES (1)")
	assert.False(t, res.OK)
	assert.Contains(t, res.Error, "driver exploded")

	res = s.ExecuteQuery(ctx, "SELECT 1")
	assert.False(t, res.OK)

	_, err := s.GetSchema(ctx)
	assert.ErrorContains(t, err, "catalog exploded")
}

func TestSession_EngineErrorsVerbatim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO t").WillReturnError(errors.New("UNIQUE constraint failed: t.id"))
	mock.ExpectClose()

	s := isolatedSession(t, "unused")
	s.db = &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}}

	res := s.ExecuteQuery(context.Background(), "INSERT INTO t VALUES (1); INSERT INTO t VALUES (1); INSERT INTO t VALUES (2);")
	assert.False(t, res.OK)
	assert.Equal(t, "UNIQUE constraint failed: t.id", res.Error)

	s.Reset()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSession_QueryNormalizesValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"id", "flag", "name"}).
			AddRow(int64(1), true, "a").
			AddRow(int64(2), false, nil),
	)

	s := isolatedSession(t, "unused")
	s.db = &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}}

	res := s.ExecuteQuery(context.Background(), "SELECT id, flag, name FROM t")
	require.True(t, res.OK, res.Error)
	assert.Equal(t, []string{"id", "flag", "name"}, res.Columns)
	assert.Equal(t, []core.Row{
		{int64(1), int64(1), "a"},
		{int64(2), int64(0), nil},
	}, res.Rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
