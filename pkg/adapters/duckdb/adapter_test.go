package duckdb

import (
	"context"
	"testing"

	"github.com/leapstack-labs/sqlquest/pkg/adapter"
	"github.com/leapstack-labs/sqlquest/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, cfg core.AdapterConfig) *Adapter {
	t.Helper()
	adp := New(nil)
	require.NoError(t, adp.Connect(context.Background(), cfg))
	t.Cleanup(func() { _ = adp.Close() })
	return adp
}

func TestAdapter_Registered(t *testing.T) {
	assert.True(t, adapter.IsRegistered(Name))
}

func TestAdapter_ConnectInMemory(t *testing.T) {
	for _, path := range []string{"", ":memory:"} {
		adp := connect(t, core.AdapterConfig{Path: path})
		v, err := adp.Version(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, v)
	}
}

func TestAdapter_Tables(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{})

	_, err := adp.Exec(ctx, "CREATE TABLE zebra(id INTEGER, name VARCHAR)")
	require.NoError(t, err)
	_, err = adp.Exec(ctx, "CREATE TABLE apple(qty DOUBLE)")
	require.NoError(t, err)
	_, err = adp.Exec(ctx, "CREATE VIEW v AS SELECT * FROM zebra")
	require.NoError(t, err)

	tables, err := adp.Tables(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"zebra", "apple"}, core.TableNames(tables))
	assert.Equal(t, []core.ColumnInfo{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "VARCHAR"}}, tables[0].Columns)

	_, err = adp.Exec(ctx, "DROP VIEW v")
	require.NoError(t, err)
	_, err = adp.Exec(ctx, "DROP TABLE zebra")
	require.NoError(t, err)
	tables, err = adp.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"apple"}, core.TableNames(tables))
}

func TestAdapter_Settings(t *testing.T) {
	ctx := context.Background()
	adp := connect(t, core.AdapterConfig{Params: map[string]any{
		"settings": map[string]any{"threads": "1"},
	}})

	v, err := adp.QueryString(ctx, "SELECT current_setting('threads')::VARCHAR")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestAdapter_NotConnected(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)

	_, err := adp.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)

	_, err = adp.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, adapter.ErrNotConnected)
}
