package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConnected(t *testing.T) *Engine {
	t.Helper()
	e := New(nil)
	require.NoError(t, e.Connect(context.Background(), engine.Config{}))
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestEngine_ExecuteAndDescribe(t *testing.T) {
	e := newConnected(t)
	ctx := context.Background()

	_, err := e.DB.ExecContext(ctx, `CREATE TABLE t (id INTEGER, amount TEXT)`)
	require.NoError(t, err)
	_, err = e.DB.ExecContext(ctx, `INSERT INTO t VALUES (1, '100'), (2, '250')`)
	require.NoError(t, err)

	res, err := e.Execute(ctx, `SELECT id, amount FROM t ORDER BY id`)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount"}, res.Columns)
	assert.Len(t, res.Rows, 2)

	cols, err := e.DescribeColumns(ctx, "t")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, "INTEGER", cols[0].DeclaredType)

	_, err = e.DescribeColumns(ctx, "missing")
	assert.Error(t, err)
}

func TestEngine_ProbeSchema(t *testing.T) {
	e := newConnected(t)
	ctx := context.Background()

	_, err := e.DB.ExecContext(ctx, `CREATE TABLE t (a INTEGER, b TEXT)`)
	require.NoError(t, err)

	cols, err := e.ProbeSchema(ctx, `SELECT a, b FROM t`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cols)

	_, err = e.ProbeSchema(ctx, `SELECT nope FROM missing`)
	assert.Error(t, err)
}

func TestEngine_SampleColumn(t *testing.T) {
	e := newConnected(t)
	ctx := context.Background()

	_, err := e.DB.ExecContext(ctx, `CREATE TABLE t (v TEXT)`)
	require.NoError(t, err)
	_, err = e.DB.ExecContext(ctx, `INSERT INTO t VALUES ('$10'), (NULL), ('20')`)
	require.NoError(t, err)

	values, err := e.SampleColumn(ctx, "t", "v", 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"$10", "20"}, values)
}

func TestEngine_LoadCSV(t *testing.T) {
	e := newConnected(t)
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "orders.csv")
	data := "order id,amount\n1,$100\n2,$250\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	require.NoError(t, e.LoadCSV(ctx, "orders", path))

	// Header names are stored canonicalized.
	res, err := e.Execute(ctx, `SELECT order_id, amount FROM orders`)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)

	// Reloading replaces the table.
	require.NoError(t, e.LoadCSV(ctx, "orders", path))
	res, err = e.Execute(ctx, `SELECT COUNT(*) FROM orders`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
}
