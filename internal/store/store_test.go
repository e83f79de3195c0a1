package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyondude/supply-chain-security-collector/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(context.Background(), ":memory:", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestOpenCreatesParentDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out", "test.duckdb")

	st, err := Open(context.Background(), path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	assert.Equal(t, path, st.Path())
	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(t, err)
}

func TestIngestJSONRecords(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	type row struct {
		ID    string  `json:"id"`
		Count int     `json:"count"`
		Note  *string `json:"note"`
	}
	note := "hello"
	records := []any{
		row{ID: "a", Count: 1, Note: nil},
		row{ID: "b", Count: 2, Note: &note},
	}

	require.NoError(t, st.IngestJSONRecords(ctx, "things", records))

	var n int
	require.NoError(t, st.DB().QueryRowContext(ctx, "SELECT count(*) FROM things").Scan(&n))
	assert.Equal(t, 2, n)

	// Null in the first row must not collapse the column type.
	var got string
	require.NoError(t, st.DB().QueryRowContext(ctx, "SELECT note FROM things WHERE id = 'b'").Scan(&got))
	assert.Equal(t, "hello", got)
}

func TestIngestJSONRecordsReplaces(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	type row struct {
		ID string `json:"id"`
	}
	require.NoError(t, st.IngestJSONRecords(ctx, "things", []any{row{"a"}, row{"b"}}))
	require.NoError(t, st.IngestJSONRecords(ctx, "things", []any{row{"c"}}))

	var n int
	require.NoError(t, st.DB().QueryRowContext(ctx, "SELECT count(*) FROM things").Scan(&n))
	assert.Equal(t, 1, n, "re-ingest should replace, not append")
}

func TestIngestJSONRecordsEmpty(t *testing.T) {
	st := openTestStore(t)
	err := st.IngestJSONRecords(context.Background(), "things", nil)
	assert.Error(t, err)
}

func TestExportParquet(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	st.EnsureExtensions(ctx)

	require.NoError(t, st.Exec(ctx, "CREATE TABLE t AS SELECT 1 AS x UNION ALL SELECT 2"))

	dir := t.TempDir()
	require.NoError(t, st.ExportParquet(ctx, "t", dir))

	info, err := os.Stat(filepath.Join(dir, "t.parquet"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestListTablesAndViews(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	require.NoError(t, st.Exec(ctx, "CREATE TABLE raw_one (x INTEGER)"))
	require.NoError(t, st.Exec(ctx, "CREATE TABLE agg_two (x INTEGER)"))
	require.NoError(t, st.Exec(ctx, "CREATE VIEW agg_view AS SELECT * FROM agg_two"))

	tables, err := st.ListTables(ctx, "agg_%")
	require.NoError(t, err)
	assert.Equal(t, []string{"agg_two"}, tables)

	views, err := st.ListViews(ctx, "agg_%")
	require.NoError(t, err)
	assert.Equal(t, []string{"agg_view"}, views)

	all, err := st.ListTables(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEnsureExtensionsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	// Double call must not error or panic regardless of what installed.
	st.EnsureExtensions(ctx)
	st.EnsureExtensions(ctx)

	require.NoError(t, st.Exec(ctx, "SELECT 1"))
}

func TestCheckpointAndClose(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "durable.duckdb")

	st, err := Open(ctx, path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	require.NoError(t, st.Exec(ctx, "CREATE TABLE t AS SELECT 42 AS answer"))
	require.NoError(t, st.Checkpoint(ctx))
	require.NoError(t, st.Close())

	// Reopen and verify the table survived.
	st2, err := Open(ctx, path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = st2.Close() }()

	var answer int
	require.NoError(t, st2.DB().QueryRowContext(ctx, "SELECT answer FROM t").Scan(&answer))
	assert.Equal(t, 42, answer)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIdent("plain"))
	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
}
