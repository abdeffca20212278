package db_test

import (
	"context"
	"testing"

	"github.com/myrjola/gatehouse/internal/db"
	"github.com/stretchr/testify/require"
)

func TestNewDB_inMemory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbs, err := db.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})

	// Writes through the read/write connection must be visible through the
	// read-only connection, which proves both point at the same database.
	_, err = dbs.ReadWrite.ExecContext(ctx,
		`INSERT INTO training_events (run_id, type, stage, student) VALUES (?, ?, ?, ?)`,
		"run-1", "run_started", "intake", "Tester")
	require.NoError(t, err)

	var count int
	err = dbs.Read.GetContext(ctx, &count, `SELECT count(*) FROM training_events WHERE run_id = ?`, "run-1")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestNewDB_separateInMemoryDatabases(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	first, err := db.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, first.Close())
	})
	second, err := db.NewDB(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, second.Close())
	})

	_, err = first.ReadWrite.ExecContext(ctx,
		`INSERT INTO training_events (run_id, type, stage, student) VALUES (?, ?, ?, ?)`,
		"run-1", "run_started", "intake", "Tester")
	require.NoError(t, err)

	var count int
	err = second.Read.GetContext(ctx, &count, `SELECT count(*) FROM training_events`)
	require.NoError(t, err)
	require.Zero(t, count, "in-memory databases must not share state")
}
