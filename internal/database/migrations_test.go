package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunMigrations(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	err := RunMigrations(ctx, pool)
	require.NoError(t, err)

	for _, table := range []string{"users", "expenditures", "expenditure_splits"} {
		var tableExists bool
		err = pool.QueryRow(ctx, `
			SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_name = $1
			)
		`, table).Scan(&tableExists)
		require.NoError(t, err)
		require.True(t, tableExists, "table %s missing", table)
	}

	version, dirty, err := SchemaVersion(pool)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), version)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	pool := TestDB(t)
	ctx := context.Background()

	require.NoError(t, RunMigrations(ctx, pool))
	require.NoError(t, RunMigrations(ctx, pool))

	// The pool survives the migrator closing its handle.
	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM expenditures").Scan(&count)
	require.NoError(t, err)
}

func TestRunMigrations_CancelledContext(t *testing.T) {
	pool := TestDB(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RunMigrations(ctx, pool)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSplitConstraints(t *testing.T) {
	db := TestTx(t)
	ctx := context.Background()

	_, err := db.Exec(ctx, `INSERT INTO users (id, username) VALUES (9001, 'owner')`)
	require.NoError(t, err)

	var id int64
	err = db.QueryRow(ctx, `
		INSERT INTO expenditures (user_id, amount, category, description, date, payment_method, total_amount, paid_by)
		VALUES (9001, 10, 'food', 'lunch', NOW(), 'cash', 10, 9001)
		RETURNING id
	`).Scan(&id)
	require.NoError(t, err)

	_, err = db.Exec(ctx, `INSERT INTO expenditure_splits (expenditure_id, position, user_id, amount) VALUES ($1, 0, 9002, 5)`, id)
	require.NoError(t, err)

	sp, err := db.Begin(ctx)
	require.NoError(t, err)
	_, err = sp.Exec(ctx, `INSERT INTO expenditure_splits (expenditure_id, position, user_id, amount) VALUES ($1, 1, 9002, 5)`, id)
	require.Error(t, err, "a participant appears once per expenditure")
	require.NoError(t, sp.Rollback(ctx))

	_, err = db.Exec(ctx, `DELETE FROM expenditures WHERE id = $1`, id)
	require.NoError(t, err)

	var remaining int
	err = db.QueryRow(ctx, `SELECT COUNT(*) FROM expenditure_splits WHERE expenditure_id = $1`, id).Scan(&remaining)
	require.NoError(t, err)
	require.Zero(t, remaining)
}
