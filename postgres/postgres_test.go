package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/flow/storetest"
)

// Integration test; set FLOW_TEST_DATABASE_URL to a disposable database.
func TestPGStore(t *testing.T) {
	dbURL := os.Getenv("FLOW_TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("FLOW_TEST_DATABASE_URL is not set")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	s := New(pool)
	require.NoError(t, s.DropSchema(ctx))
	require.NoError(t, s.CreateSchema(ctx))
	t.Cleanup(func() { _ = s.DropSchema(context.Background()) })

	storetest.Run(t, s)
}
