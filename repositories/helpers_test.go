package repositories

import (
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	pgxmock.PgxPoolIface
}

// newMockExecutor returns an Executor backed by pgxmock with exact-string
// query matching, so tests assert the SQL the builders actually produce.
func newMockExecutor(t *testing.T) (mockExecutor, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, pool.ExpectationsWereMet())
		pool.Close()
	})
	return mockExecutor{pool}, pool
}
