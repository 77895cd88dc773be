package repositories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireProjectRunLock(t *testing.T) {
	repo := &GridforgeDbRepository{}
	projectId := uuid.New()
	runId := uuid.New()

	insertSql := "INSERT INTO project_run_locks (project_id,run_id) VALUES ($1,$2) " +
		"ON CONFLICT (project_id) DO NOTHING"

	t.Run("acquires when no run is in flight", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectExec(insertSql).
			WithArgs(projectId, runId).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		acquired, err := repo.AcquireProjectRunLock(context.Background(), exec, projectId, runId)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("reports held lock without error", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectExec(insertSql).
			WithArgs(projectId, runId).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))

		acquired, err := repo.AcquireProjectRunLock(context.Background(), exec, projectId, runId)
		require.NoError(t, err)
		assert.False(t, acquired)
	})
}

func TestReleaseProjectRunLock(t *testing.T) {
	repo := &GridforgeDbRepository{}
	projectId := uuid.New()
	runId := uuid.New()

	exec, mock := newMockExecutor(t)
	// squirrel unwraps driver.Valuer args in Where clauses to their string form
	mock.ExpectExec("DELETE FROM project_run_locks WHERE project_id = $1 AND run_id = $2").
		WithArgs(projectId.String(), runId.String()).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := repo.ReleaseProjectRunLock(context.Background(), exec, projectId, runId)
	require.NoError(t, err)
}
