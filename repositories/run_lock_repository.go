package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

// AcquireProjectRunLock claims the per-project mutual exclusion row. It
// returns false without error when another run already holds the lock.
func (repo *GridforgeDbRepository) AcquireProjectRunLock(ctx context.Context, exec Executor,
	projectId, runId uuid.UUID,
) (bool, error) {
	query := NewQueryBuilder().Insert(dbmodels.TABLE_PROJECT_RUN_LOCKS).
		Columns("project_id", "run_id").
		Values(projectId, runId).
		Suffix("ON CONFLICT (project_id) DO NOTHING")

	sql, args, err := query.ToSql()
	if err != nil {
		return false, err
	}
	tag, err := exec.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (repo *GridforgeDbRepository) ReleaseProjectRunLock(ctx context.Context, exec Executor,
	projectId, runId uuid.UUID,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Delete(dbmodels.TABLE_PROJECT_RUN_LOCKS).
			Where(squirrel.Eq{"project_id": projectId}).
			Where(squirrel.Eq{"run_id": runId}),
	)
}
