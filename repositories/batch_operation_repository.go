package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

func (repo *GridforgeDbRepository) CreateBatchOperation(ctx context.Context, exec Executor,
	batchId uuid.UUID, input models.CreateBatchOperationInput,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_BATCH_OPERATIONS).
			Columns(
				"id",
				"project_id",
				"type",
				"status",
				"description",
				"initiated_by",
			).
			Values(
				batchId,
				input.ProjectId,
				input.Type,
				models.BatchStatusActive,
				input.Description,
				input.InitiatedBy,
			),
	)
}

func (repo *GridforgeDbRepository) GetBatchOperationById(ctx context.Context, exec Executor,
	batchId uuid.UUID,
) (models.BatchOperation, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectBatchOperationColumn...).
			From(dbmodels.TABLE_BATCH_OPERATIONS).
			Where(squirrel.Eq{"id": batchId}),
		dbmodels.AdaptBatchOperation,
	)
}

func (repo *GridforgeDbRepository) MarkBatchRolledBack(ctx context.Context, exec Executor,
	batchId uuid.UUID, reason, rolledBackBy string,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_BATCH_OPERATIONS).
			Where(squirrel.Eq{"id": batchId}).
			Set("status", models.BatchStatusRolledBack).
			Set("rollback_reason", reason).
			Set("rolled_back_by", rolledBackBy).
			Set("rolled_back_at", squirrel.Expr("NOW()")),
	)
}

func (repo *GridforgeDbRepository) ListBatchOperationsForProject(ctx context.Context, exec Executor,
	projectId uuid.UUID,
) ([]models.BatchOperation, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectBatchOperationColumn...).
			From(dbmodels.TABLE_BATCH_OPERATIONS).
			Where(squirrel.Eq{"project_id": projectId}).
			OrderBy("created_at DESC"),
		dbmodels.AdaptBatchOperation,
	)
}
