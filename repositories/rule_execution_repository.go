package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

func (repo *GridforgeDbRepository) CreateRuleExecution(ctx context.Context, exec Executor,
	executionId uuid.UUID, input models.CreateRuleExecutionInput,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_RULE_EXECUTIONS).
			Columns(
				"id",
				"run_id",
				"rule_id",
				"rule_name",
				"project_id",
				"entity_id",
				"entity_tag",
				"outcome",
				"detail",
				"created_asset_id",
				"batch_id",
				"duration_ms",
			).
			Values(
				executionId,
				input.RunId,
				input.RuleId,
				input.RuleName,
				input.ProjectId,
				input.EntityId,
				input.EntityTag,
				input.Outcome,
				input.Detail,
				input.CreatedAssetId,
				input.BatchId,
				input.DurationMs,
			),
	)
}

func (repo *GridforgeDbRepository) ListRuleExecutionsForRun(ctx context.Context, exec Executor,
	runId uuid.UUID,
) ([]models.RuleExecution, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectRuleExecutionColumn...).
			From(dbmodels.TABLE_RULE_EXECUTIONS).
			Where(squirrel.Eq{"run_id": runId}).
			OrderBy("created_at ASC"),
		dbmodels.AdaptRuleExecution,
	)
}

func (repo *GridforgeDbRepository) ListRuleExecutionsForEntity(ctx context.Context, exec Executor,
	entityId uuid.UUID, limit int,
) ([]models.RuleExecution, error) {
	query := NewQueryBuilder().Select(dbmodels.SelectRuleExecutionColumn...).
		From(dbmodels.TABLE_RULE_EXECUTIONS).
		Where(squirrel.Eq{"entity_id": entityId}).
		OrderBy("created_at DESC")

	if limit > 0 {
		query = query.Limit(uint64(limit))
	}
	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptRuleExecution)
}
