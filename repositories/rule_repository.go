package repositories

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

func (repo *GridforgeDbRepository) CreateRule(ctx context.Context, exec Executor,
	ruleId uuid.UUID, input models.CreateRuleInput,
) error {
	condition, err := json.Marshal(input.Condition)
	if err != nil {
		return errors.Wrap(err, "can't encode rule condition")
	}
	action, err := json.Marshal(input.Action)
	if err != nil {
		return errors.Wrap(err, "can't encode rule action")
	}

	err = ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_RULE_DEFINITIONS).
			Columns(
				"id",
				"name",
				"description",
				"source",
				"source_id",
				"priority",
				"discipline",
				"category",
				"action_kind",
				"is_enforced",
				"condition",
				"action",
				"validation_status",
			).
			Values(
				ruleId,
				input.Name,
				input.Description,
				input.Source,
				input.SourceId,
				input.Priority,
				input.Discipline,
				input.Category,
				input.ActionKind,
				input.IsEnforced,
				condition,
				action,
				models.RuleStatusDraft,
			),
	)
	if IsUniqueViolationError(err) {
		return errors.Wrap(models.ConflictError, "a rule with this name already exists for this source")
	}
	return err
}

func (repo *GridforgeDbRepository) GetRuleById(ctx context.Context, exec Executor,
	ruleId uuid.UUID,
) (models.RuleDefinition, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectRuleDefinitionColumn...).
			From(dbmodels.TABLE_RULE_DEFINITIONS).
			Where(squirrel.Eq{"id": ruleId}),
		dbmodels.AdaptRuleDefinition,
	)
}

// ListActiveRulesForProject loads every rule applicable to the project:
// firm-wide rules, country rules for the project's country, rules scoped to
// the project itself and client rules when the project has a client.
func (repo *GridforgeDbRepository) ListActiveRulesForProject(ctx context.Context, exec Executor,
	project models.Project,
) ([]models.RuleDefinition, error) {
	scopes := squirrel.Or{
		squirrel.Eq{"source": models.RuleSourceFirm},
		squirrel.And{
			squirrel.Eq{"source": models.RuleSourceCountry},
			squirrel.Eq{"source_id": project.Country},
		},
		squirrel.And{
			squirrel.Eq{"source": models.RuleSourceProject},
			squirrel.Eq{"source_id": project.Id.String()},
		},
	}
	if project.ClientId != nil {
		scopes = append(scopes, squirrel.And{
			squirrel.Eq{"source": models.RuleSourceClient},
			squirrel.Eq{"source_id": project.ClientId.String()},
		})
	}

	query := NewQueryBuilder().
		Select(dbmodels.SelectRuleDefinitionColumn...).
		From(dbmodels.TABLE_RULE_DEFINITIONS).
		Where(squirrel.Eq{"is_active": true}).
		Where(scopes).
		OrderBy("priority DESC, created_at ASC")

	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptRuleDefinition)
}

func (repo *GridforgeDbRepository) ListRulesBySource(ctx context.Context, exec Executor,
	source models.RuleSource, sourceId *string,
) ([]models.RuleDefinition, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectRuleDefinitionColumn...).
		From(dbmodels.TABLE_RULE_DEFINITIONS).
		Where(squirrel.Eq{"source": source}).
		OrderBy("priority DESC, created_at ASC")

	if sourceId != nil {
		query = query.Where(squirrel.Eq{"source_id": *sourceId})
	}
	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptRuleDefinition)
}

func (repo *GridforgeDbRepository) UpdateRule(ctx context.Context, exec Executor,
	input models.UpdateRuleInput,
) error {
	query := NewQueryBuilder().Update(dbmodels.TABLE_RULE_DEFINITIONS).
		Where(squirrel.Eq{"id": input.Id}).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1"))

	if input.Name != nil {
		query = query.Set("name", *input.Name)
	}
	if input.Description != nil {
		query = query.Set("description", *input.Description)
	}
	if input.Priority != nil {
		query = query.Set("priority", *input.Priority)
	}
	if input.IsEnforced != nil {
		query = query.Set("is_enforced", *input.IsEnforced)
	}
	if input.Condition != nil {
		condition, err := json.Marshal(*input.Condition)
		if err != nil {
			return errors.Wrap(err, "can't encode rule condition")
		}
		query = query.Set("condition", condition)
	}
	if input.Action != nil {
		action, err := json.Marshal(*input.Action)
		if err != nil {
			return errors.Wrap(err, "can't encode rule action")
		}
		query = query.Set("action", action)
	}
	if input.IsActive != nil {
		query = query.Set("is_active", *input.IsActive)
	}
	return ExecBuilder(ctx, exec, query)
}

func (repo *GridforgeDbRepository) UpdateRuleValidationStatus(ctx context.Context, exec Executor,
	ruleId uuid.UUID, status models.RuleValidationStatus,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_RULE_DEFINITIONS).
			Where(squirrel.Eq{"id": ruleId}).
			Set("validation_status", status).
			Set("updated_at", squirrel.Expr("NOW()")),
	)
}

// RecordRuleExecutionStats bumps the per-rule counters after a run. Failure
// means the handler returned an error, not a validation outcome.
func (repo *GridforgeDbRepository) RecordRuleExecutionStats(ctx context.Context, exec Executor,
	ruleId uuid.UUID, executions, failures int,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_RULE_DEFINITIONS).
			Where(squirrel.Eq{"id": ruleId}).
			Set("execution_count", squirrel.Expr("execution_count + ?", executions)).
			Set("success_count", squirrel.Expr("success_count + ?", executions-failures)).
			Set("failure_count", squirrel.Expr("failure_count + ?", failures)).
			Set("last_executed_at", squirrel.Expr("NOW()")),
	)
}
