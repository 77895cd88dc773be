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

func (repo *GridforgeDbRepository) CreateWorkflowEvent(ctx context.Context, exec Executor,
	eventId uuid.UUID, input models.CreateWorkflowEventInput,
) error {
	var details []byte
	if input.Details != nil {
		var err error
		details, err = json.Marshal(input.Details)
		if err != nil {
			return errors.Wrap(err, "can't encode event details")
		}
	}

	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_WORKFLOW_EVENTS).
			Columns(
				"id",
				"project_id",
				"correlation_id",
				"parent_event_id",
				"action_type",
				"status",
				"level",
				"source",
				"actor",
				"message",
				"entity_id",
				"rule_id",
				"details",
			).
			Values(
				eventId,
				input.ProjectId,
				input.CorrelationId,
				input.ParentEventId,
				input.ActionType,
				input.Status,
				input.Level,
				input.Source,
				input.Actor,
				input.Message,
				input.EntityId,
				input.RuleId,
				details,
			),
	)
}

func (repo *GridforgeDbRepository) ListWorkflowEvents(ctx context.Context, exec Executor,
	projectId uuid.UUID, filter models.WorkflowEventFilter,
) ([]models.WorkflowEvent, error) {
	query := NewQueryBuilder().Select(dbmodels.SelectWorkflowEventColumn...).
		From(dbmodels.TABLE_WORKFLOW_EVENTS).
		Where(squirrel.Eq{"project_id": projectId}).
		OrderBy("created_at DESC, id DESC")

	if filter.CorrelationId != nil {
		query = query.Where(squirrel.Eq{"correlation_id": *filter.CorrelationId})
	}
	if filter.ActionType != nil {
		query = query.Where(squirrel.Eq{"action_type": *filter.ActionType})
	}
	if filter.Level != nil {
		query = query.Where(squirrel.Eq{"level": *filter.Level})
	}
	if filter.EntityId != nil {
		query = query.Where(squirrel.Eq{"entity_id": *filter.EntityId})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Until != nil {
		query = query.Where(squirrel.Lt{"created_at": *filter.Until})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptWorkflowEvent)
}
