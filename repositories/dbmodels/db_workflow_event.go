package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/utils"
)

type DBWorkflowEvent struct {
	Id            uuid.UUID       `db:"id"`
	ProjectId     uuid.UUID       `db:"project_id"`
	CorrelationId uuid.UUID       `db:"correlation_id"`
	ParentEventId uuid.NullUUID   `db:"parent_event_id"`
	ActionType    string          `db:"action_type"`
	Status        null.String     `db:"status"`
	Level         string          `db:"level"`
	Source        string          `db:"source"`
	Actor         string          `db:"actor"`
	Message       string          `db:"message"`
	EntityId      uuid.NullUUID   `db:"entity_id"`
	RuleId        uuid.NullUUID   `db:"rule_id"`
	Details       json.RawMessage `db:"details"`
	CreatedAt     time.Time       `db:"created_at"`
}

const TABLE_WORKFLOW_EVENTS = "workflow_events"

var SelectWorkflowEventColumn = utils.ColumnList[DBWorkflowEvent]()

func AdaptWorkflowEvent(db DBWorkflowEvent) (models.WorkflowEvent, error) {
	event := models.WorkflowEvent{
		Id:            db.Id,
		ProjectId:     db.ProjectId,
		CorrelationId: db.CorrelationId,
		ActionType:    models.WorkflowActionType(db.ActionType),
		Level:         models.LogLevel(db.Level),
		Source:        models.LogSource(db.Source),
		Actor:         db.Actor,
		Message:       db.Message,
		CreatedAt:     db.CreatedAt,
	}
	if db.ParentEventId.Valid {
		parentEventId := db.ParentEventId.UUID
		event.ParentEventId = &parentEventId
	}
	if db.Status.Valid {
		status := models.WorkflowStatus(db.Status.String)
		event.Status = &status
	}
	if db.EntityId.Valid {
		entityId := db.EntityId.UUID
		event.EntityId = &entityId
	}
	if db.RuleId.Valid {
		ruleId := db.RuleId.UUID
		event.RuleId = &ruleId
	}
	if len(db.Details) > 0 {
		if err := json.Unmarshal(db.Details, &event.Details); err != nil {
			return models.WorkflowEvent{}, errors.Wrap(err, "can't decode event details")
		}
	}
	return event, nil
}
