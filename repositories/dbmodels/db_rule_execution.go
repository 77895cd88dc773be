package dbmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/utils"
)

type DBRuleExecution struct {
	Id             uuid.UUID     `db:"id"`
	RunId          uuid.UUID     `db:"run_id"`
	RuleId         uuid.UUID     `db:"rule_id"`
	RuleName       string        `db:"rule_name"`
	ProjectId      uuid.UUID     `db:"project_id"`
	EntityId       uuid.NullUUID `db:"entity_id"`
	EntityTag      string        `db:"entity_tag"`
	Outcome        string        `db:"outcome"`
	Detail         string        `db:"detail"`
	CreatedAssetId uuid.NullUUID `db:"created_asset_id"`
	BatchId        uuid.NullUUID `db:"batch_id"`
	DurationMs     int64         `db:"duration_ms"`
	CreatedAt      time.Time     `db:"created_at"`
}

const TABLE_RULE_EXECUTIONS = "rule_executions"

var SelectRuleExecutionColumn = utils.ColumnList[DBRuleExecution]()

func AdaptRuleExecution(db DBRuleExecution) (models.RuleExecution, error) {
	execution := models.RuleExecution{
		Id:         db.Id,
		RunId:      db.RunId,
		RuleId:     db.RuleId,
		RuleName:   db.RuleName,
		ProjectId:  db.ProjectId,
		EntityTag:  db.EntityTag,
		Outcome:    models.OutcomeKind(db.Outcome),
		Detail:     db.Detail,
		DurationMs: db.DurationMs,
		CreatedAt:  db.CreatedAt,
	}
	if db.EntityId.Valid {
		entityId := db.EntityId.UUID
		execution.EntityId = &entityId
	}
	if db.CreatedAssetId.Valid {
		createdAssetId := db.CreatedAssetId.UUID
		execution.CreatedAssetId = &createdAssetId
	}
	if db.BatchId.Valid {
		batchId := db.BatchId.UUID
		execution.BatchId = &batchId
	}
	return execution, nil
}
