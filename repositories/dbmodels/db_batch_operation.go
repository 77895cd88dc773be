package dbmodels

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/utils"
)

type DBBatchOperation struct {
	Id             uuid.UUID `db:"id"`
	ProjectId      uuid.UUID `db:"project_id"`
	Type           string    `db:"type"`
	Status         string    `db:"status"`
	Description    string    `db:"description"`
	InitiatedBy    string    `db:"initiated_by"`
	RollbackReason string    `db:"rollback_reason"`
	RolledBackBy   string    `db:"rolled_back_by"`
	RolledBackAt   null.Time `db:"rolled_back_at"`
	CreatedAt      time.Time `db:"created_at"`
}

const TABLE_BATCH_OPERATIONS = "batch_operations"

var SelectBatchOperationColumn = utils.ColumnList[DBBatchOperation]()

func AdaptBatchOperation(db DBBatchOperation) (models.BatchOperation, error) {
	batch := models.BatchOperation{
		Id:             db.Id,
		ProjectId:      db.ProjectId,
		Type:           models.BatchOperationType(db.Type),
		Status:         models.BatchStatus(db.Status),
		Description:    db.Description,
		InitiatedBy:    db.InitiatedBy,
		RollbackReason: db.RollbackReason,
		RolledBackBy:   db.RolledBackBy,
		CreatedAt:      db.CreatedAt,
	}
	if db.RolledBackAt.Valid {
		rolledBackAt := db.RolledBackAt.Time
		batch.RolledBackAt = &rolledBackAt
	}
	return batch, nil
}
