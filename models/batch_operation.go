package models

import (
	"time"

	"github.com/google/uuid"
)

type BatchOperationType string

const (
	BatchTypeRuleRun  BatchOperationType = "RULE_RUN"
	BatchTypeImport   BatchOperationType = "IMPORT"
	BatchTypeRollback BatchOperationType = "ROLLBACK"
)

type BatchStatus string

const (
	BatchStatusActive     BatchStatus = "ACTIVE"
	BatchStatusRolledBack BatchStatus = "ROLLED_BACK"
)

// BatchOperation groups every version written during one logical operation
// (a rule run, an import) so the whole operation can be undone at once.
type BatchOperation struct {
	Id             uuid.UUID
	ProjectId      uuid.UUID
	Type           BatchOperationType
	Status         BatchStatus
	Description    string
	InitiatedBy    string
	RollbackReason string
	RolledBackBy   string
	RolledBackAt   *time.Time
	CreatedAt      time.Time
}

type CreateBatchOperationInput struct {
	ProjectId   uuid.UUID
	Type        BatchOperationType
	Description string
	InitiatedBy string
}
