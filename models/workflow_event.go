package models

import (
	"time"

	"github.com/google/uuid"
)

type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

type LogSource string

const (
	LogSourceUser   LogSource = "USER"
	LogSourceSystem LogSource = "SYSTEM"
	LogSourceRule   LogSource = "RULE"
)

type WorkflowActionType string

const (
	WorkflowActionRuleRun     WorkflowActionType = "RULE_RUN"
	WorkflowActionImport      WorkflowActionType = "IMPORT"
	WorkflowActionRollback    WorkflowActionType = "ROLLBACK"
	WorkflowActionCableSizing WorkflowActionType = "CABLE_SIZING"
	WorkflowActionRuleChange  WorkflowActionType = "RULE_CHANGE"
)

type WorkflowStatus string

const (
	WorkflowStatusStarted   WorkflowStatus = "STARTED"
	WorkflowStatusCompleted WorkflowStatus = "COMPLETED"
	WorkflowStatusFailed    WorkflowStatus = "FAILED"
)

// WorkflowEvent is one audit log line. Events of a single workflow share a
// CorrelationId so its start, progress and terminal entries can be read as
// one story. The STARTED entry is the root of the hierarchy; later entries
// of the workflow reference it through ParentEventId.
type WorkflowEvent struct {
	Id            uuid.UUID
	ProjectId     uuid.UUID
	CorrelationId uuid.UUID
	ParentEventId *uuid.UUID
	ActionType    WorkflowActionType
	Status        *WorkflowStatus
	Level         LogLevel
	Source        LogSource
	Actor         string
	Message       string
	EntityId      *uuid.UUID
	RuleId        *uuid.UUID
	Details       map[string]any
	CreatedAt     time.Time
}

type CreateWorkflowEventInput struct {
	ProjectId     uuid.UUID
	CorrelationId uuid.UUID
	ParentEventId *uuid.UUID
	ActionType    WorkflowActionType
	Status        *WorkflowStatus
	Level         LogLevel
	Source        LogSource
	Actor         string
	Message       string
	EntityId      *uuid.UUID
	RuleId        *uuid.UUID
	Details       map[string]any
}

// WorkflowEventFilter narrows audit queries. Zero values mean no filter.
type WorkflowEventFilter struct {
	CorrelationId *uuid.UUID
	ActionType    *WorkflowActionType
	Level         *LogLevel
	EntityId      *uuid.UUID
	Since         *time.Time
	Until         *time.Time
	Limit         int
}
