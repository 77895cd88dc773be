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

type DBRuleDefinition struct {
	Id          uuid.UUID   `db:"id"`
	Name        string      `db:"name"`
	Description string      `db:"description"`
	Source      string      `db:"source"`
	SourceId    null.String `db:"source_id"`
	Priority    int         `db:"priority"`
	Discipline  string      `db:"discipline"`
	Category    string      `db:"category"`

	ActionKind string          `db:"action_kind"`
	IsEnforced bool            `db:"is_enforced"`
	Condition  json.RawMessage `db:"condition"`
	Action     json.RawMessage `db:"action"`

	ValidationStatus string    `db:"validation_status"`
	IsActive         bool      `db:"is_active"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
	Version          int       `db:"version"`

	ExecutionCount int       `db:"execution_count"`
	SuccessCount   int       `db:"success_count"`
	FailureCount   int       `db:"failure_count"`
	LastExecutedAt null.Time `db:"last_executed_at"`
}

const TABLE_RULE_DEFINITIONS = "rule_definitions"

var SelectRuleDefinitionColumn = utils.ColumnList[DBRuleDefinition]()

func AdaptRuleDefinition(db DBRuleDefinition) (models.RuleDefinition, error) {
	source, err := models.RuleSourceFrom(db.Source)
	if err != nil {
		return models.RuleDefinition{}, err
	}
	actionKind, err := models.RuleActionKindFrom(db.ActionKind)
	if err != nil {
		return models.RuleDefinition{}, err
	}

	rule := models.RuleDefinition{
		Id:               db.Id,
		Name:             db.Name,
		Description:      db.Description,
		Source:           source,
		Priority:         db.Priority,
		Discipline:       db.Discipline,
		Category:         db.Category,
		ActionKind:       actionKind,
		IsEnforced:       db.IsEnforced,
		ValidationStatus: models.RuleValidationStatus(db.ValidationStatus),
		IsActive:         db.IsActive,
		CreatedAt:        db.CreatedAt,
		UpdatedAt:        db.UpdatedAt,
		Version:          db.Version,
		ExecutionCount:   db.ExecutionCount,
		SuccessCount:     db.SuccessCount,
		FailureCount:     db.FailureCount,
	}
	if db.SourceId.Valid {
		sourceId := db.SourceId.String
		rule.SourceId = &sourceId
	}
	if db.LastExecutedAt.Valid {
		lastExecutedAt := db.LastExecutedAt.Time
		rule.LastExecutedAt = &lastExecutedAt
	}
	if err := json.Unmarshal(db.Condition, &rule.Condition); err != nil {
		return models.RuleDefinition{}, errors.Wrap(err, "can't decode rule condition")
	}
	if err := json.Unmarshal(db.Action, &rule.Action); err != nil {
		return models.RuleDefinition{}, errors.Wrap(err, "can't decode rule action")
	}
	return rule, nil
}
