package models

import (
	"time"

	"github.com/google/uuid"
)

type OutcomeKind string

const (
	OutcomeCreate         OutcomeKind = "CREATE"
	OutcomeUpdate         OutcomeKind = "UPDATE"
	OutcomeLink           OutcomeKind = "LINK"
	OutcomeSkip           OutcomeKind = "SKIP"
	OutcomeError          OutcomeKind = "ERROR"
	OutcomeValidationWarn OutcomeKind = "VALIDATION_WARN"
	OutcomeValidationFail OutcomeKind = "VALIDATION_FAIL"
)

// RuleExecution records one application of one rule to one entity. Every
// evaluated (rule, entity) pair gets a row, including skips and failures,
// so a run can always be reconstructed from the audit trail.
type RuleExecution struct {
	Id             uuid.UUID
	RunId          uuid.UUID
	RuleId         uuid.UUID
	RuleName       string
	ProjectId      uuid.UUID
	EntityId       *uuid.UUID
	EntityTag      string
	Outcome        OutcomeKind
	Detail         string
	CreatedAssetId *uuid.UUID
	BatchId        *uuid.UUID
	DurationMs     int64
	CreatedAt      time.Time
}

type CreateRuleExecutionInput struct {
	RunId          uuid.UUID
	RuleId         uuid.UUID
	RuleName       string
	ProjectId      uuid.UUID
	EntityId       *uuid.UUID
	EntityTag      string
	Outcome        OutcomeKind
	Detail         string
	CreatedAssetId *uuid.UUID
	BatchId        *uuid.UUID
	DurationMs     int64
}

// RuleResult is the in-memory outcome a handler returns before it is
// persisted as a RuleExecution.
type RuleResult struct {
	Outcome        OutcomeKind
	Detail         string
	CreatedAssetId *uuid.UUID
	Mutated        bool
}

// RuleConflict describes a group of rules writing the same property under
// the same condition, of which one winner was applied.
type RuleConflict struct {
	EntityType     string
	TargetProperty string
	WinnerRuleId   uuid.UUID
	WinnerSource   RuleSource
	LoserRuleIds   []uuid.UUID
	Enforced       bool
}

// EnforcementViolation is reported when a firm enforced rule displaces a
// higher-tier rule that would otherwise have won.
type EnforcementViolation struct {
	EntityType      string
	TargetProperty  string
	EnforcedRuleId  uuid.UUID
	DisplacedRuleId uuid.UUID
	DisplacedSource RuleSource
}

// RuleRunStats counts one rule's dispatches within a run. Matched is the
// number of entities whose condition matched, Failures the subset that ended
// in an ERROR outcome.
type RuleRunStats struct {
	RuleId   uuid.UUID
	RuleName string
	Matched  int
	Failures int
}

// ExecutionSummary aggregates a full rule run over a project.
type ExecutionSummary struct {
	RunId                 uuid.UUID
	ProjectId             uuid.UUID
	BatchId               *uuid.UUID
	RulesEvaluated        int
	EntitiesProcessed     int
	Created               int
	Updated               int
	Linked                int
	Skipped               int
	Errors                int
	ValidationWarnings    int
	ValidationFailures    int
	Conflicts             []RuleConflict
	EnforcementViolations []EnforcementViolation
	PerRule               []RuleRunStats
	StartedAt             time.Time
	FinishedAt            time.Time
}

func (s ExecutionSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *ExecutionSummary) Record(outcome OutcomeKind) {
	switch outcome {
	case OutcomeCreate:
		s.Created++
	case OutcomeUpdate:
		s.Updated++
	case OutcomeLink:
		s.Linked++
	case OutcomeSkip:
		s.Skipped++
	case OutcomeError:
		s.Errors++
	case OutcomeValidationWarn:
		s.ValidationWarnings++
	case OutcomeValidationFail:
		s.ValidationFailures++
	}
}
