package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

// RuleSource is the authority tier a rule comes from. Tiers are ordered
// FIRM < COUNTRY < PROJECT < CLIENT: a higher tier usually carries a higher
// numeric priority, but conflict resolution only looks at the priority.
type RuleSource string

const (
	RuleSourceFirm    RuleSource = "FIRM"
	RuleSourceCountry RuleSource = "COUNTRY"
	RuleSourceProject RuleSource = "PROJECT"
	RuleSourceClient  RuleSource = "CLIENT"
)

var ValidRuleSources = []RuleSource{RuleSourceFirm, RuleSourceCountry, RuleSourceProject, RuleSourceClient}

func RuleSourceFrom(s string) (RuleSource, error) {
	source := RuleSource(s)
	if !slices.Contains(ValidRuleSources, source) {
		return "", errors.Wrap(ErrUnknownRuleSource, s)
	}
	return source, nil
}

// RuleActionKind is the closed set of actions a rule can perform.
type RuleActionKind string

const (
	ActionKindCreateChild        RuleActionKind = "CREATE_CHILD"
	ActionKindCreateCable        RuleActionKind = "CREATE_CABLE"
	ActionKindCreatePackage      RuleActionKind = "CREATE_PACKAGE"
	ActionKindSetProperty        RuleActionKind = "SET_PROPERTY"
	ActionKindCreateRelationship RuleActionKind = "CREATE_RELATIONSHIP"
	ActionKindAllocateIo         RuleActionKind = "ALLOCATE_IO"
	ActionKindValidate           RuleActionKind = "VALIDATE"
)

var ValidRuleActionKinds = []RuleActionKind{
	ActionKindCreateChild,
	ActionKindCreateCable,
	ActionKindCreatePackage,
	ActionKindSetProperty,
	ActionKindCreateRelationship,
	ActionKindAllocateIo,
	ActionKindValidate,
}

func RuleActionKindFrom(s string) (RuleActionKind, error) {
	kind := RuleActionKind(s)
	if !slices.Contains(ValidRuleActionKinds, kind) {
		return "", errors.Wrap(ErrUnknownActionKind, s)
	}
	return kind, nil
}

// RuleValidationStatus is the lifecycle stage of a rule.
type RuleValidationStatus string

const (
	RuleStatusDraft        RuleValidationStatus = "DRAFT"
	RuleStatusDevValidated RuleValidationStatus = "DEV_VALIDATED"
	RuleStatusProdReady    RuleValidationStatus = "PROD_READY"
	RuleStatusDeprecated   RuleValidationStatus = "DEPRECATED"
)

// FilterOperator is a comparison operator usable in a property filter.
type FilterOperator string

const (
	OperatorEqual          FilterOperator = "=="
	OperatorNotEqual       FilterOperator = "!="
	OperatorGreater        FilterOperator = ">"
	OperatorLess           FilterOperator = "<"
	OperatorGreaterOrEqual FilterOperator = ">="
	OperatorLessOrEqual    FilterOperator = "<="
	OperatorIn             FilterOperator = "in"
	OperatorContains       FilterOperator = "contains"
	OperatorExists         FilterOperator = "exists"
	OperatorNotExists      FilterOperator = "not_exists"
)

var ValidFilterOperators = []FilterOperator{
	OperatorEqual, OperatorNotEqual,
	OperatorGreater, OperatorLess, OperatorGreaterOrEqual, OperatorLessOrEqual,
	OperatorIn, OperatorContains, OperatorExists, OperatorNotExists,
}

// PropertyFilter is one predicate of a rule condition.
type PropertyFilter struct {
	Key   string         `json:"key"`
	Op    FilterOperator `json:"op"`
	Value any            `json:"value,omitempty"`
}

// RuleCondition is the structured predicate of a rule: a required entity
// type match plus zero or more property filters combined with AND semantics.
type RuleCondition struct {
	EntityType      string           `json:"entity_type"`
	PropertyFilters []PropertyFilter `json:"property_filters,omitempty"`
}

func (c RuleCondition) Validate() error {
	if c.EntityType == "" {
		return errors.Wrap(ErrInvalidCondition, "entity_type is required")
	}
	for _, filter := range c.PropertyFilters {
		if filter.Key == "" {
			return errors.Wrap(ErrInvalidCondition, "property filter key is required")
		}
		if !slices.Contains(ValidFilterOperators, filter.Op) {
			return errors.Wrap(ErrInvalidCondition,
				fmt.Sprintf("unknown operator %q on filter %q", filter.Op, filter.Key))
		}
	}
	return nil
}

// CanonicalKey serializes the condition with a stable field order so that
// two rules with the same predicate group together in conflict resolution.
func (c RuleCondition) CanonicalKey() string {
	serialized, err := json.Marshal(c)
	if err != nil {
		// The condition is plain data decoded from JSON, it always marshals.
		panic(err)
	}
	return string(serialized)
}

// RuleDefinition is a database-defined rule: a condition, a typed action
// payload, a priority and a source tier. Rules are never hard-deleted, only
// deactivated.
type RuleDefinition struct {
	Id          uuid.UUID
	Name        string
	Description string

	Source   RuleSource
	SourceId *string
	Priority int

	Discipline string
	Category   string

	ActionKind RuleActionKind
	IsEnforced bool
	Condition  RuleCondition
	Action     RuleAction

	ValidationStatus RuleValidationStatus
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int

	ExecutionCount int
	SuccessCount   int
	FailureCount   int
	LastExecutedAt *time.Time
}

type CreateRuleInput struct {
	Name        string
	Description string
	Source      RuleSource
	SourceId    *string
	Priority    int
	Discipline  string
	Category    string
	ActionKind  RuleActionKind
	IsEnforced  bool
	Condition   RuleCondition
	Action      RuleAction
}

type UpdateRuleInput struct {
	Id          uuid.UUID
	Name        *string
	Description *string
	Priority    *int
	IsEnforced  *bool
	Condition   *RuleCondition
	Action      *RuleAction
	IsActive    *bool
}

func (input CreateRuleInput) Validate() error {
	if input.Name == "" {
		return errors.Wrap(BadParameterError, "rule name is required")
	}
	if !slices.Contains(ValidRuleSources, input.Source) {
		return errors.Wrap(ErrUnknownRuleSource, string(input.Source))
	}
	if err := input.Condition.Validate(); err != nil {
		return err
	}
	return input.Action.Validate(input.ActionKind)
}
