package models

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// RuleAction is the tagged-variant action payload of a rule. Exactly one
// variant must be set, and it must match the rule's action kind; this is
// checked at load time so that malformed rules are rejected before a run
// rather than silently skipped during one.
type RuleAction struct {
	CreateChild        *CreateChildAction        `json:"create_child,omitempty"`
	CreateCable        *CreateCableAction        `json:"create_cable,omitempty"`
	CreatePackage      *CreatePackageAction      `json:"create_package,omitempty"`
	SetProperty        map[string]any            `json:"set_property,omitempty"`
	CreateRelationship *CreateRelationshipAction `json:"create_relationship,omitempty"`
	AllocateIo         *AllocateIoAction         `json:"allocate_io,omitempty"`
	Validate_          *ValidateAction           `json:"validate,omitempty"`
}

// CreateChildAction creates a related asset (e.g. the motor of a pump),
// named from a template, and links it to the parent.
type CreateChildAction struct {
	Type              string         `json:"type"`
	Naming            string         `json:"naming,omitempty"`
	Relation          string         `json:"relation,omitempty"`
	SemanticType      string         `json:"semantic_type,omitempty"`
	Discipline        string         `json:"discipline,omitempty"`
	InheritProperties []string       `json:"inherit_properties,omitempty"`
	Properties        map[string]any `json:"properties,omitempty"`
}

// CreateCableAction creates a derived cable asset feeding the subject,
// optionally auto-sized from the subject's power rating.
type CreateCableAction struct {
	CableTag         string  `json:"cable_tag,omitempty"`
	CableType        string  `json:"cable_type,omitempty"`
	SizingMethod     string  `json:"sizing_method,omitempty"`
	LengthMeters     float64 `json:"length_meters,omitempty"`
	Voltage          string  `json:"voltage,omitempty"`
	Insulation       string  `json:"insulation,omitempty"`
	MaxLengthMeters  float64 `json:"max_length,omitempty"`
	VoltageDropLimit float64 `json:"voltage_drop_limit,omitempty"`
}

// CreatePackageAction groups assets matching the include filter under one
// grouping asset whose tag comes from the code template.
type CreatePackageAction struct {
	PackageType   string               `json:"package_type,omitempty"`
	CodeTemplate  string               `json:"code_template,omitempty"`
	IncludeFilter PackageIncludeFilter `json:"include_filter"`
}

type PackageIncludeFilter struct {
	TypeIn     []string `json:"type_in,omitempty"`
	Area       string   `json:"area,omitempty"`
	Discipline string   `json:"discipline,omitempty"`
}

// CreateRelationshipAction links the subject to a second asset resolved by
// a templated tag. Direction "outgoing" points subject→target, "incoming"
// the reverse.
type CreateRelationshipAction struct {
	Relation  string `json:"relation,omitempty"`
	TargetTag string `json:"target_tag"`
	Direction string `json:"direction,omitempty"`
}

// AllocateIoAction increments a per-channel-type counter in the subject's
// property bag. Deliberately not idempotent: repeated runs accumulate.
type AllocateIoAction struct {
	IoType       string `json:"io_type"`
	ChannelCount int    `json:"channel_count,omitempty"`
}

// ValidateAction checks nothing itself; it renders a templated message at
// the declared severity, producing only an audit entry.
type ValidateAction struct {
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
}

const (
	ValidationSeverityWarning = "WARNING"
	ValidationSeverityError   = "ERROR"
)

const (
	RelationshipDirectionOutgoing = "outgoing"
	RelationshipDirectionIncoming = "incoming"
)

// Validate checks that the payload variant matching kind is present and
// well formed, and that no other variant is set.
func (a RuleAction) Validate(kind RuleActionKind) error {
	set := 0
	if a.CreateChild != nil {
		set++
	}
	if a.CreateCable != nil {
		set++
	}
	if a.CreatePackage != nil {
		set++
	}
	if a.SetProperty != nil {
		set++
	}
	if a.CreateRelationship != nil {
		set++
	}
	if a.AllocateIo != nil {
		set++
	}
	if a.Validate_ != nil {
		set++
	}
	if set != 1 {
		return errors.Wrap(ErrInvalidRuleAction, "exactly one action payload must be set")
	}

	switch kind {
	case ActionKindCreateChild:
		if a.CreateChild == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing create_child payload")
		}
		if a.CreateChild.Type == "" {
			return errors.Wrap(ErrInvalidRuleAction, "create_child.type is required")
		}
	case ActionKindCreateCable:
		if a.CreateCable == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing create_cable payload")
		}
	case ActionKindCreatePackage:
		if a.CreatePackage == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing create_package payload")
		}
	case ActionKindSetProperty:
		if a.SetProperty == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing set_property payload")
		}
		if len(a.SetProperty) == 0 {
			return errors.Wrap(ErrInvalidRuleAction, "set_property payload is empty")
		}
	case ActionKindCreateRelationship:
		if a.CreateRelationship == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing create_relationship payload")
		}
		if a.CreateRelationship.TargetTag == "" {
			return errors.Wrap(ErrInvalidRuleAction, "create_relationship.target_tag is required")
		}
	case ActionKindAllocateIo:
		if a.AllocateIo == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing allocate_io payload")
		}
		if a.AllocateIo.IoType == "" {
			return errors.Wrap(ErrInvalidRuleAction, "allocate_io.io_type is required")
		}
	case ActionKindValidate:
		if a.Validate_ == nil {
			return errors.Wrap(ErrInvalidRuleAction, "missing validate payload")
		}
		if s := a.Validate_.Severity; s != "" && s != ValidationSeverityWarning && s != ValidationSeverityError {
			return errors.Wrap(ErrInvalidRuleAction, "validate.severity must be WARNING or ERROR")
		}
	default:
		return errors.Wrap(ErrUnknownActionKind, string(kind))
	}
	return nil
}

// TargetProperty extracts the property a rule writes to, used to group
// conflicting rules: two rules conflict when they share both a condition
// and a target property. For set-property payloads the lowest key is taken
// so that the grouping is deterministic regardless of map iteration order.
func (a RuleAction) TargetProperty(kind RuleActionKind) string {
	switch kind {
	case ActionKindSetProperty:
		if len(a.SetProperty) == 0 {
			return "properties"
		}
		keys := make([]string, 0, len(a.SetProperty))
		for key := range a.SetProperty {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return keys[0]
	case ActionKindCreateChild:
		if a.CreateChild != nil {
			return a.CreateChild.Type
		}
		return "child"
	case ActionKindCreateCable:
		if a.CreateCable != nil && a.CreateCable.CableType != "" {
			return a.CreateCable.CableType
		}
		return "cable"
	case ActionKindCreatePackage:
		if a.CreatePackage != nil && a.CreatePackage.CodeTemplate != "" {
			return a.CreatePackage.CodeTemplate
		}
		return "package"
	case ActionKindCreateRelationship:
		if a.CreateRelationship != nil && a.CreateRelationship.Relation != "" {
			return a.CreateRelationship.Relation
		}
		return "relationship"
	case ActionKindAllocateIo:
		if a.AllocateIo != nil {
			return a.AllocateIo.IoType
		}
		return "io"
	case ActionKindValidate:
		if a.Validate_ != nil && a.Validate_.Message != "" {
			return a.Validate_.Message
		}
		return "validation"
	}
	return "unknown"
}
