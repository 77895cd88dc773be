package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleActionValidate(t *testing.T) {
	t.Run("valid set_property", func(t *testing.T) {
		action := RuleAction{SetProperty: map[string]any{"voltage": "600V"}}
		assert.NoError(t, action.Validate(ActionKindSetProperty))
	})

	t.Run("no payload", func(t *testing.T) {
		assert.ErrorIs(t, RuleAction{}.Validate(ActionKindSetProperty), ErrInvalidRuleAction)
	})

	t.Run("two payloads", func(t *testing.T) {
		action := RuleAction{
			SetProperty: map[string]any{"voltage": "600V"},
			Validate_:   &ValidateAction{Message: "check"},
		}
		assert.ErrorIs(t, action.Validate(ActionKindSetProperty), ErrInvalidRuleAction)
	})

	t.Run("payload does not match kind", func(t *testing.T) {
		action := RuleAction{SetProperty: map[string]any{"voltage": "600V"}}
		assert.ErrorIs(t, action.Validate(ActionKindCreateCable), ErrInvalidRuleAction)
	})

	t.Run("unknown kind", func(t *testing.T) {
		action := RuleAction{SetProperty: map[string]any{"voltage": "600V"}}
		assert.ErrorIs(t, action.Validate(RuleActionKind("EXPLODE")), ErrUnknownActionKind)
	})

	t.Run("create_child requires type", func(t *testing.T) {
		action := RuleAction{CreateChild: &CreateChildAction{}}
		assert.ErrorIs(t, action.Validate(ActionKindCreateChild), ErrInvalidRuleAction)

		action.CreateChild.Type = "MOTOR"
		assert.NoError(t, action.Validate(ActionKindCreateChild))
	})

	t.Run("create_relationship requires target tag", func(t *testing.T) {
		action := RuleAction{CreateRelationship: &CreateRelationshipAction{Relation: "feeds"}}
		assert.ErrorIs(t, action.Validate(ActionKindCreateRelationship), ErrInvalidRuleAction)
	})

	t.Run("allocate_io requires io type", func(t *testing.T) {
		action := RuleAction{AllocateIo: &AllocateIoAction{ChannelCount: 2}}
		assert.ErrorIs(t, action.Validate(ActionKindAllocateIo), ErrInvalidRuleAction)
	})

	t.Run("validate severity is checked", func(t *testing.T) {
		action := RuleAction{Validate_: &ValidateAction{Severity: "FATAL"}}
		assert.ErrorIs(t, action.Validate(ActionKindValidate), ErrInvalidRuleAction)

		action.Validate_.Severity = ValidationSeverityError
		assert.NoError(t, action.Validate(ActionKindValidate))
	})
}

func TestRuleActionTargetProperty(t *testing.T) {
	t.Run("set_property picks lowest key", func(t *testing.T) {
		action := RuleAction{SetProperty: map[string]any{"voltage": "600V", "insulation": "RW90"}}
		assert.Equal(t, "insulation", action.TargetProperty(ActionKindSetProperty))
	})

	t.Run("create_child uses child type", func(t *testing.T) {
		action := RuleAction{CreateChild: &CreateChildAction{Type: "MOTOR"}}
		assert.Equal(t, "MOTOR", action.TargetProperty(ActionKindCreateChild))
	})

	t.Run("allocate_io uses io type", func(t *testing.T) {
		action := RuleAction{AllocateIo: &AllocateIoAction{IoType: "DI"}}
		assert.Equal(t, "DI", action.TargetProperty(ActionKindAllocateIo))
	})

	t.Run("defaults for empty payloads", func(t *testing.T) {
		assert.Equal(t, "cable", RuleAction{CreateCable: &CreateCableAction{}}.TargetProperty(ActionKindCreateCable))
		assert.Equal(t, "relationship",
			RuleAction{CreateRelationship: &CreateRelationshipAction{}}.TargetProperty(ActionKindCreateRelationship))
		assert.Equal(t, "unknown", RuleAction{}.TargetProperty(RuleActionKind("EXPLODE")))
	})
}

func TestRuleActionJsonRoundTrip(t *testing.T) {
	action := RuleAction{
		CreateCable: &CreateCableAction{
			CableTag:     "{tag}-CBL",
			CableType:    "POWER",
			SizingMethod: "Auto",
			LengthMeters: 75,
			Voltage:      "600V",
		},
	}

	serialized, err := json.Marshal(action)
	require.NoError(t, err)

	var decoded RuleAction
	require.NoError(t, json.Unmarshal(serialized, &decoded))
	assert.Equal(t, action, decoded)
	assert.NoError(t, decoded.Validate(ActionKindCreateCable))
}
