package rule_engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/utils"
)

// executeCreateCable creates a cable asset feeding the subject, auto-sized
// from the motor rating when the rule asks for it. Idempotent on the cable
// tag.
func (e *ActionExecutor) executeCreateCable(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (models.RuleResult, error) {
	action := *rule.Action.CreateCable

	tagPattern := action.CableTag
	if tagPattern == "" {
		tagPattern = "{tag}-CBL"
	}
	cableType := action.CableType
	if cableType == "" {
		cableType = "POWER"
	}
	sizingMethod := action.SizingMethod
	if sizingMethod == "" {
		sizingMethod = "Manual"
	}
	lengthMeters := action.LengthMeters
	if lengthMeters == 0 {
		lengthMeters = 50.0
	}
	voltage := action.Voltage
	if voltage == "" {
		voltage = "600V"
	}
	insulation := action.Insulation
	if insulation == "" {
		insulation = "RW90 XLPE"
	}

	cableTag := renderAssetTag(tagPattern, asset)

	existing, err := e.repository.GetAssetByTag(ctx, tx, runCtx.ProjectId, cableTag)
	if err != nil {
		return models.RuleResult{}, err
	}
	if existing != nil {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("cable %s already exists", cableTag),
		}, nil
	}

	properties := map[string]any{
		"sizing_method": sizingMethod,
		"insulation":    insulation,
		"length_meters": lengthMeters,
		"voltage":       voltage,
		"code_standard": "CEC-2021",
	}

	var sized *CableSizing
	if sizingMethod == "Auto" && asset.Type == "MOTOR" {
		if hp, ok := motorHorsepower(asset); ok {
			sizing, err := SizeCable(hp, lengthMeters, voltage, action.VoltageDropLimit)
			if err != nil {
				utils.LoggerFromContext(ctx).WarnContext(ctx, "cable sizing failed",
					"asset_tag", asset.Tag, "error", err.Error())
			} else {
				sized = &sizing
				properties["cable_size"] = sizing.CableSize
				properties["flc"] = sizing.Flc
				properties["min_ampacity"] = sizing.MinAmpacity
				properties["cable_ampacity"] = sizing.CableAmpacity
				properties["voltage_drop_percent"] = sizing.VoltageDropPercent
				properties["voltage_drop_volts"] = sizing.VoltageDropVolts
				properties["is_upsized"] = sizing.IsUpsized
			}
		}
	}

	cableId := uuid.New()
	err = e.repository.CreateAsset(ctx, tx, cableId, models.CreateAssetInput{
		ProjectId:    runCtx.ProjectId,
		Tag:          cableTag,
		Type:         cableType,
		Description:  fmt.Sprintf("%s cable for %s", cableType, asset.Tag),
		Area:         asset.Area,
		System:       asset.System,
		Discipline:   rule.Discipline,
		SemanticType: models.AssetSemanticTypeCable,
		Properties:   properties,
	})
	if err != nil {
		return models.RuleResult{}, err
	}

	cable, err := e.repository.GetAssetById(ctx, tx, cableId)
	if err != nil {
		return models.RuleResult{}, err
	}
	_, err = e.versioning.RecordVersion(ctx, tx, cable,
		e.ruleVersionMeta(rule, runCtx, fmt.Sprintf("created by rule %s", rule.Name)))
	if err != nil {
		return models.RuleResult{}, err
	}

	err = e.repository.CreateAssetEdge(ctx, tx, uuid.New(), models.CreateAssetEdgeInput{
		ProjectId:     runCtx.ProjectId,
		SourceAssetId: cableId,
		TargetAssetId: asset.Id,
		Relation:      "feeds",
		Discipline:    rule.Discipline,
	})
	if err != nil {
		return models.RuleResult{}, err
	}

	detail := fmt.Sprintf("created cable %s for %s", cableTag, asset.Tag)
	if sized != nil {
		detail += fmt.Sprintf(" (sized: %s)", sized.CableSize)
	}
	maxLength := action.MaxLengthMeters
	if maxLength == 0 {
		maxLength = 100
	}
	if lengthMeters > maxLength {
		detail += fmt.Sprintf("; length %.0fm exceeds %.0fm limit", lengthMeters, maxLength)
	}

	return models.RuleResult{
		Outcome:        models.OutcomeCreate,
		Detail:         detail,
		CreatedAssetId: &cableId,
		Mutated:        true,
	}, nil
}

func motorHorsepower(asset models.Asset) (float64, bool) {
	raw, ok := asset.Properties["hp"]
	if !ok {
		raw, ok = asset.Properties["power"]
	}
	if !ok {
		return 0, false
	}

	switch v := raw.(type) {
	case string:
		hp, err := strconv.ParseFloat(v, 64)
		return hp, err == nil
	default:
		return toFloat(raw)
	}
}
