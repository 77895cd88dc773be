package rule_engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
)

// executeCreateChild creates a derived asset (e.g. the motor of a pump) and
// links it to its parent. Idempotent on the child tag: if an asset with the
// rendered tag already lives in the project, nothing is created.
func (e *ActionExecutor) executeCreateChild(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (models.RuleResult, error) {
	action := *rule.Action.CreateChild

	naming := action.Naming
	if naming == "" {
		naming = "{parent_tag}-{type}"
	}
	childTag := renderChildTag(naming, asset, action.Type)

	existing, err := e.repository.GetAssetByTag(ctx, tx, runCtx.ProjectId, childTag)
	if err != nil {
		return models.RuleResult{}, err
	}
	if existing != nil {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("child %s already exists", childTag),
		}, nil
	}

	properties := make(map[string]any, len(action.Properties))
	for key, value := range action.Properties {
		properties[key] = value
	}
	for _, key := range action.InheritProperties {
		if value, ok := asset.Properties[key]; ok {
			properties[key] = value
		}
	}

	relation := action.Relation
	if relation == "" {
		relation = "related_to"
	}
	semanticType := action.SemanticType
	if semanticType == "" {
		semanticType = models.AssetSemanticTypeAsset
	}
	discipline := action.Discipline
	if discipline == "" {
		discipline = rule.Discipline
	}

	childId := uuid.New()
	err = e.repository.CreateAsset(ctx, tx, childId, models.CreateAssetInput{
		ProjectId:    runCtx.ProjectId,
		Tag:          childTag,
		Type:         action.Type,
		Area:         asset.Area,
		System:       asset.System,
		Discipline:   discipline,
		SemanticType: semanticType,
		Properties:   properties,
	})
	if err != nil {
		return models.RuleResult{}, err
	}

	child, err := e.repository.GetAssetById(ctx, tx, childId)
	if err != nil {
		return models.RuleResult{}, err
	}
	_, err = e.versioning.RecordVersion(ctx, tx, child,
		e.ruleVersionMeta(rule, runCtx, fmt.Sprintf("created by rule %s", rule.Name)))
	if err != nil {
		return models.RuleResult{}, err
	}

	err = e.repository.CreateAssetEdge(ctx, tx, uuid.New(), models.CreateAssetEdgeInput{
		ProjectId:     runCtx.ProjectId,
		SourceAssetId: childId,
		TargetAssetId: asset.Id,
		Relation:      relation,
		Discipline:    discipline,
	})
	if err != nil {
		return models.RuleResult{}, err
	}

	return models.RuleResult{
		Outcome:        models.OutcomeCreate,
		Detail:         fmt.Sprintf("created %s %s for %s", action.Type, childTag, asset.Tag),
		CreatedAssetId: &childId,
		Mutated:        true,
	}, nil
}
