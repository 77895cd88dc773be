package rule_engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
)

// executeCreateRelationship links the asset to a target resolved from a tag
// template. Missing targets and existing edges are skips, not errors.
func (e *ActionExecutor) executeCreateRelationship(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (models.RuleResult, error) {
	action := *rule.Action.CreateRelationship

	targetTag := renderAssetTag(action.TargetTag, asset)
	target, err := e.repository.GetAssetByTag(ctx, tx, runCtx.ProjectId, targetTag)
	if err != nil {
		return models.RuleResult{}, err
	}
	if target == nil {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("target asset %s not found", targetTag),
		}, nil
	}

	sourceId, targetId := asset.Id, target.Id
	if action.Direction == models.RelationshipDirectionIncoming {
		sourceId, targetId = target.Id, asset.Id
	}

	existing, err := e.repository.GetAssetEdge(ctx, tx, sourceId, targetId, action.Relation)
	if err != nil {
		return models.RuleResult{}, err
	}
	if existing != nil {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("relationship %s to %s already exists", action.Relation, targetTag),
		}, nil
	}

	err = e.repository.CreateAssetEdge(ctx, tx, uuid.New(), models.CreateAssetEdgeInput{
		ProjectId:     runCtx.ProjectId,
		SourceAssetId: sourceId,
		TargetAssetId: targetId,
		Relation:      action.Relation,
		Discipline:    rule.Discipline,
	})
	if err != nil {
		return models.RuleResult{}, err
	}

	return models.RuleResult{
		Outcome: models.OutcomeLink,
		Detail:  fmt.Sprintf("linked %s %s %s", asset.Tag, action.Relation, targetTag),
		Mutated: true,
	}, nil
}
