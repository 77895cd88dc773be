package rule_engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/pure_utils"
	"github.com/gridforge/gridforge-backend/repositories"
)

// executeCreatePackage groups assets matching the include filter under a
// grouping asset. Idempotent on the rendered package code.
func (e *ActionExecutor) executeCreatePackage(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (models.RuleResult, error) {
	action := *rule.Action.CreatePackage

	packageType := action.PackageType
	if packageType == "" {
		packageType = "GENERAL"
	}
	codeTemplate := action.CodeTemplate
	if codeTemplate == "" {
		codeTemplate = "PKG-{area}"
	}
	packageCode := renderPackageCode(codeTemplate, asset)

	existing, err := e.repository.GetAssetByTag(ctx, tx, runCtx.ProjectId, packageCode)
	if err != nil {
		return models.RuleResult{}, err
	}
	if existing != nil {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("package %s already exists", packageCode),
		}, nil
	}

	filter := action.IncludeFilter
	if filter.Area == "{trigger.area}" {
		filter.Area = asset.Area
	}
	members, err := e.repository.ListAssetsMatching(ctx, tx, runCtx.ProjectId, filter)
	if err != nil {
		return models.RuleResult{}, err
	}
	if len(members) == 0 {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("no assets found for package %s", packageCode),
		}, nil
	}

	area := asset.Area
	if area == "" {
		area = "project"
	}
	packageId := uuid.New()
	err = e.repository.CreateAsset(ctx, tx, packageId, models.CreateAssetInput{
		ProjectId:    runCtx.ProjectId,
		Tag:          packageCode,
		Type:         packageType,
		Description:  fmt.Sprintf("%s package for %s", packageType, area),
		Area:         asset.Area,
		Discipline:   rule.Discipline,
		SemanticType: models.AssetSemanticTypePackage,
		Properties:   map[string]any{"package_type": packageType},
	})
	if err != nil {
		return models.RuleResult{}, err
	}

	created, err := e.repository.GetAssetById(ctx, tx, packageId)
	if err != nil {
		return models.RuleResult{}, err
	}
	_, err = e.versioning.RecordVersion(ctx, tx, created,
		e.ruleVersionMeta(rule, runCtx, fmt.Sprintf("created by rule %s", rule.Name)))
	if err != nil {
		return models.RuleResult{}, err
	}

	memberIds := pure_utils.Map(members, func(member models.Asset) uuid.UUID { return member.Id })
	if err := e.repository.AssignAssetsToPackage(ctx, tx, packageId, memberIds); err != nil {
		return models.RuleResult{}, err
	}

	return models.RuleResult{
		Outcome:        models.OutcomeCreate,
		Detail:         fmt.Sprintf("created package %s with %d assets", packageCode, len(members)),
		CreatedAssetId: &packageId,
		Mutated:        true,
	}, nil
}
