package rule_engine

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/versioning"
	"github.com/gridforge/gridforge-backend/utils"
)

type engineRepository interface {
	CreateAsset(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, input models.CreateAssetInput) error
	GetAssetById(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID) (models.Asset, error)
	GetAssetByTag(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID, tag string) (*models.Asset, error)
	ListAssetsMatching(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID, filter models.PackageIncludeFilter) ([]models.Asset, error)
	UpdateAssetProperties(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, properties map[string]any) error
	AssignAssetsToPackage(ctx context.Context, exec repositories.Executor,
		packageId uuid.UUID, assetIds []uuid.UUID) error
	CreateAssetEdge(ctx context.Context, exec repositories.Executor,
		edgeId uuid.UUID, input models.CreateAssetEdgeInput) error
	GetAssetEdge(ctx context.Context, exec repositories.Executor,
		sourceAssetId, targetAssetId uuid.UUID, relation string) (*models.AssetEdge, error)
}

type versionRecorder interface {
	RecordVersion(ctx context.Context, exec repositories.Executor,
		asset models.Asset, meta versioning.VersionMeta) (int, error)
}

// ExecutionContext carries the run-scoped identifiers through handler calls.
type ExecutionContext struct {
	RunId         uuid.UUID
	ProjectId     uuid.UUID
	BatchId       uuid.UUID
	CorrelationId uuid.UUID
}

// ActionExecutor applies one rule action to one asset. All handlers run on
// the executor they are given; the orchestrator passes a transaction so a
// failed handler leaves no partial mutation behind.
type ActionExecutor struct {
	repository engineRepository
	versioning versionRecorder
}

func NewActionExecutor(repository engineRepository, versioning versionRecorder) *ActionExecutor {
	return &ActionExecutor{
		repository: repository,
		versioning: versioning,
	}
}

// Execute dispatches to the handler for the rule's action kind. A panicking
// handler is converted into an ERROR result, one misbehaving rule must not
// take down the whole run.
func (e *ActionExecutor) Execute(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (result models.RuleResult, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			utils.LoggerFromContext(ctx).ErrorContext(ctx, "recovered from panic in rule handler",
				"rule_id", rule.Id.String(), "asset_id", asset.Id.String(), "panic", recovered)
			result = models.RuleResult{}
			err = errors.Wrap(models.ErrPanicInRuleExecution, fmt.Sprint(recovered))
		}
	}()

	switch rule.ActionKind {
	case models.ActionKindCreateChild:
		return e.executeCreateChild(ctx, tx, rule, asset, runCtx)
	case models.ActionKindCreateCable:
		return e.executeCreateCable(ctx, tx, rule, asset, runCtx)
	case models.ActionKindCreatePackage:
		return e.executeCreatePackage(ctx, tx, rule, asset, runCtx)
	case models.ActionKindSetProperty:
		return e.executeSetProperty(ctx, tx, rule, asset, runCtx)
	case models.ActionKindCreateRelationship:
		return e.executeCreateRelationship(ctx, tx, rule, asset, runCtx)
	case models.ActionKindAllocateIo:
		return e.executeAllocateIo(ctx, tx, rule, asset, runCtx)
	case models.ActionKindValidate:
		return e.executeValidate(rule, asset)
	}
	return models.RuleResult{}, errors.Wrap(models.ErrUnknownActionKind, string(rule.ActionKind))
}

func (e *ActionExecutor) ruleVersionMeta(rule models.RuleDefinition, runCtx ExecutionContext, comment string) versioning.VersionMeta {
	ruleId := rule.Id
	batchId := runCtx.BatchId
	return versioning.VersionMeta{
		Source:       models.ChangeSourceRule,
		SourceRuleId: &ruleId,
		BatchId:      &batchId,
		Comment:      comment,
	}
}
