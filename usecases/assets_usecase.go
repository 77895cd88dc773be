package usecases

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/audit"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/usecases/versioning"
	"github.com/gridforge/gridforge-backend/utils"
)

type assetRepository interface {
	CreateProject(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID, name, country string, clientId *uuid.UUID) error
	GetProjectById(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID) (models.Project, error)
	CreateAsset(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, input models.CreateAssetInput) error
	GetAssetById(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID) (models.Asset, error)
	GetAssetByTag(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID, tag string) (*models.Asset, error)
	ListAssetsForProject(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID) ([]models.Asset, error)
	UpdateAssetProperties(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, properties map[string]any) error
	CreateBatchOperation(ctx context.Context, exec repositories.Executor,
		batchId uuid.UUID, input models.CreateBatchOperationInput) error
}

// AssetsUsecase covers the manual asset surface: project setup, single asset
// edits and bulk imports. Every mutation goes through the versioning service
// so manual and rule-driven changes share one history.
type AssetsUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	repository      assetRepository
	versioning      *versioning.VersioningUsecase
	workflowLogger  *audit.WorkflowLogger
}

func NewAssetsUsecase(
	executorFactory executor_factory.ExecutorFactory,
	repository assetRepository,
	versioning *versioning.VersioningUsecase,
	workflowLogger *audit.WorkflowLogger,
) *AssetsUsecase {
	return &AssetsUsecase{
		executorFactory: executorFactory,
		repository:      repository,
		versioning:      versioning,
		workflowLogger:  workflowLogger,
	}
}

func (uc *AssetsUsecase) CreateProject(ctx context.Context, name, country string,
	clientId *uuid.UUID,
) (models.Project, error) {
	if name == "" {
		return models.Project{}, errors.Wrap(models.BadParameterError, "project name is required")
	}
	projectId := uuid.New()
	return executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.Project, error) {
			if err := uc.repository.CreateProject(ctx, tx, projectId, name, country, clientId); err != nil {
				return models.Project{}, err
			}
			return uc.repository.GetProjectById(ctx, tx, projectId)
		})
}

func (uc *AssetsUsecase) GetAsset(ctx context.Context, assetId uuid.UUID) (models.Asset, error) {
	return uc.repository.GetAssetById(ctx, uc.executorFactory.NewExecutor(), assetId)
}

func (uc *AssetsUsecase) ListAssets(ctx context.Context, projectId uuid.UUID) ([]models.Asset, error) {
	return uc.repository.ListAssetsForProject(ctx, uc.executorFactory.NewExecutor(), projectId)
}

// CreateAsset records a user-created asset with an initial version.
func (uc *AssetsUsecase) CreateAsset(ctx context.Context, input models.CreateAssetInput,
) (models.Asset, error) {
	if input.Tag == "" {
		return models.Asset{}, errors.Wrap(models.BadParameterError, "asset tag is required")
	}
	if input.SemanticType == "" {
		input.SemanticType = models.AssetSemanticTypeAsset
	}
	assetId := uuid.New()
	return executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.Asset, error) {
			if err := uc.repository.CreateAsset(ctx, tx, assetId, input); err != nil {
				return models.Asset{}, err
			}
			asset, err := uc.repository.GetAssetById(ctx, tx, assetId)
			if err != nil {
				return models.Asset{}, err
			}
			_, err = uc.versioning.RecordVersion(ctx, tx, asset, versioning.VersionMeta{
				Source:  models.ChangeSourceUser,
				Comment: "asset created",
			})
			return asset, err
		})
}

// UpdateAssetProperties replaces the property bag and records a USER version.
func (uc *AssetsUsecase) UpdateAssetProperties(ctx context.Context, assetId uuid.UUID,
	properties map[string]any, comment string,
) (models.Asset, error) {
	return executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.Asset, error) {
			if err := uc.repository.UpdateAssetProperties(ctx, tx, assetId, properties); err != nil {
				return models.Asset{}, err
			}
			asset, err := uc.repository.GetAssetById(ctx, tx, assetId)
			if err != nil {
				return models.Asset{}, err
			}
			_, err = uc.versioning.RecordVersion(ctx, tx, asset, versioning.VersionMeta{
				Source:  models.ChangeSourceUser,
				Comment: comment,
			})
			return asset, err
		})
}

// ImportResult reports one bulk import: created and skipped counts plus the
// batch the created versions belong to.
type ImportResult struct {
	BatchId uuid.UUID
	Created int
	Skipped int
}

// ImportAssets creates the given assets under one IMPORT batch. Tags already
// present in the project are skipped, the import is not an upsert. The whole
// import can be undone through the batch rollback of the versioning service.
func (uc *AssetsUsecase) ImportAssets(ctx context.Context, projectId uuid.UUID,
	inputs []models.CreateAssetInput,
) (ImportResult, error) {
	logger := utils.LoggerFromContext(ctx)

	correlationId, err := uc.workflowLogger.StartWorkflow(ctx, projectId,
		models.WorkflowActionImport,
		fmt.Sprintf("importing %d assets", len(inputs)), nil)
	if err != nil {
		return ImportResult{}, err
	}

	batchId := uuid.New()
	result, err := executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (ImportResult, error) {
			err := uc.repository.CreateBatchOperation(ctx, tx, batchId, models.CreateBatchOperationInput{
				ProjectId:   projectId,
				Type:        models.BatchTypeImport,
				Description: fmt.Sprintf("import of %d assets", len(inputs)),
				InitiatedBy: utils.ActorIdentityFromContext(ctx).String(),
			})
			if err != nil {
				return ImportResult{}, err
			}

			result := ImportResult{BatchId: batchId}
			for _, input := range inputs {
				input.ProjectId = projectId
				if input.SemanticType == "" {
					input.SemanticType = models.AssetSemanticTypeAsset
				}
				existing, err := uc.repository.GetAssetByTag(ctx, tx, projectId, input.Tag)
				if err != nil {
					return ImportResult{}, err
				}
				if existing != nil {
					result.Skipped++
					continue
				}

				assetId := uuid.New()
				if err := uc.repository.CreateAsset(ctx, tx, assetId, input); err != nil {
					return ImportResult{}, err
				}
				asset, err := uc.repository.GetAssetById(ctx, tx, assetId)
				if err != nil {
					return ImportResult{}, err
				}
				_, err = uc.versioning.RecordVersion(ctx, tx, asset, versioning.VersionMeta{
					Source:  models.ChangeSourceImport,
					BatchId: &batchId,
					Comment: "imported",
				})
				if err != nil {
					return ImportResult{}, err
				}
				result.Created++
			}
			return result, nil
		})
	if err != nil {
		if failErr := uc.workflowLogger.FailWorkflow(ctx, projectId, correlationId,
			models.WorkflowActionImport, err.Error(), nil); failErr != nil {
			logger.ErrorContext(ctx, "failed to record import failure", "error", failErr)
		}
		return ImportResult{}, err
	}

	err = uc.workflowLogger.CompleteWorkflow(ctx, projectId, correlationId,
		models.WorkflowActionImport, "import completed", map[string]any{
			"batch_id": batchId.String(),
			"created":  result.Created,
			"skipped":  result.Skipped,
		})
	return result, err
}
