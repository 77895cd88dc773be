package versioning

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/mohae/deepcopy"
	"github.com/tidwall/gjson"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/utils"
)

type versionRepository interface {
	CreateAssetVersion(ctx context.Context, exec repositories.Executor,
		versionId uuid.UUID, input models.CreateAssetVersionInput) error
	GetAssetVersion(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, versionNumber int) (models.AssetVersion, error)
	GetLatestAssetVersion(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID) (*models.AssetVersion, error)
	GetLatestVersionBefore(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, versionNumber int) (*models.AssetVersion, error)
	ListAssetVersions(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, limit int) ([]models.AssetVersion, error)
	ListVersionsForBatch(ctx context.Context, exec repositories.Executor,
		batchId uuid.UUID) ([]models.AssetVersion, error)
	CreatePropertyChanges(ctx context.Context, exec repositories.Executor,
		inputs []models.CreatePropertyChangeInput) error
	ListPropertyHistory(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, propertyKey string) ([]models.PropertyChange, error)
}

type assetRepository interface {
	GetAssetById(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID) (models.Asset, error)
	RestoreAssetSnapshot(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, snapshot map[string]any) error
	UpdateAssetProperties(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID, properties map[string]any) error
	SoftDeleteAsset(ctx context.Context, exec repositories.Executor,
		assetId uuid.UUID) error
}

type batchRepository interface {
	CreateBatchOperation(ctx context.Context, exec repositories.Executor,
		batchId uuid.UUID, input models.CreateBatchOperationInput) error
	GetBatchOperationById(ctx context.Context, exec repositories.Executor,
		batchId uuid.UUID) (models.BatchOperation, error)
	MarkBatchRolledBack(ctx context.Context, exec repositories.Executor,
		batchId uuid.UUID, reason, rolledBackBy string) error
}

// VersionMeta carries the provenance of a new version.
type VersionMeta struct {
	Source       models.ChangeSource
	SourceRuleId *uuid.UUID
	BatchId      *uuid.UUID
	ChangedBy    string
	Comment      string
}

type VersioningUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	versions        versionRepository
	assets          assetRepository
	batches         batchRepository
}

func NewVersioningUsecase(
	executorFactory executor_factory.ExecutorFactory,
	versions versionRepository,
	assets assetRepository,
	batches batchRepository,
) *VersioningUsecase {
	return &VersioningUsecase{
		executorFactory: executorFactory,
		versions:        versions,
		assets:          assets,
		batches:         batches,
	}
}

// RecordVersion snapshots the asset's current state as the next version
// number and stores the field deltas against the previous version. Runs on
// the caller's executor so a version is written in the same transaction as
// the mutation it captures.
func (uc *VersioningUsecase) RecordVersion(ctx context.Context, exec repositories.Executor,
	asset models.Asset, meta VersionMeta,
) (int, error) {
	latest, err := uc.versions.GetLatestAssetVersion(ctx, exec, asset.Id)
	if err != nil {
		return 0, err
	}

	versionNumber := 1
	var previousSnapshot map[string]any
	if latest != nil {
		versionNumber = latest.VersionNumber + 1
		previousSnapshot = latest.Snapshot
	}

	snapshot := deepcopy.Copy(asset.Snapshot()).(map[string]any)
	if meta.ChangedBy == "" {
		meta.ChangedBy = utils.ActorIdentityFromContext(ctx).String()
	}

	err = uc.versions.CreateAssetVersion(ctx, exec, uuid.New(), models.CreateAssetVersionInput{
		AssetId:       asset.Id,
		ProjectId:     asset.ProjectId,
		VersionNumber: versionNumber,
		Snapshot:      snapshot,
		Source:        meta.Source,
		SourceRuleId:  meta.SourceRuleId,
		BatchId:       meta.BatchId,
		ChangedBy:     meta.ChangedBy,
		Comment:       meta.Comment,
	})
	if err != nil {
		return 0, err
	}

	if previousSnapshot != nil {
		changes := SnapshotDiff(previousSnapshot, snapshot)
		inputs := make([]models.CreatePropertyChangeInput, len(changes))
		for i, change := range changes {
			inputs[i] = models.CreatePropertyChangeInput{
				AssetId:       asset.Id,
				VersionNumber: versionNumber,
				PropertyKey:   change.Key,
				OldValue:      stringifyValue(change.OldValue, change.Kind != models.FieldAdded),
				NewValue:      stringifyValue(change.NewValue, change.Kind != models.FieldRemoved),
				Source:        meta.Source,
				ChangedBy:     meta.ChangedBy,
			}
		}
		if err := uc.versions.CreatePropertyChanges(ctx, exec, inputs); err != nil {
			return 0, err
		}
	}
	return versionNumber, nil
}

const defaultVersionHistoryLimit = 50

// VersionHistory returns the asset's versions, newest first.
func (uc *VersioningUsecase) VersionHistory(ctx context.Context, assetId uuid.UUID,
	limit int,
) ([]models.AssetVersion, error) {
	if limit <= 0 {
		limit = defaultVersionHistoryLimit
	}
	return uc.versions.ListAssetVersions(ctx, uc.executorFactory.NewExecutor(), assetId, limit)
}

func (uc *VersioningUsecase) GetVersion(ctx context.Context, assetId uuid.UUID, versionNumber int) (models.AssetVersion, error) {
	return uc.versions.GetAssetVersion(ctx, uc.executorFactory.NewExecutor(), assetId, versionNumber)
}

func (uc *VersioningUsecase) DiffVersions(ctx context.Context, assetId uuid.UUID,
	fromVersion, toVersion int,
) (models.VersionDiff, error) {
	exec := uc.executorFactory.NewExecutor()
	from, err := uc.versions.GetAssetVersion(ctx, exec, assetId, fromVersion)
	if err != nil {
		return models.VersionDiff{}, err
	}
	to, err := uc.versions.GetAssetVersion(ctx, exec, assetId, toVersion)
	if err != nil {
		return models.VersionDiff{}, err
	}

	return models.VersionDiff{
		AssetId:     assetId,
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		Changes:     SnapshotDiff(from.Snapshot, to.Snapshot),
	}, nil
}

// PropertyAtVersion reads a possibly nested path, e.g. "properties.drive.type",
// from the snapshot of one version.
func (uc *VersioningUsecase) PropertyAtVersion(ctx context.Context, assetId uuid.UUID,
	versionNumber int, path string,
) (any, bool, error) {
	version, err := uc.GetVersion(ctx, assetId, versionNumber)
	if err != nil {
		return nil, false, err
	}
	serialized, err := json.Marshal(version.Snapshot)
	if err != nil {
		return nil, false, errors.Wrap(err, "can't encode version snapshot")
	}
	result := gjson.GetBytes(serialized, path)
	if !result.Exists() {
		return nil, false, nil
	}
	return result.Value(), true, nil
}

func (uc *VersioningUsecase) PropertyHistory(ctx context.Context, assetId uuid.UUID,
	propertyKey string,
) ([]models.PropertyChange, error) {
	return uc.versions.ListPropertyHistory(ctx, uc.executorFactory.NewExecutor(), assetId, propertyKey)
}

// RollbackToVersion restores a past snapshot onto the asset. The restored
// state becomes a new version, past versions are never rewritten.
func (uc *VersioningUsecase) RollbackToVersion(ctx context.Context, assetId uuid.UUID,
	versionNumber int, comment string,
) (models.RollbackResult, error) {
	return executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.RollbackResult, error) {
			target, err := uc.versions.GetAssetVersion(ctx, tx, assetId, versionNumber)
			if err != nil {
				return models.RollbackResult{}, err
			}
			latest, err := uc.versions.GetLatestAssetVersion(ctx, tx, assetId)
			if err != nil {
				return models.RollbackResult{}, err
			}
			if latest == nil {
				return models.RollbackResult{}, errors.Wrap(models.NotFoundError,
					"asset has no versions to roll back")
			}

			if err := uc.assets.RestoreAssetSnapshot(ctx, tx, assetId, target.Snapshot); err != nil {
				return models.RollbackResult{}, err
			}
			asset, err := uc.assets.GetAssetById(ctx, tx, assetId)
			if err != nil {
				return models.RollbackResult{}, err
			}

			if comment == "" {
				comment = fmt.Sprintf("rollback to version %d", versionNumber)
			}
			newVersion, err := uc.RecordVersion(ctx, tx, asset, VersionMeta{
				Source:  models.ChangeSourceRollback,
				Comment: comment,
			})
			if err != nil {
				return models.RollbackResult{}, err
			}

			return models.RollbackResult{
				AssetId:       assetId,
				FromVersion:   latest.VersionNumber,
				ToVersion:     versionNumber,
				NewVersion:    newVersion,
				FieldsChanged: len(SnapshotDiff(latest.Snapshot, target.Snapshot)),
			}, nil
		})
}

// RollbackProperty restores a single property bag entry to its value at a
// past version, leaving every other field at its current state.
func (uc *VersioningUsecase) RollbackProperty(ctx context.Context, assetId uuid.UUID,
	propertyKey string, versionNumber int, reason string,
) (models.RollbackResult, error) {
	return executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.RollbackResult, error) {
			target, err := uc.versions.GetAssetVersion(ctx, tx, assetId, versionNumber)
			if err != nil {
				return models.RollbackResult{}, err
			}
			asset, err := uc.assets.GetAssetById(ctx, tx, assetId)
			if err != nil {
				return models.RollbackResult{}, err
			}

			properties := deepcopy.Copy(asset.Properties).(map[string]any)
			historic, present := flattenSnapshot(target.Snapshot)["properties."+propertyKey]
			if present {
				properties[propertyKey] = historic
			} else {
				delete(properties, propertyKey)
			}

			if err := uc.assets.UpdateAssetProperties(ctx, tx, assetId, properties); err != nil {
				return models.RollbackResult{}, err
			}
			asset.Properties = properties

			if reason == "" {
				reason = fmt.Sprintf("rollback property %q to version %d", propertyKey, versionNumber)
			}
			newVersion, err := uc.RecordVersion(ctx, tx, asset, VersionMeta{
				Source:  models.ChangeSourceRollback,
				Comment: reason,
			})
			if err != nil {
				return models.RollbackResult{}, err
			}

			return models.RollbackResult{
				AssetId:       assetId,
				FromVersion:   newVersion - 1,
				ToVersion:     versionNumber,
				NewVersion:    newVersion,
				FieldsChanged: 1,
			}, nil
		})
}

// RollbackBatch undoes every asset touched by a batch operation. Assets
// whose first version was written by the batch were created by it and are
// soft deleted; the others are restored to their last version predating the
// batch, so edits made after the batch are undone along with it. Each asset
// is handled in its own transaction so one failure does not leave previously
// reverted assets undone.
func (uc *VersioningUsecase) RollbackBatch(ctx context.Context, batchId uuid.UUID,
	reason string,
) (models.BatchRollbackResult, error) {
	exec := uc.executorFactory.NewExecutor()
	batch, err := uc.batches.GetBatchOperationById(ctx, exec, batchId)
	if err != nil {
		return models.BatchRollbackResult{}, err
	}
	if batch.Status == models.BatchStatusRolledBack {
		return models.BatchRollbackResult{}, errors.Wrap(models.ErrBatchAlreadyRolledBack, batchId.String())
	}
	if reason == "" {
		reason = fmt.Sprintf("rollback of batch %s", batchId)
	}

	batchVersions, err := uc.versions.ListVersionsForBatch(ctx, exec, batchId)
	if err != nil {
		return models.BatchRollbackResult{}, err
	}

	seen := map[uuid.UUID]bool{}
	assetIds := make([]uuid.UUID, 0, len(batchVersions))
	createdByBatch := map[uuid.UUID]bool{}
	firstBatchVersion := map[uuid.UUID]int{}
	for _, version := range batchVersions {
		if !seen[version.AssetId] {
			seen[version.AssetId] = true
			assetIds = append(assetIds, version.AssetId)
		}
		if version.VersionNumber == 1 {
			createdByBatch[version.AssetId] = true
		}
		if first, ok := firstBatchVersion[version.AssetId]; !ok || version.VersionNumber < first {
			firstBatchVersion[version.AssetId] = version.VersionNumber
		}
	}

	result := models.BatchRollbackResult{BatchId: batchId}
	for _, assetId := range assetIds {
		err := uc.executorFactory.Transaction(ctx, func(tx repositories.Executor) error {
			if createdByBatch[assetId] {
				return uc.assets.SoftDeleteAsset(ctx, tx, assetId)
			}

			restoreTo, err := uc.versions.GetLatestVersionBefore(ctx, tx, assetId, firstBatchVersion[assetId])
			if err != nil {
				return err
			}
			if restoreTo == nil {
				return errors.Wrap(models.NotFoundError, "no version predating the batch to restore")
			}
			if err := uc.assets.RestoreAssetSnapshot(ctx, tx, assetId, restoreTo.Snapshot); err != nil {
				return err
			}
			asset, err := uc.assets.GetAssetById(ctx, tx, assetId)
			if err != nil {
				return err
			}
			_, err = uc.RecordVersion(ctx, tx, asset, VersionMeta{
				Source:  models.ChangeSourceRollback,
				Comment: reason,
			})
			return err
		})
		if err != nil {
			result.Failures = append(result.Failures, models.BatchRollbackFailure{
				AssetId: assetId,
				Reason:  err.Error(),
			})
			continue
		}
		if createdByBatch[assetId] {
			result.EntitiesDeleted++
		} else {
			result.EntitiesReverted++
		}
	}

	if len(result.Failures) == 0 {
		rolledBackBy := utils.ActorIdentityFromContext(ctx).String()
		if err := uc.batches.MarkBatchRolledBack(ctx, exec, batchId, reason, rolledBackBy); err != nil {
			return result, err
		}
	}
	return result, nil
}
