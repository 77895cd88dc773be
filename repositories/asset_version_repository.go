package repositories

import (
	"context"
	"encoding/json"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

func (repo *GridforgeDbRepository) CreateAssetVersion(ctx context.Context, exec Executor,
	versionId uuid.UUID, input models.CreateAssetVersionInput,
) error {
	snapshot, err := json.Marshal(input.Snapshot)
	if err != nil {
		return errors.Wrap(err, "can't encode version snapshot")
	}

	err = ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_ASSET_VERSIONS).
			Columns(
				"id",
				"asset_id",
				"project_id",
				"version_number",
				"snapshot",
				"source",
				"source_rule_id",
				"batch_id",
				"changed_by",
				"comment",
			).
			Values(
				versionId,
				input.AssetId,
				input.ProjectId,
				input.VersionNumber,
				snapshot,
				input.Source,
				input.SourceRuleId,
				input.BatchId,
				input.ChangedBy,
				input.Comment,
			),
	)
	if IsUniqueViolationError(err) {
		return errors.Wrap(models.ConflictError, "version number already exists for this asset")
	}
	return err
}

func (repo *GridforgeDbRepository) GetAssetVersion(ctx context.Context, exec Executor,
	assetId uuid.UUID, versionNumber int,
) (models.AssetVersion, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetVersionColumn...).
			From(dbmodels.TABLE_ASSET_VERSIONS).
			Where(squirrel.Eq{"asset_id": assetId}).
			Where(squirrel.Eq{"version_number": versionNumber}),
		dbmodels.AdaptAssetVersion,
	)
}

func (repo *GridforgeDbRepository) GetLatestAssetVersion(ctx context.Context, exec Executor,
	assetId uuid.UUID,
) (*models.AssetVersion, error) {
	return SqlToOptionalModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetVersionColumn...).
			From(dbmodels.TABLE_ASSET_VERSIONS).
			Where(squirrel.Eq{"asset_id": assetId}).
			OrderBy("version_number DESC").
			Limit(1),
		dbmodels.AdaptAssetVersion,
	)
}

// GetLatestVersionBefore returns the newest version of the asset strictly
// older than the given version number, the state a batch rollback reverts to.
func (repo *GridforgeDbRepository) GetLatestVersionBefore(ctx context.Context, exec Executor,
	assetId uuid.UUID, versionNumber int,
) (*models.AssetVersion, error) {
	return SqlToOptionalModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetVersionColumn...).
			From(dbmodels.TABLE_ASSET_VERSIONS).
			Where(squirrel.Eq{"asset_id": assetId}).
			Where(squirrel.Lt{"version_number": versionNumber}).
			OrderBy("version_number DESC").
			Limit(1),
		dbmodels.AdaptAssetVersion,
	)
}

func (repo *GridforgeDbRepository) ListAssetVersions(ctx context.Context, exec Executor,
	assetId uuid.UUID, limit int,
) ([]models.AssetVersion, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetVersionColumn...).
			From(dbmodels.TABLE_ASSET_VERSIONS).
			Where(squirrel.Eq{"asset_id": assetId}).
			OrderBy("version_number DESC").
			Limit(uint64(limit)),
		dbmodels.AdaptAssetVersion,
	)
}

func (repo *GridforgeDbRepository) ListVersionsForBatch(ctx context.Context, exec Executor,
	batchId uuid.UUID,
) ([]models.AssetVersion, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetVersionColumn...).
			From(dbmodels.TABLE_ASSET_VERSIONS).
			Where(squirrel.Eq{"batch_id": batchId}).
			OrderBy("created_at ASC"),
		dbmodels.AdaptAssetVersion,
	)
}

func (repo *GridforgeDbRepository) CreatePropertyChanges(ctx context.Context, exec Executor,
	inputs []models.CreatePropertyChangeInput,
) error {
	if len(inputs) == 0 {
		return nil
	}
	query := NewQueryBuilder().Insert(dbmodels.TABLE_PROPERTY_CHANGES).
		Columns(
			"id",
			"asset_id",
			"version_number",
			"property_key",
			"old_value",
			"new_value",
			"source",
			"changed_by",
		)
	for _, input := range inputs {
		query = query.Values(
			uuid.New(),
			input.AssetId,
			input.VersionNumber,
			input.PropertyKey,
			input.OldValue,
			input.NewValue,
			input.Source,
			input.ChangedBy,
		)
	}
	return ExecBuilder(ctx, exec, query)
}

func (repo *GridforgeDbRepository) ListPropertyHistory(ctx context.Context, exec Executor,
	assetId uuid.UUID, propertyKey string,
) ([]models.PropertyChange, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectPropertyChangeColumn...).
			From(dbmodels.TABLE_PROPERTY_CHANGES).
			Where(squirrel.Eq{"asset_id": assetId}).
			Where(squirrel.Eq{"property_key": propertyKey}).
			OrderBy("version_number ASC"),
		dbmodels.AdaptPropertyChange,
	)
}
