package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

func (repo *GridforgeDbRepository) CreateAssetEdge(ctx context.Context, exec Executor,
	edgeId uuid.UUID, input models.CreateAssetEdgeInput,
) error {
	err := ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_ASSET_EDGES).
			Columns(
				"id",
				"project_id",
				"source_asset_id",
				"target_asset_id",
				"relation",
				"discipline",
			).
			Values(
				edgeId,
				input.ProjectId,
				input.SourceAssetId,
				input.TargetAssetId,
				input.Relation,
				input.Discipline,
			),
	)
	if IsUniqueViolationError(err) {
		return errors.Wrap(models.ConflictError, "this relationship already exists")
	}
	return err
}

// GetAssetEdge returns the edge between two assets for a relation, or nil
// when none exists. Used by handlers to keep link creation idempotent.
func (repo *GridforgeDbRepository) GetAssetEdge(ctx context.Context, exec Executor,
	sourceAssetId, targetAssetId uuid.UUID, relation string,
) (*models.AssetEdge, error) {
	return SqlToOptionalModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetEdgeColumn...).
			From(dbmodels.TABLE_ASSET_EDGES).
			Where(squirrel.Eq{"source_asset_id": sourceAssetId}).
			Where(squirrel.Eq{"target_asset_id": targetAssetId}).
			Where(squirrel.Eq{"relation": relation}),
		dbmodels.AdaptAssetEdge,
	)
}

func (repo *GridforgeDbRepository) ListEdgesForAsset(ctx context.Context, exec Executor,
	assetId uuid.UUID,
) ([]models.AssetEdge, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetEdgeColumn...).
			From(dbmodels.TABLE_ASSET_EDGES).
			Where(squirrel.Or{
				squirrel.Eq{"source_asset_id": assetId},
				squirrel.Eq{"target_asset_id": assetId},
			}).
			OrderBy("created_at ASC"),
		dbmodels.AdaptAssetEdge,
	)
}
