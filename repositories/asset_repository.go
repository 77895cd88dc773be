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

func (repo *GridforgeDbRepository) CreateAsset(ctx context.Context, exec Executor,
	assetId uuid.UUID, input models.CreateAssetInput,
) error {
	properties, err := json.Marshal(input.Properties)
	if err != nil {
		return errors.Wrap(err, "can't encode asset properties")
	}

	err = ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_ASSETS).
			Columns(
				"id",
				"project_id",
				"tag",
				"type",
				"description",
				"area",
				"system",
				"discipline",
				"semantic_type",
				"properties",
			).
			Values(
				assetId,
				input.ProjectId,
				input.Tag,
				input.Type,
				input.Description,
				input.Area,
				input.System,
				input.Discipline,
				input.SemanticType,
				properties,
			),
	)
	if IsUniqueViolationError(err) {
		return errors.Wrap(models.ConflictError, "an asset with this tag already exists in the project")
	}
	return err
}

func (repo *GridforgeDbRepository) GetAssetById(ctx context.Context, exec Executor,
	assetId uuid.UUID,
) (models.Asset, error) {
	return SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetColumn...).
			From(dbmodels.TABLE_ASSETS).
			Where(squirrel.Eq{"id": assetId}),
		dbmodels.AdaptAsset,
	)
}

// GetAssetByTag returns the live asset carrying the tag in the project, or
// nil when the tag is unused. Tags of soft-deleted assets can be reused.
func (repo *GridforgeDbRepository) GetAssetByTag(ctx context.Context, exec Executor,
	projectId uuid.UUID, tag string,
) (*models.Asset, error) {
	return SqlToOptionalModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetColumn...).
			From(dbmodels.TABLE_ASSETS).
			Where(squirrel.Eq{"project_id": projectId}).
			Where(squirrel.Eq{"tag": tag}).
			Where(squirrel.Eq{"deleted_at": nil}),
		dbmodels.AdaptAsset,
	)
}

func (repo *GridforgeDbRepository) ListAssetsForProject(ctx context.Context, exec Executor,
	projectId uuid.UUID,
) ([]models.Asset, error) {
	return SqlToListOfModels(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectAssetColumn...).
			From(dbmodels.TABLE_ASSETS).
			Where(squirrel.Eq{"project_id": projectId}).
			Where(squirrel.Eq{"deleted_at": nil}).
			OrderBy("created_at ASC, tag ASC"),
		dbmodels.AdaptAsset,
	)
}

// ListAssetsMatching narrows project assets by classification fields, used
// to collect the member set of a grouping asset.
func (repo *GridforgeDbRepository) ListAssetsMatching(ctx context.Context, exec Executor,
	projectId uuid.UUID, filter models.PackageIncludeFilter,
) ([]models.Asset, error) {
	query := NewQueryBuilder().Select(dbmodels.SelectAssetColumn...).
		From(dbmodels.TABLE_ASSETS).
		Where(squirrel.Eq{"project_id": projectId}).
		Where(squirrel.Eq{"deleted_at": nil}).
		OrderBy("tag ASC")

	if len(filter.TypeIn) > 0 {
		query = query.Where(squirrel.Eq{"type": filter.TypeIn})
	}
	if filter.Area != "" {
		query = query.Where(squirrel.Eq{"area": filter.Area})
	}
	if filter.Discipline != "" {
		query = query.Where(squirrel.Eq{"discipline": filter.Discipline})
	}
	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptAsset)
}

func (repo *GridforgeDbRepository) UpdateAssetProperties(ctx context.Context, exec Executor,
	assetId uuid.UUID, properties map[string]any,
) error {
	serialized, err := json.Marshal(properties)
	if err != nil {
		return errors.Wrap(err, "can't encode asset properties")
	}

	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_ASSETS).
			Where(squirrel.Eq{"id": assetId}).
			Set("properties", serialized).
			Set("updated_at", squirrel.Expr("NOW()")),
	)
}

// RestoreAssetSnapshot overwrites the asset's mutable fields from a version
// snapshot, used by rollbacks.
func (repo *GridforgeDbRepository) RestoreAssetSnapshot(ctx context.Context, exec Executor,
	assetId uuid.UUID, snapshot map[string]any,
) error {
	query := NewQueryBuilder().Update(dbmodels.TABLE_ASSETS).
		Where(squirrel.Eq{"id": assetId}).
		Set("updated_at", squirrel.Expr("NOW()"))

	stringField := func(key string) string {
		if v, ok := snapshot[key].(string); ok {
			return v
		}
		return ""
	}
	query = query.
		Set("tag", stringField("tag")).
		Set("type", stringField("type")).
		Set("description", stringField("description")).
		Set("area", stringField("area")).
		Set("system", stringField("system")).
		Set("discipline", stringField("discipline")).
		Set("semantic_type", stringField("semantic_type"))

	if raw, ok := snapshot["package_id"].(string); ok && raw != "" {
		packageId, err := uuid.Parse(raw)
		if err != nil {
			return errors.Wrap(models.BadParameterError, "invalid package_id in snapshot")
		}
		query = query.Set("package_id", packageId)
	} else {
		query = query.Set("package_id", nil)
	}

	properties, _ := snapshot["properties"].(map[string]any)
	if properties == nil {
		properties = map[string]any{}
	}
	serialized, err := json.Marshal(properties)
	if err != nil {
		return errors.Wrap(err, "can't encode asset properties")
	}
	query = query.Set("properties", serialized)

	return ExecBuilder(ctx, exec, query)
}

func (repo *GridforgeDbRepository) AssignAssetsToPackage(ctx context.Context, exec Executor,
	packageId uuid.UUID, assetIds []uuid.UUID,
) error {
	if len(assetIds) == 0 {
		return nil
	}
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_ASSETS).
			Where(squirrel.Eq{"id": assetIds}).
			Set("package_id", packageId).
			Set("updated_at", squirrel.Expr("NOW()")),
	)
}

func (repo *GridforgeDbRepository) SoftDeleteAsset(ctx context.Context, exec Executor,
	assetId uuid.UUID,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Update(dbmodels.TABLE_ASSETS).
			Where(squirrel.Eq{"id": assetId}).
			Where(squirrel.Eq{"deleted_at": nil}).
			Set("deleted_at", squirrel.Expr("NOW()")).
			Set("updated_at", squirrel.Expr("NOW()")),
	)
}
