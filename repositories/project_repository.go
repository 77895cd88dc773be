package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
)

func (repo *GridforgeDbRepository) GetProjectById(ctx context.Context, exec Executor,
	projectId uuid.UUID,
) (models.Project, error) {
	project, err := SqlToModel(
		ctx,
		exec,
		NewQueryBuilder().Select(dbmodels.SelectProjectColumn...).
			From(dbmodels.TABLE_PROJECTS).
			Where(squirrel.Eq{"id": projectId}).
			Where(squirrel.Eq{"deleted_at": nil}),
		dbmodels.AdaptProject,
	)
	if errors.Is(err, models.NotFoundError) {
		return models.Project{}, errors.Wrap(models.ErrProjectNotFound, projectId.String())
	}
	return project, err
}

func (repo *GridforgeDbRepository) CreateProject(ctx context.Context, exec Executor,
	projectId uuid.UUID, name, country string, clientId *uuid.UUID,
) error {
	return ExecBuilder(
		ctx,
		exec,
		NewQueryBuilder().Insert(dbmodels.TABLE_PROJECTS).
			Columns(
				"id",
				"name",
				"country",
				"client_id",
			).
			Values(
				projectId,
				name,
				country,
				clientId,
			),
	)
}
