package repositories

import (
	"context"
	"strings"
	"testing"

	"github.com/go-faker/faker/v4/pkg/options"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories/dbmodels"
	"github.com/gridforge/gridforge-backend/utils"
)

func TestGetProjectById(t *testing.T) {
	repo := &GridforgeDbRepository{}
	projectId := uuid.New()

	selectSql := "SELECT " + strings.Join(dbmodels.SelectProjectColumn, ", ") +
		" FROM projects WHERE id = $1 AND deleted_at IS NULL"

	t.Run("returns the project", func(t *testing.T) {
		dbProject, row := utils.FakeStruct[dbmodels.DBProject](
			options.WithFieldsToIgnore("Id", "ClientId", "DeletedAt"))
		row[0] = projectId

		exec, mock := newMockExecutor(t)
		mock.ExpectQuery(selectSql).
			WithArgs(projectId.String()).
			WillReturnRows(pgxmock.NewRows(dbmodels.SelectProjectColumn).AddRow(row...))

		project, err := repo.GetProjectById(context.Background(), exec, projectId)
		require.NoError(t, err)
		assert.Equal(t, projectId, project.Id)
		assert.Equal(t, dbProject.Name, project.Name)
		assert.Equal(t, dbProject.Country, project.Country)
		assert.Nil(t, project.ClientId)
	})

	t.Run("maps an empty result to ErrProjectNotFound", func(t *testing.T) {
		exec, mock := newMockExecutor(t)
		mock.ExpectQuery(selectSql).
			WithArgs(projectId.String()).
			WillReturnRows(pgxmock.NewRows(dbmodels.SelectProjectColumn))

		_, err := repo.GetProjectById(context.Background(), exec, projectId)
		assert.ErrorIs(t, err, models.ErrProjectNotFound)
	})
}

func TestCreateProject(t *testing.T) {
	repo := &GridforgeDbRepository{}
	projectId := uuid.New()

	exec, mock := newMockExecutor(t)
	mock.ExpectExec("INSERT INTO projects (id,name,country,client_id) VALUES ($1,$2,$3,$4)").
		WithArgs(projectId, "north plant", "CA", (*uuid.UUID)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.CreateProject(context.Background(), exec, projectId, "north plant", "CA", nil)
	require.NoError(t, err)
}
