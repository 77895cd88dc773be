package dbmodels

import (
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/utils"
)

type DBProject struct {
	Id        uuid.UUID   `db:"id"`
	Name      string      `db:"name"`
	Country   string      `db:"country"`
	ClientId  null.String `db:"client_id"`
	CreatedAt time.Time   `db:"created_at"`
	DeletedAt null.Time   `db:"deleted_at"`
}

const TABLE_PROJECTS = "projects"

var SelectProjectColumn = utils.ColumnList[DBProject]()

func AdaptProject(db DBProject) (models.Project, error) {
	project := models.Project{
		Id:        db.Id,
		Name:      db.Name,
		Country:   db.Country,
		CreatedAt: db.CreatedAt,
	}
	if db.ClientId.Valid {
		clientId, err := uuid.Parse(db.ClientId.String)
		if err != nil {
			return models.Project{}, err
		}
		project.ClientId = &clientId
	}
	return project, nil
}
