package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/guregu/null/v5"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/utils"
)

type DBAsset struct {
	Id           uuid.UUID       `db:"id"`
	ProjectId    uuid.UUID       `db:"project_id"`
	Tag          string          `db:"tag"`
	Type         string          `db:"type"`
	Description  string          `db:"description"`
	Area         string          `db:"area"`
	System       string          `db:"system"`
	Discipline   string          `db:"discipline"`
	SemanticType string          `db:"semantic_type"`
	PackageId    uuid.NullUUID   `db:"package_id"`
	Properties   json.RawMessage `db:"properties"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
	DeletedAt    null.Time       `db:"deleted_at"`
}

const TABLE_ASSETS = "assets"

var SelectAssetColumn = utils.ColumnList[DBAsset]()

func AdaptAsset(db DBAsset) (models.Asset, error) {
	asset := models.Asset{
		Id:           db.Id,
		ProjectId:    db.ProjectId,
		Tag:          db.Tag,
		Type:         db.Type,
		Description:  db.Description,
		Area:         db.Area,
		System:       db.System,
		Discipline:   db.Discipline,
		SemanticType: db.SemanticType,
		CreatedAt:    db.CreatedAt,
		UpdatedAt:    db.UpdatedAt,
	}
	if db.PackageId.Valid {
		packageId := db.PackageId.UUID
		asset.PackageId = &packageId
	}
	if db.DeletedAt.Valid {
		deletedAt := db.DeletedAt.Time
		asset.DeletedAt = &deletedAt
	}
	if len(db.Properties) > 0 {
		if err := json.Unmarshal(db.Properties, &asset.Properties); err != nil {
			return models.Asset{}, errors.Wrap(err, "can't decode asset properties")
		}
	}
	if asset.Properties == nil {
		asset.Properties = map[string]any{}
	}
	return asset, nil
}
