package dbmodels

import (
	"time"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/utils"
)

type DBAssetEdge struct {
	Id            uuid.UUID `db:"id"`
	ProjectId     uuid.UUID `db:"project_id"`
	SourceAssetId uuid.UUID `db:"source_asset_id"`
	TargetAssetId uuid.UUID `db:"target_asset_id"`
	Relation      string    `db:"relation"`
	Discipline    string    `db:"discipline"`
	CreatedAt     time.Time `db:"created_at"`
}

const TABLE_ASSET_EDGES = "asset_edges"

var SelectAssetEdgeColumn = utils.ColumnList[DBAssetEdge]()

func AdaptAssetEdge(db DBAssetEdge) (models.AssetEdge, error) {
	return models.AssetEdge{
		Id:            db.Id,
		ProjectId:     db.ProjectId,
		SourceAssetId: db.SourceAssetId,
		TargetAssetId: db.TargetAssetId,
		Relation:      db.Relation,
		Discipline:    db.Discipline,
		CreatedAt:     db.CreatedAt,
	}, nil
}
