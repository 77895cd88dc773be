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

type DBAssetVersion struct {
	Id            uuid.UUID       `db:"id"`
	AssetId       uuid.UUID       `db:"asset_id"`
	ProjectId     uuid.UUID       `db:"project_id"`
	VersionNumber int             `db:"version_number"`
	Snapshot      json.RawMessage `db:"snapshot"`
	Source        string          `db:"source"`
	SourceRuleId  uuid.NullUUID   `db:"source_rule_id"`
	BatchId       uuid.NullUUID   `db:"batch_id"`
	ChangedBy     string          `db:"changed_by"`
	Comment       string          `db:"comment"`
	CreatedAt     time.Time       `db:"created_at"`
}

const TABLE_ASSET_VERSIONS = "asset_versions"

var SelectAssetVersionColumn = utils.ColumnList[DBAssetVersion]()

func AdaptAssetVersion(db DBAssetVersion) (models.AssetVersion, error) {
	version := models.AssetVersion{
		Id:            db.Id,
		AssetId:       db.AssetId,
		ProjectId:     db.ProjectId,
		VersionNumber: db.VersionNumber,
		Source:        models.ChangeSource(db.Source),
		ChangedBy:     db.ChangedBy,
		Comment:       db.Comment,
		CreatedAt:     db.CreatedAt,
	}
	if db.SourceRuleId.Valid {
		sourceRuleId := db.SourceRuleId.UUID
		version.SourceRuleId = &sourceRuleId
	}
	if db.BatchId.Valid {
		batchId := db.BatchId.UUID
		version.BatchId = &batchId
	}
	if err := json.Unmarshal(db.Snapshot, &version.Snapshot); err != nil {
		return models.AssetVersion{}, errors.Wrap(err, "can't decode version snapshot")
	}
	return version, nil
}

type DBPropertyChange struct {
	Id            uuid.UUID   `db:"id"`
	AssetId       uuid.UUID   `db:"asset_id"`
	VersionNumber int         `db:"version_number"`
	PropertyKey   string      `db:"property_key"`
	OldValue      null.String `db:"old_value"`
	NewValue      null.String `db:"new_value"`
	Source        string      `db:"source"`
	ChangedBy     string      `db:"changed_by"`
	CreatedAt     time.Time   `db:"created_at"`
}

const TABLE_PROPERTY_CHANGES = "property_changes"

var SelectPropertyChangeColumn = utils.ColumnList[DBPropertyChange]()

func AdaptPropertyChange(db DBPropertyChange) (models.PropertyChange, error) {
	change := models.PropertyChange{
		Id:            db.Id,
		AssetId:       db.AssetId,
		VersionNumber: db.VersionNumber,
		PropertyKey:   db.PropertyKey,
		Source:        models.ChangeSource(db.Source),
		ChangedBy:     db.ChangedBy,
		CreatedAt:     db.CreatedAt,
	}
	if db.OldValue.Valid {
		oldValue := db.OldValue.String
		change.OldValue = &oldValue
	}
	if db.NewValue.Valid {
		newValue := db.NewValue.String
		change.NewValue = &newValue
	}
	return change, nil
}
