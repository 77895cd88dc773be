package models

import (
	"time"

	"github.com/google/uuid"
)

type ChangeSource string

const (
	ChangeSourceUser     ChangeSource = "USER"
	ChangeSourceRule     ChangeSource = "RULE"
	ChangeSourceImport   ChangeSource = "IMPORT"
	ChangeSourceApi      ChangeSource = "API"
	ChangeSourceRollback ChangeSource = "ROLLBACK"
	ChangeSourceSystem   ChangeSource = "SYSTEM"
)

// AssetVersion is an immutable full snapshot of an asset at a point in
// time. Version numbers are dense per asset, starting at 1, and existing
// rows are never updated: a rollback materializes an old snapshot as a new
// version rather than rewinding the sequence.
type AssetVersion struct {
	Id            uuid.UUID
	AssetId       uuid.UUID
	ProjectId     uuid.UUID
	VersionNumber int
	Snapshot      map[string]any
	Source        ChangeSource
	SourceRuleId  *uuid.UUID
	BatchId       *uuid.UUID
	ChangedBy     string
	Comment       string
	CreatedAt     time.Time
}

type CreateAssetVersionInput struct {
	AssetId       uuid.UUID
	ProjectId     uuid.UUID
	VersionNumber int
	Snapshot      map[string]any
	Source        ChangeSource
	SourceRuleId  *uuid.UUID
	BatchId       *uuid.UUID
	ChangedBy     string
	Comment       string
}

// PropertyChange records one field-level delta between two consecutive
// versions, kept alongside the snapshots to make per-property history
// queries cheap.
type PropertyChange struct {
	Id            uuid.UUID
	AssetId       uuid.UUID
	VersionNumber int
	PropertyKey   string
	OldValue      *string
	NewValue      *string
	Source        ChangeSource
	ChangedBy     string
	CreatedAt     time.Time
}

type CreatePropertyChangeInput struct {
	AssetId       uuid.UUID
	VersionNumber int
	PropertyKey   string
	OldValue      *string
	NewValue      *string
	Source        ChangeSource
	ChangedBy     string
}

type FieldChangeKind string

const (
	FieldAdded    FieldChangeKind = "ADDED"
	FieldRemoved  FieldChangeKind = "REMOVED"
	FieldModified FieldChangeKind = "MODIFIED"
)

type FieldChange struct {
	Key      string
	Kind     FieldChangeKind
	OldValue any
	NewValue any
}

// VersionDiff is the field-level comparison of two versions of one asset.
type VersionDiff struct {
	AssetId     uuid.UUID
	FromVersion int
	ToVersion   int
	Changes     []FieldChange
}

func (d VersionDiff) IsEmpty() bool {
	return len(d.Changes) == 0
}

func (d VersionDiff) keysOfKind(kind FieldChangeKind) []string {
	keys := make([]string, 0)
	for _, change := range d.Changes {
		if change.Kind == kind {
			keys = append(keys, change.Key)
		}
	}
	return keys
}

// Added returns the keys present only in the newer version.
func (d VersionDiff) Added() []string {
	return d.keysOfKind(FieldAdded)
}

// Removed returns the keys present only in the older version.
func (d VersionDiff) Removed() []string {
	return d.keysOfKind(FieldRemoved)
}

// Modified returns the keys present in both versions with different values.
func (d VersionDiff) Modified() []string {
	return d.keysOfKind(FieldModified)
}

type RollbackResult struct {
	AssetId       uuid.UUID
	FromVersion   int
	ToVersion     int
	NewVersion    int
	FieldsChanged int
}

type BatchRollbackResult struct {
	BatchId          uuid.UUID
	EntitiesReverted int
	EntitiesDeleted  int
	Failures         []BatchRollbackFailure
}

type BatchRollbackFailure struct {
	AssetId uuid.UUID
	Reason  string
}
