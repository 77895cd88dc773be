package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset semantic types. Regular equipment, grouping packages and derived
// cables all live in the same asset table so that versioning and rollback
// treat them uniformly.
const (
	AssetSemanticTypeAsset   = "ASSET"
	AssetSemanticTypePackage = "PACKAGE"
	AssetSemanticTypeCable   = "CABLE"
)

// Asset is the mutation target of the rule engine: a piece of tagged plant
// equipment with a free-form property bag and classification fields.
type Asset struct {
	Id           uuid.UUID
	ProjectId    uuid.UUID
	Tag          string
	Type         string
	Description  string
	Area         string
	System       string
	Discipline   string
	SemanticType string
	PackageId    *uuid.UUID
	Properties   map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

type CreateAssetInput struct {
	ProjectId    uuid.UUID
	Tag          string
	Type         string
	Description  string
	Area         string
	System       string
	Discipline   string
	SemanticType string
	Properties   map[string]any
}

// Snapshot returns the full field set of the asset as a flat key→value map,
// the unit of storage for asset versions. Property bag keys live under the
// "properties" key so that classification fields and free-form properties
// cannot collide.
func (a Asset) Snapshot() map[string]any {
	var packageId any
	if a.PackageId != nil {
		packageId = a.PackageId.String()
	}
	return map[string]any{
		"tag":           a.Tag,
		"type":          a.Type,
		"description":   a.Description,
		"area":          a.Area,
		"system":        a.System,
		"discipline":    a.Discipline,
		"semantic_type": a.SemanticType,
		"package_id":    packageId,
		"properties":    a.Properties,
	}
}

// PropertyValue resolves a condition filter key against the asset: known
// classification fields first, then the property bag.
func (a Asset) PropertyValue(key string) (any, bool) {
	switch key {
	case "tag":
		return a.Tag, true
	case "type":
		return a.Type, true
	case "area":
		return valueIfSet(a.Area)
	case "system":
		return valueIfSet(a.System)
	case "discipline":
		return valueIfSet(a.Discipline)
	}
	if a.Properties == nil {
		return nil, false
	}
	value, ok := a.Properties[key]
	return value, ok
}

func valueIfSet(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}

// AssetEdge is a directed, typed relationship between two assets.
type AssetEdge struct {
	Id            uuid.UUID
	ProjectId     uuid.UUID
	SourceAssetId uuid.UUID
	TargetAssetId uuid.UUID
	Relation      string
	Discipline    string
	CreatedAt     time.Time
}

type CreateAssetEdgeInput struct {
	ProjectId     uuid.UUID
	SourceAssetId uuid.UUID
	TargetAssetId uuid.UUID
	Relation      string
	Discipline    string
}

// Project scopes assets and rules. Country and ClientId select which
// COUNTRY- and CLIENT-tier rules apply to the project.
type Project struct {
	Id        uuid.UUID
	Name      string
	Country   string
	ClientId  *uuid.UUID
	CreatedAt time.Time
}
