package rule_engine

import (
	"context"
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/versioning"
)

// inMemoryRepository backs handler and orchestrator tests with a map-based
// asset store, so idempotency and edge creation can be asserted end to end
// without a database.
type inMemoryRepository struct {
	projects   map[uuid.UUID]models.Project
	assets     map[uuid.UUID]models.Asset
	edges      []models.AssetEdge
	rules      []models.RuleDefinition
	executions []models.CreateRuleExecutionInput
	events     []models.CreateWorkflowEventInput
	batches    map[uuid.UUID]models.CreateBatchOperationInput
	locks      map[uuid.UUID]uuid.UUID
	ruleStats  map[uuid.UUID][2]int

	failEdgeCreate error
}

func newInMemoryRepository() *inMemoryRepository {
	return &inMemoryRepository{
		projects:  map[uuid.UUID]models.Project{},
		assets:    map[uuid.UUID]models.Asset{},
		batches:   map[uuid.UUID]models.CreateBatchOperationInput{},
		locks:     map[uuid.UUID]uuid.UUID{},
		ruleStats: map[uuid.UUID][2]int{},
	}
}

func (r *inMemoryRepository) addAsset(asset models.Asset) models.Asset {
	if asset.Id == uuid.Nil {
		asset.Id = uuid.New()
	}
	r.assets[asset.Id] = asset
	return asset
}

func (r *inMemoryRepository) CreateAsset(ctx context.Context, exec repositories.Executor,
	assetId uuid.UUID, input models.CreateAssetInput,
) error {
	for _, existing := range r.assets {
		if existing.ProjectId == input.ProjectId && existing.Tag == input.Tag && existing.DeletedAt == nil {
			return errors.Wrap(models.ConflictError, "duplicate tag "+input.Tag)
		}
	}
	r.assets[assetId] = models.Asset{
		Id:           assetId,
		ProjectId:    input.ProjectId,
		Tag:          input.Tag,
		Type:         input.Type,
		Description:  input.Description,
		Area:         input.Area,
		System:       input.System,
		Discipline:   input.Discipline,
		SemanticType: input.SemanticType,
		Properties:   input.Properties,
	}
	return nil
}

func (r *inMemoryRepository) GetAssetById(ctx context.Context, exec repositories.Executor,
	assetId uuid.UUID,
) (models.Asset, error) {
	asset, ok := r.assets[assetId]
	if !ok {
		return models.Asset{}, errors.Wrap(models.NotFoundError, "asset not found")
	}
	return asset, nil
}

func (r *inMemoryRepository) GetAssetByTag(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID, tag string,
) (*models.Asset, error) {
	for _, asset := range r.assets {
		if asset.ProjectId == projectId && asset.Tag == tag && asset.DeletedAt == nil {
			found := asset
			return &found, nil
		}
	}
	return nil, nil
}

func (r *inMemoryRepository) ListAssetsMatching(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID, filter models.PackageIncludeFilter,
) ([]models.Asset, error) {
	matching := make([]models.Asset, 0)
	for _, asset := range r.assets {
		if asset.ProjectId != projectId || asset.DeletedAt != nil {
			continue
		}
		if len(filter.TypeIn) > 0 && !slices.Contains(filter.TypeIn, asset.Type) {
			continue
		}
		if filter.Area != "" && asset.Area != filter.Area {
			continue
		}
		if filter.Discipline != "" && asset.Discipline != filter.Discipline {
			continue
		}
		matching = append(matching, asset)
	}
	sort.Slice(matching, func(i, j int) bool { return matching[i].Tag < matching[j].Tag })
	return matching, nil
}

func (r *inMemoryRepository) UpdateAssetProperties(ctx context.Context, exec repositories.Executor,
	assetId uuid.UUID, properties map[string]any,
) error {
	asset, ok := r.assets[assetId]
	if !ok {
		return errors.Wrap(models.NotFoundError, "asset not found")
	}
	asset.Properties = properties
	r.assets[assetId] = asset
	return nil
}

func (r *inMemoryRepository) AssignAssetsToPackage(ctx context.Context, exec repositories.Executor,
	packageId uuid.UUID, assetIds []uuid.UUID,
) error {
	for _, assetId := range assetIds {
		asset, ok := r.assets[assetId]
		if !ok {
			return errors.Wrap(models.NotFoundError, "asset not found")
		}
		id := packageId
		asset.PackageId = &id
		r.assets[assetId] = asset
	}
	return nil
}

func (r *inMemoryRepository) CreateAssetEdge(ctx context.Context, exec repositories.Executor,
	edgeId uuid.UUID, input models.CreateAssetEdgeInput,
) error {
	if r.failEdgeCreate != nil {
		return r.failEdgeCreate
	}
	r.edges = append(r.edges, models.AssetEdge{
		Id:            edgeId,
		ProjectId:     input.ProjectId,
		SourceAssetId: input.SourceAssetId,
		TargetAssetId: input.TargetAssetId,
		Relation:      input.Relation,
		Discipline:    input.Discipline,
	})
	return nil
}

func (r *inMemoryRepository) GetAssetEdge(ctx context.Context, exec repositories.Executor,
	sourceAssetId, targetAssetId uuid.UUID, relation string,
) (*models.AssetEdge, error) {
	for _, edge := range r.edges {
		if edge.SourceAssetId == sourceAssetId && edge.TargetAssetId == targetAssetId &&
			edge.Relation == relation {
			found := edge
			return &found, nil
		}
	}
	return nil, nil
}

func (r *inMemoryRepository) GetProjectById(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID,
) (models.Project, error) {
	project, ok := r.projects[projectId]
	if !ok {
		return models.Project{}, models.ErrProjectNotFound
	}
	return project, nil
}

func (r *inMemoryRepository) ListActiveRulesForProject(ctx context.Context, exec repositories.Executor,
	project models.Project,
) ([]models.RuleDefinition, error) {
	return r.rules, nil
}

func (r *inMemoryRepository) ListAssetsForProject(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID,
) ([]models.Asset, error) {
	assets := make([]models.Asset, 0, len(r.assets))
	for _, asset := range r.assets {
		if asset.ProjectId == projectId && asset.DeletedAt == nil {
			assets = append(assets, asset)
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Tag < assets[j].Tag })
	return assets, nil
}

func (r *inMemoryRepository) AcquireProjectRunLock(ctx context.Context, exec repositories.Executor,
	projectId, runId uuid.UUID,
) (bool, error) {
	if _, held := r.locks[projectId]; held {
		return false, nil
	}
	r.locks[projectId] = runId
	return true, nil
}

func (r *inMemoryRepository) ReleaseProjectRunLock(ctx context.Context, exec repositories.Executor,
	projectId, runId uuid.UUID,
) error {
	delete(r.locks, projectId)
	return nil
}

func (r *inMemoryRepository) CreateBatchOperation(ctx context.Context, exec repositories.Executor,
	batchId uuid.UUID, input models.CreateBatchOperationInput,
) error {
	r.batches[batchId] = input
	return nil
}

func (r *inMemoryRepository) CreateRuleExecution(ctx context.Context, exec repositories.Executor,
	executionId uuid.UUID, input models.CreateRuleExecutionInput,
) error {
	r.executions = append(r.executions, input)
	return nil
}

func (r *inMemoryRepository) RecordRuleExecutionStats(ctx context.Context, exec repositories.Executor,
	ruleId uuid.UUID, executions, failures int,
) error {
	stats := r.ruleStats[ruleId]
	stats[0] += executions
	stats[1] += failures
	r.ruleStats[ruleId] = stats
	return nil
}

func (r *inMemoryRepository) CreateWorkflowEvent(ctx context.Context, exec repositories.Executor,
	eventId uuid.UUID, input models.CreateWorkflowEventInput,
) error {
	r.events = append(r.events, input)
	return nil
}

func (r *inMemoryRepository) ListWorkflowEvents(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID, filter models.WorkflowEventFilter,
) ([]models.WorkflowEvent, error) {
	return nil, nil
}

// recordingVersioner counts version writes per asset instead of persisting
// snapshots.
type recordingVersioner struct {
	recorded []uuid.UUID
}

func (v *recordingVersioner) RecordVersion(ctx context.Context, exec repositories.Executor,
	asset models.Asset, meta versioning.VersionMeta,
) (int, error) {
	v.recorded = append(v.recorded, asset.Id)
	count := 0
	for _, id := range v.recorded {
		if id == asset.Id {
			count++
		}
	}
	return count, nil
}
