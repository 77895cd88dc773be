package rule_engine

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/usecases/audit"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
)

type engineFixture struct {
	repository *inMemoryRepository
	versioner  *recordingVersioner
	engine     *RuleEngine
	projectId  uuid.UUID
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	repository := newInMemoryRepository()
	versioner := &recordingVersioner{}
	factory := executor_factory.NewExecutorFactoryStub()
	workflowLogger := audit.NewWorkflowLogger(factory, repository, nil)

	projectId := uuid.New()
	repository.projects[projectId] = models.Project{Id: projectId, Name: "plant", Country: "CA"}

	return &engineFixture{
		repository: repository,
		versioner:  versioner,
		engine:     NewRuleEngine(factory, repository, versioner, workflowLogger),
		projectId:  projectId,
	}
}

func TestApplyRules_EndToEnd(t *testing.T) {
	f := newEngineFixture(t)
	motor := f.repository.addAsset(models.Asset{
		ProjectId:  f.projectId,
		Tag:        "M-101",
		Type:       "MOTOR",
		Properties: map[string]any{"hp": 50},
	})
	pump := f.repository.addAsset(models.Asset{
		ProjectId: f.projectId,
		Tag:       "P-101",
		Type:      "PUMP",
	})
	setVoltage := models.RuleDefinition{
		Id:         uuid.New(),
		Name:       "motor voltage",
		Source:     models.RuleSourceFirm,
		Priority:   10,
		ActionKind: models.ActionKindSetProperty,
		Condition:  models.RuleCondition{EntityType: "MOTOR"},
		Action:     models.RuleAction{SetProperty: map[string]any{"voltage": "600V"}},
	}
	f.repository.rules = []models.RuleDefinition{setVoltage}

	summary, err := f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RulesEvaluated)
	assert.Equal(t, 2, summary.EntitiesProcessed)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Errors)

	assert.Equal(t, "600V", f.repository.assets[motor.Id].Properties["voltage"])
	assert.NotContains(t, f.repository.assets[pump.Id].Properties, "voltage")

	// one execution row per (rule, entity) pair, misses included
	require.Len(t, f.repository.executions, 2)
	outcomes := map[string]models.OutcomeKind{}
	for _, execution := range f.repository.executions {
		outcomes[execution.EntityTag] = execution.Outcome
		assert.Equal(t, summary.RunId, execution.RunId)
	}
	assert.Equal(t, models.OutcomeUpdate, outcomes["M-101"])
	assert.Equal(t, models.OutcomeSkip, outcomes["P-101"])

	// per-rule stats only count matched entities
	require.Len(t, summary.PerRule, 1)
	assert.Equal(t, 1, summary.PerRule[0].Matched)
	assert.Zero(t, summary.PerRule[0].Failures)
	assert.Equal(t, [2]int{1, 0}, f.repository.ruleStats[setVoltage.Id])

	// lock released at the end of the run
	assert.Empty(t, f.repository.locks)

	// workflow started and completed under one correlation id
	require.GreaterOrEqual(t, len(f.repository.events), 2)
	first := f.repository.events[0]
	last := f.repository.events[len(f.repository.events)-1]
	require.NotNil(t, first.Status)
	require.NotNil(t, last.Status)
	assert.Equal(t, models.WorkflowStatusStarted, *first.Status)
	assert.Equal(t, models.WorkflowStatusCompleted, *last.Status)
	assert.Equal(t, first.CorrelationId, last.CorrelationId)
	assert.Nil(t, first.ParentEventId)
	require.NotNil(t, last.ParentEventId)
	assert.Equal(t, first.CorrelationId, *last.ParentEventId)
}

func TestApplyRules_ConcurrentRunRejected(t *testing.T) {
	f := newEngineFixture(t)
	f.repository.locks[f.projectId] = uuid.New()

	_, err := f.engine.ApplyRules(context.Background(), f.projectId)
	assert.ErrorIs(t, err, models.ErrConcurrentRun)
}

func TestApplyRules_UnknownProject(t *testing.T) {
	f := newEngineFixture(t)

	_, err := f.engine.ApplyRules(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrProjectNotFound)
}

func TestApplyRules_HandlerErrorProducesErrorRow(t *testing.T) {
	f := newEngineFixture(t)
	f.repository.addAsset(models.Asset{
		ProjectId: f.projectId,
		Tag:       "M-101",
		Type:      "MOTOR",
	})
	f.repository.addAsset(models.Asset{
		ProjectId: f.projectId,
		Tag:       "MCC-01",
		Type:      "MCC",
	})
	// the edge write fails mid-handler; the run must survive
	f.repository.failEdgeCreate = errors.New("edge insert failed")
	broken := models.RuleDefinition{
		Id:         uuid.New(),
		Name:       "broken rule",
		ActionKind: models.ActionKindCreateRelationship,
		Condition:  models.RuleCondition{EntityType: "MOTOR"},
		Action: models.RuleAction{CreateRelationship: &models.CreateRelationshipAction{
			Relation:  "FED_FROM",
			TargetTag: "MCC-01",
		}},
	}
	f.repository.rules = []models.RuleDefinition{broken}

	summary, err := f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Errors)
	require.Len(t, f.repository.executions, 2)
	assert.Equal(t, models.OutcomeError, f.repository.executions[0].Outcome)
	assert.Equal(t, models.OutcomeSkip, f.repository.executions[1].Outcome)
	assert.Equal(t, [2]int{1, 1}, f.repository.ruleStats[broken.Id])
	assert.Empty(t, f.repository.locks)
}

func TestApplyRules_ConflictingRuleDoesNotRun(t *testing.T) {
	f := newEngineFixture(t)
	motor := f.repository.addAsset(models.Asset{
		ProjectId: f.projectId,
		Tag:       "M-101",
		Type:      "MOTOR",
	})
	condition := models.RuleCondition{EntityType: "MOTOR"}
	firm := models.RuleDefinition{
		Id:         uuid.New(),
		Name:       "firm voltage",
		Source:     models.RuleSourceFirm,
		Priority:   10,
		ActionKind: models.ActionKindSetProperty,
		Condition:  condition,
		Action:     models.RuleAction{SetProperty: map[string]any{"voltage": "600V"}},
	}
	project := models.RuleDefinition{
		Id:         uuid.New(),
		Name:       "project voltage",
		Source:     models.RuleSourceProject,
		Priority:   30,
		ActionKind: models.ActionKindSetProperty,
		Condition:  condition,
		Action:     models.RuleAction{SetProperty: map[string]any{"voltage": "480V"}},
	}
	f.repository.rules = []models.RuleDefinition{firm, project}

	summary, err := f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.RulesEvaluated)
	require.Len(t, summary.Conflicts, 1)
	assert.Equal(t, project.Id, summary.Conflicts[0].WinnerRuleId)
	assert.Equal(t, "480V", f.repository.assets[motor.Id].Properties["voltage"])
}

func TestApplyRules_InvalidStoredRuleExcluded(t *testing.T) {
	f := newEngineFixture(t)
	f.repository.addAsset(models.Asset{
		ProjectId: f.projectId,
		Tag:       "M-101",
		Type:      "MOTOR",
	})
	// declared kind has no matching payload; the rule never reaches a handler
	f.repository.rules = []models.RuleDefinition{{
		Id:         uuid.New(),
		Name:       "corrupted rule",
		ActionKind: models.ActionKindCreateChild,
		Condition:  models.RuleCondition{EntityType: "MOTOR"},
	}}

	summary, err := f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)
	assert.Zero(t, summary.RulesEvaluated)
	assert.Empty(t, f.repository.executions)
}

func TestRuleCache(t *testing.T) {
	f := newEngineFixture(t)
	f.repository.addAsset(models.Asset{
		ProjectId: f.projectId,
		Tag:       "M-101",
		Type:      "MOTOR",
	})
	f.repository.rules = nil

	_, err := f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)

	// the empty rule list is now cached; new rules are invisible until
	// the cache entry is dropped
	f.repository.rules = []models.RuleDefinition{{
		Id:         uuid.New(),
		Name:       "late rule",
		ActionKind: models.ActionKindSetProperty,
		Condition:  models.RuleCondition{EntityType: "MOTOR"},
		Action:     models.RuleAction{SetProperty: map[string]any{"voltage": "600V"}},
	}}

	summary, err := f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)
	assert.Zero(t, summary.RulesEvaluated)

	f.engine.InvalidateRuleCache(f.projectId)
	summary, err = f.engine.ApplyRules(context.Background(), f.projectId)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RulesEvaluated)
}
