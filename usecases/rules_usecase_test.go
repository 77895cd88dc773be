package usecases

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/audit"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
)

type ruleStore struct {
	rules map[uuid.UUID]models.RuleDefinition
}

func (s *ruleStore) CreateRule(ctx context.Context, exec repositories.Executor,
	ruleId uuid.UUID, input models.CreateRuleInput,
) error {
	s.rules[ruleId] = models.RuleDefinition{
		Id:               ruleId,
		Name:             input.Name,
		Description:      input.Description,
		Source:           input.Source,
		SourceId:         input.SourceId,
		Priority:         input.Priority,
		Discipline:       input.Discipline,
		Category:         input.Category,
		ActionKind:       input.ActionKind,
		IsEnforced:       input.IsEnforced,
		Condition:        input.Condition,
		Action:           input.Action,
		ValidationStatus: models.RuleStatusDraft,
		IsActive:         true,
		Version:          1,
	}
	return nil
}

func (s *ruleStore) GetRuleById(ctx context.Context, exec repositories.Executor,
	ruleId uuid.UUID,
) (models.RuleDefinition, error) {
	rule, ok := s.rules[ruleId]
	if !ok {
		return models.RuleDefinition{}, errors.Wrap(models.NotFoundError, "rule not found")
	}
	return rule, nil
}

func (s *ruleStore) ListRulesBySource(ctx context.Context, exec repositories.Executor,
	source models.RuleSource, sourceId *string,
) ([]models.RuleDefinition, error) {
	var matching []models.RuleDefinition
	for _, rule := range s.rules {
		if rule.Source != source {
			continue
		}
		if sourceId != nil && (rule.SourceId == nil || *rule.SourceId != *sourceId) {
			continue
		}
		matching = append(matching, rule)
	}
	return matching, nil
}

func (s *ruleStore) UpdateRule(ctx context.Context, exec repositories.Executor,
	input models.UpdateRuleInput,
) error {
	rule, ok := s.rules[input.Id]
	if !ok {
		return errors.Wrap(models.NotFoundError, "rule not found")
	}
	if input.Name != nil {
		rule.Name = *input.Name
	}
	if input.Priority != nil {
		rule.Priority = *input.Priority
	}
	if input.IsEnforced != nil {
		rule.IsEnforced = *input.IsEnforced
	}
	if input.Condition != nil {
		rule.Condition = *input.Condition
	}
	if input.Action != nil {
		rule.Action = *input.Action
	}
	if input.IsActive != nil {
		rule.IsActive = *input.IsActive
	}
	rule.Version++
	s.rules[input.Id] = rule
	return nil
}

func (s *ruleStore) UpdateRuleValidationStatus(ctx context.Context, exec repositories.Executor,
	ruleId uuid.UUID, status models.RuleValidationStatus,
) error {
	rule, ok := s.rules[ruleId]
	if !ok {
		return errors.Wrap(models.NotFoundError, "rule not found")
	}
	rule.ValidationStatus = status
	s.rules[ruleId] = rule
	return nil
}

type cacheSpy struct {
	invalidated []uuid.UUID
	purges      int
}

func (c *cacheSpy) InvalidateRuleCache(projectId uuid.UUID) {
	c.invalidated = append(c.invalidated, projectId)
}

func (c *cacheSpy) PurgeRuleCache() { c.purges++ }

type rulesFixture struct {
	usecase *RulesUsecase
	store   *ruleStore
	cache   *cacheSpy
	events  *eventSink
}

type eventSink struct {
	events []models.CreateWorkflowEventInput
}

func (s *eventSink) CreateWorkflowEvent(ctx context.Context, exec repositories.Executor,
	eventId uuid.UUID, input models.CreateWorkflowEventInput,
) error {
	s.events = append(s.events, input)
	return nil
}

func (s *eventSink) ListWorkflowEvents(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID, filter models.WorkflowEventFilter,
) ([]models.WorkflowEvent, error) {
	return nil, nil
}

func newRulesFixture() rulesFixture {
	store := &ruleStore{rules: map[uuid.UUID]models.RuleDefinition{}}
	cache := &cacheSpy{}
	events := &eventSink{}
	factory := executor_factory.NewExecutorFactoryStub()
	usecase := NewRulesUsecase(factory, store, cache, audit.NewWorkflowLogger(factory, events, nil))
	return rulesFixture{usecase: usecase, store: store, cache: cache, events: events}
}

func validCreateInput(source models.RuleSource, sourceId *string) models.CreateRuleInput {
	return models.CreateRuleInput{
		Name:       "motor voltage",
		Source:     source,
		SourceId:   sourceId,
		Priority:   10,
		ActionKind: models.ActionKindSetProperty,
		Condition:  models.RuleCondition{EntityType: "MOTOR"},
		Action:     models.RuleAction{SetProperty: map[string]any{"voltage": "600V"}},
	}
}

func TestCreateRule(t *testing.T) {
	t.Run("creates and audits a project scoped rule", func(t *testing.T) {
		f := newRulesFixture()
		projectId := uuid.New().String()

		rule, err := f.usecase.CreateRule(context.Background(),
			validCreateInput(models.RuleSourceProject, &projectId))
		require.NoError(t, err)

		assert.Equal(t, models.RuleStatusDraft, rule.ValidationStatus)
		assert.True(t, rule.IsActive)

		require.Len(t, f.cache.invalidated, 1)
		assert.Equal(t, projectId, f.cache.invalidated[0].String())
		assert.Zero(t, f.cache.purges)

		require.Len(t, f.events.events, 1)
		assert.Equal(t, models.WorkflowActionRuleChange, f.events.events[0].ActionType)
	})

	t.Run("firm rules purge every cached project", func(t *testing.T) {
		f := newRulesFixture()

		_, err := f.usecase.CreateRule(context.Background(),
			validCreateInput(models.RuleSourceFirm, nil))
		require.NoError(t, err)

		assert.Equal(t, 1, f.cache.purges)
		assert.Empty(t, f.cache.invalidated)
		// no project to attach an audit event to
		assert.Empty(t, f.events.events)
	})

	t.Run("rejects a payload that does not match the kind", func(t *testing.T) {
		f := newRulesFixture()
		input := validCreateInput(models.RuleSourceFirm, nil)
		input.ActionKind = models.ActionKindValidate

		_, err := f.usecase.CreateRule(context.Background(), input)
		assert.ErrorIs(t, err, models.ErrInvalidRuleAction)
		assert.Empty(t, f.store.rules)
	})
}

func TestDeactivateRule(t *testing.T) {
	f := newRulesFixture()
	rule, err := f.usecase.CreateRule(context.Background(),
		validCreateInput(models.RuleSourceFirm, nil))
	require.NoError(t, err)

	require.NoError(t, f.usecase.DeactivateRule(context.Background(), rule.Id))

	stored := f.store.rules[rule.Id]
	assert.False(t, stored.IsActive)
	// never hard-deleted
	assert.Len(t, f.store.rules, 1)
}

func TestUpdateRuleValidationStatus(t *testing.T) {
	f := newRulesFixture()
	rule, err := f.usecase.CreateRule(context.Background(),
		validCreateInput(models.RuleSourceFirm, nil))
	require.NoError(t, err)

	t.Run("walks the lifecycle forward", func(t *testing.T) {
		updated, err := f.usecase.UpdateRuleValidationStatus(context.Background(),
			rule.Id, models.RuleStatusDevValidated)
		require.NoError(t, err)
		assert.Equal(t, models.RuleStatusDevValidated, updated.ValidationStatus)

		updated, err = f.usecase.UpdateRuleValidationStatus(context.Background(),
			rule.Id, models.RuleStatusProdReady)
		require.NoError(t, err)
		assert.Equal(t, models.RuleStatusProdReady, updated.ValidationStatus)
	})

	t.Run("rejects skipping a stage", func(t *testing.T) {
		f := newRulesFixture()
		draft, err := f.usecase.CreateRule(context.Background(),
			validCreateInput(models.RuleSourceFirm, nil))
		require.NoError(t, err)

		_, err = f.usecase.UpdateRuleValidationStatus(context.Background(),
			draft.Id, models.RuleStatusProdReady)
		assert.ErrorIs(t, err, models.BadParameterError)
	})

	t.Run("deprecation is terminal", func(t *testing.T) {
		f := newRulesFixture()
		rule, err := f.usecase.CreateRule(context.Background(),
			validCreateInput(models.RuleSourceFirm, nil))
		require.NoError(t, err)

		_, err = f.usecase.UpdateRuleValidationStatus(context.Background(),
			rule.Id, models.RuleStatusDeprecated)
		require.NoError(t, err)

		_, err = f.usecase.UpdateRuleValidationStatus(context.Background(),
			rule.Id, models.RuleStatusDraft)
		assert.ErrorIs(t, err, models.BadParameterError)
	})
}
