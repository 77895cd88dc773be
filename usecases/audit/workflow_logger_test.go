package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/utils"
)

type storedEvent struct {
	id    uuid.UUID
	input models.CreateWorkflowEventInput
}

type eventStore struct {
	events []storedEvent
}

func (s *eventStore) CreateWorkflowEvent(ctx context.Context, exec repositories.Executor,
	eventId uuid.UUID, input models.CreateWorkflowEventInput,
) error {
	s.events = append(s.events, storedEvent{id: eventId, input: input})
	return nil
}

func (s *eventStore) ListWorkflowEvents(ctx context.Context, exec repositories.Executor,
	projectId uuid.UUID, filter models.WorkflowEventFilter,
) ([]models.WorkflowEvent, error) {
	return nil, nil
}

func newLoggerFixture(broadcaster EventBroadcaster) (*WorkflowLogger, *eventStore) {
	store := &eventStore{}
	return NewWorkflowLogger(executor_factory.NewExecutorFactoryStub(), store, broadcaster), store
}

func TestWorkflowLifecycle(t *testing.T) {
	logger, store := newLoggerFixture(nil)
	projectId := uuid.New()
	ctx := utils.StoreActorIdentityInContext(context.Background(),
		utils.ActorIdentity{UserId: "alice"})

	correlationId, err := logger.StartWorkflow(ctx, projectId,
		models.WorkflowActionRuleRun, "run started", nil)
	require.NoError(t, err)

	require.NoError(t, logger.LogEvent(ctx, models.CreateWorkflowEventInput{
		ProjectId:     projectId,
		CorrelationId: correlationId,
		ActionType:    models.WorkflowActionRuleRun,
		Message:       "progress",
	}))
	require.NoError(t, logger.CompleteWorkflow(ctx, projectId, correlationId,
		models.WorkflowActionRuleRun, "run completed", nil))

	require.Len(t, store.events, 3)
	root, progress, terminal := store.events[0], store.events[1], store.events[2]

	// the root entry doubles as the correlation id, later entries hang off it
	assert.Equal(t, correlationId, root.id)
	assert.Nil(t, root.input.ParentEventId)
	require.NotNil(t, progress.input.ParentEventId)
	assert.Equal(t, correlationId, *progress.input.ParentEventId)
	require.NotNil(t, terminal.input.ParentEventId)
	assert.Equal(t, correlationId, *terminal.input.ParentEventId)

	require.NotNil(t, terminal.input.Status)
	assert.Equal(t, models.WorkflowStatusCompleted, *terminal.input.Status)

	// unset fields get audit defaults
	assert.Equal(t, models.LogLevelInfo, progress.input.Level)
	assert.Equal(t, models.LogSourceSystem, progress.input.Source)
	assert.Equal(t, "alice", progress.input.Actor)
}

func TestFailWorkflowRecordsError(t *testing.T) {
	logger, store := newLoggerFixture(nil)
	projectId := uuid.New()

	correlationId, err := logger.StartWorkflow(context.Background(), projectId,
		models.WorkflowActionImport, "import started", nil)
	require.NoError(t, err)
	require.NoError(t, logger.FailWorkflow(context.Background(), projectId, correlationId,
		models.WorkflowActionImport, "file unreadable", nil))

	terminal := store.events[len(store.events)-1]
	require.NotNil(t, terminal.input.Status)
	assert.Equal(t, models.WorkflowStatusFailed, *terminal.input.Status)
	assert.Equal(t, models.LogLevelError, terminal.input.Level)
	assert.Equal(t, "system", terminal.input.Actor)
}

func TestStandaloneEventGetsOwnCorrelation(t *testing.T) {
	logger, store := newLoggerFixture(nil)

	require.NoError(t, logger.LogEvent(context.Background(), models.CreateWorkflowEventInput{
		ProjectId:  uuid.New(),
		ActionType: models.WorkflowActionRuleChange,
		Message:    "rule created",
	}))

	require.Len(t, store.events, 1)
	assert.NotEqual(t, uuid.Nil, store.events[0].input.CorrelationId)
	assert.Nil(t, store.events[0].input.ParentEventId)
}

func TestChannelBroadcaster(t *testing.T) {
	broadcaster := NewChannelBroadcaster(4)
	logger, _ := newLoggerFixture(broadcaster)

	feed, cancel := broadcaster.Subscribe()
	defer cancel()

	projectId := uuid.New()
	correlationId, err := logger.StartWorkflow(context.Background(), projectId,
		models.WorkflowActionRuleRun, "run started", nil)
	require.NoError(t, err)

	event := <-feed
	assert.Equal(t, correlationId, event.CorrelationId)
	assert.Equal(t, projectId, event.ProjectId)
	require.NotNil(t, event.Status)
	assert.Equal(t, models.WorkflowStatusStarted, *event.Status)
}

func TestChannelBroadcasterDropsWhenFull(t *testing.T) {
	broadcaster := NewChannelBroadcaster(1)
	feed, cancel := broadcaster.Subscribe()
	defer cancel()

	broadcaster.Broadcast(models.WorkflowEvent{Message: "first"})
	broadcaster.Broadcast(models.WorkflowEvent{Message: "second"})

	assert.Equal(t, "first", (<-feed).Message)
	select {
	case event := <-feed:
		t.Fatalf("expected a dropped event, got %q", event.Message)
	default:
	}
}
