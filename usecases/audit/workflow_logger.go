package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/utils"
)

type workflowEventRepository interface {
	CreateWorkflowEvent(ctx context.Context, exec repositories.Executor,
		eventId uuid.UUID, input models.CreateWorkflowEventInput) error
	ListWorkflowEvents(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID, filter models.WorkflowEventFilter) ([]models.WorkflowEvent, error)
}

// WorkflowLogger writes the audit trail of long-running workflows. Every
// workflow gets a correlation id at start; all later entries carry it, and
// the workflow ends with exactly one COMPLETED or FAILED entry.
type WorkflowLogger struct {
	executorFactory executor_factory.ExecutorFactory
	repository      workflowEventRepository
	broadcaster     EventBroadcaster
}

func NewWorkflowLogger(
	executorFactory executor_factory.ExecutorFactory,
	repository workflowEventRepository,
	broadcaster EventBroadcaster,
) *WorkflowLogger {
	if broadcaster == nil {
		broadcaster = NoopBroadcaster{}
	}
	return &WorkflowLogger{
		executorFactory: executorFactory,
		repository:      repository,
		broadcaster:     broadcaster,
	}
}

func (l *WorkflowLogger) record(ctx context.Context, input models.CreateWorkflowEventInput) error {
	if input.Level == "" {
		input.Level = models.LogLevelInfo
	}
	if input.Source == "" {
		input.Source = models.LogSourceSystem
	}
	if input.Actor == "" {
		input.Actor = utils.ActorIdentityFromContext(ctx).String()
	}
	// The root STARTED entry reuses its correlation id as event id, so later
	// entries of the workflow can point back to it as their parent. Events
	// logged outside a workflow get a fresh correlation id and no parent.
	eventId := uuid.New()
	isRoot := input.Status != nil && *input.Status == models.WorkflowStatusStarted
	switch {
	case isRoot:
		eventId = input.CorrelationId
	case input.CorrelationId == uuid.Nil:
		input.CorrelationId = uuid.New()
	case input.ParentEventId == nil:
		rootEventId := input.CorrelationId
		input.ParentEventId = &rootEventId
	}
	err := l.repository.CreateWorkflowEvent(ctx, l.executorFactory.NewExecutor(), eventId, input)
	if err != nil {
		return err
	}

	l.broadcaster.Broadcast(models.WorkflowEvent{
		Id:            eventId,
		ProjectId:     input.ProjectId,
		CorrelationId: input.CorrelationId,
		ParentEventId: input.ParentEventId,
		ActionType:    input.ActionType,
		Status:        input.Status,
		Level:         input.Level,
		Source:        input.Source,
		Actor:         input.Actor,
		Message:       input.Message,
		EntityId:      input.EntityId,
		RuleId:        input.RuleId,
		Details:       input.Details,
		CreatedAt:     time.Now(),
	})
	return nil
}

// StartWorkflow opens a new workflow and returns its correlation id.
func (l *WorkflowLogger) StartWorkflow(ctx context.Context, projectId uuid.UUID,
	actionType models.WorkflowActionType, message string, details map[string]any,
) (uuid.UUID, error) {
	correlationId := uuid.New()
	status := models.WorkflowStatusStarted
	err := l.record(ctx, models.CreateWorkflowEventInput{
		ProjectId:     projectId,
		CorrelationId: correlationId,
		ActionType:    actionType,
		Status:        &status,
		Message:       message,
		Details:       details,
	})
	return correlationId, err
}

func (l *WorkflowLogger) CompleteWorkflow(ctx context.Context, projectId, correlationId uuid.UUID,
	actionType models.WorkflowActionType, message string, details map[string]any,
) error {
	status := models.WorkflowStatusCompleted
	return l.record(ctx, models.CreateWorkflowEventInput{
		ProjectId:     projectId,
		CorrelationId: correlationId,
		ActionType:    actionType,
		Status:        &status,
		Message:       message,
		Details:       details,
	})
}

func (l *WorkflowLogger) FailWorkflow(ctx context.Context, projectId, correlationId uuid.UUID,
	actionType models.WorkflowActionType, message string, details map[string]any,
) error {
	status := models.WorkflowStatusFailed
	return l.record(ctx, models.CreateWorkflowEventInput{
		ProjectId:     projectId,
		CorrelationId: correlationId,
		ActionType:    actionType,
		Status:        &status,
		Level:         models.LogLevelError,
		Message:       message,
		Details:       details,
	})
}

// LogEvent writes one intermediate entry within a workflow.
func (l *WorkflowLogger) LogEvent(ctx context.Context, input models.CreateWorkflowEventInput) error {
	return l.record(ctx, input)
}

func (l *WorkflowLogger) LogRuleOutcome(ctx context.Context, projectId, correlationId uuid.UUID,
	ruleId uuid.UUID, entityId *uuid.UUID, level models.LogLevel, message string,
) error {
	return l.record(ctx, models.CreateWorkflowEventInput{
		ProjectId:     projectId,
		CorrelationId: correlationId,
		ActionType:    models.WorkflowActionRuleRun,
		Level:         level,
		Source:        models.LogSourceRule,
		Message:       message,
		EntityId:      entityId,
		RuleId:        &ruleId,
	})
}

func (l *WorkflowLogger) ListEvents(ctx context.Context, projectId uuid.UUID,
	filter models.WorkflowEventFilter,
) ([]models.WorkflowEvent, error) {
	return l.repository.ListWorkflowEvents(ctx, l.executorFactory.NewExecutor(), projectId, filter)
}
