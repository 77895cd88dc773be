package usecases

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/audit"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/utils"
)

type ruleRepository interface {
	CreateRule(ctx context.Context, exec repositories.Executor,
		ruleId uuid.UUID, input models.CreateRuleInput) error
	GetRuleById(ctx context.Context, exec repositories.Executor,
		ruleId uuid.UUID) (models.RuleDefinition, error)
	ListRulesBySource(ctx context.Context, exec repositories.Executor,
		source models.RuleSource, sourceId *string) ([]models.RuleDefinition, error)
	UpdateRule(ctx context.Context, exec repositories.Executor,
		input models.UpdateRuleInput) error
	UpdateRuleValidationStatus(ctx context.Context, exec repositories.Executor,
		ruleId uuid.UUID, status models.RuleValidationStatus) error
}

type ruleCacheInvalidator interface {
	InvalidateRuleCache(projectId uuid.UUID)
	PurgeRuleCache()
}

// RulesUsecase manages the rule catalog and its lifecycle. Mutations
// invalidate the engine's cached rule lists so the next run picks them up.
type RulesUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	repository      ruleRepository
	engineCache     ruleCacheInvalidator
	workflowLogger  *audit.WorkflowLogger
}

func NewRulesUsecase(
	executorFactory executor_factory.ExecutorFactory,
	repository ruleRepository,
	engineCache ruleCacheInvalidator,
	workflowLogger *audit.WorkflowLogger,
) *RulesUsecase {
	return &RulesUsecase{
		executorFactory: executorFactory,
		repository:      repository,
		engineCache:     engineCache,
		workflowLogger:  workflowLogger,
	}
}

func (uc *RulesUsecase) CreateRule(ctx context.Context, input models.CreateRuleInput,
) (models.RuleDefinition, error) {
	if err := input.Validate(); err != nil {
		return models.RuleDefinition{}, err
	}

	ruleId := uuid.New()
	rule, err := executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.RuleDefinition, error) {
			if err := uc.repository.CreateRule(ctx, tx, ruleId, input); err != nil {
				return models.RuleDefinition{}, err
			}
			return uc.repository.GetRuleById(ctx, tx, ruleId)
		})
	if err != nil {
		return models.RuleDefinition{}, err
	}

	uc.invalidateCache(rule)
	uc.logRuleChange(ctx, rule, "rule created")
	return rule, nil
}

func (uc *RulesUsecase) GetRule(ctx context.Context, ruleId uuid.UUID,
) (models.RuleDefinition, error) {
	return uc.repository.GetRuleById(ctx, uc.executorFactory.NewExecutor(), ruleId)
}

func (uc *RulesUsecase) ListRules(ctx context.Context, source models.RuleSource,
	sourceId *string,
) ([]models.RuleDefinition, error) {
	return uc.repository.ListRulesBySource(ctx, uc.executorFactory.NewExecutor(), source, sourceId)
}

func (uc *RulesUsecase) UpdateRule(ctx context.Context, input models.UpdateRuleInput,
) (models.RuleDefinition, error) {
	rule, err := executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.RuleDefinition, error) {
			existing, err := uc.repository.GetRuleById(ctx, tx, input.Id)
			if err != nil {
				return models.RuleDefinition{}, err
			}
			if input.Condition != nil {
				if err := input.Condition.Validate(); err != nil {
					return models.RuleDefinition{}, err
				}
			}
			if input.Action != nil {
				if err := input.Action.Validate(existing.ActionKind); err != nil {
					return models.RuleDefinition{}, err
				}
			}
			if err := uc.repository.UpdateRule(ctx, tx, input); err != nil {
				return models.RuleDefinition{}, err
			}
			return uc.repository.GetRuleById(ctx, tx, input.Id)
		})
	if err != nil {
		return models.RuleDefinition{}, err
	}

	uc.invalidateCache(rule)
	uc.logRuleChange(ctx, rule, "rule updated")
	return rule, nil
}

func (uc *RulesUsecase) DeactivateRule(ctx context.Context, ruleId uuid.UUID) error {
	isActive := false
	_, err := uc.UpdateRule(ctx, models.UpdateRuleInput{Id: ruleId, IsActive: &isActive})
	return err
}

// ruleStatusTransitions lists, per current status, which statuses a rule may
// move to. Deprecation is terminal.
var ruleStatusTransitions = map[models.RuleValidationStatus][]models.RuleValidationStatus{
	models.RuleStatusDraft:        {models.RuleStatusDevValidated, models.RuleStatusDeprecated},
	models.RuleStatusDevValidated: {models.RuleStatusProdReady, models.RuleStatusDraft, models.RuleStatusDeprecated},
	models.RuleStatusProdReady:    {models.RuleStatusDeprecated},
	models.RuleStatusDeprecated:   {},
}

func (uc *RulesUsecase) UpdateRuleValidationStatus(ctx context.Context, ruleId uuid.UUID,
	status models.RuleValidationStatus,
) (models.RuleDefinition, error) {
	rule, err := executor_factory.TransactionReturnValue(ctx, uc.executorFactory,
		func(tx repositories.Executor) (models.RuleDefinition, error) {
			existing, err := uc.repository.GetRuleById(ctx, tx, ruleId)
			if err != nil {
				return models.RuleDefinition{}, err
			}
			allowed := false
			for _, next := range ruleStatusTransitions[existing.ValidationStatus] {
				if next == status {
					allowed = true
					break
				}
			}
			if !allowed {
				return models.RuleDefinition{}, errors.Wrapf(models.BadParameterError,
					"rule status cannot move from %s to %s", existing.ValidationStatus, status)
			}
			if err := uc.repository.UpdateRuleValidationStatus(ctx, tx, ruleId, status); err != nil {
				return models.RuleDefinition{}, err
			}
			return uc.repository.GetRuleById(ctx, tx, ruleId)
		})
	if err != nil {
		return models.RuleDefinition{}, err
	}

	uc.invalidateCache(rule)
	uc.logRuleChange(ctx, rule, "rule status changed to "+string(status))
	return rule, nil
}

// invalidateCache targets the owning project when the rule is project scoped,
// and purges everything otherwise since firm, country and client rules can
// apply to any number of projects.
func (uc *RulesUsecase) invalidateCache(rule models.RuleDefinition) {
	if rule.Source == models.RuleSourceProject && rule.SourceId != nil {
		if projectId, err := uuid.Parse(*rule.SourceId); err == nil {
			uc.engineCache.InvalidateRuleCache(projectId)
			return
		}
	}
	uc.engineCache.PurgeRuleCache()
}

// logRuleChange writes an audit event for project scoped rules. Changes to
// wider scopes have no single project to attach the event to and only reach
// the application log.
func (uc *RulesUsecase) logRuleChange(ctx context.Context, rule models.RuleDefinition, message string) {
	logger := utils.LoggerFromContext(ctx)
	logger.InfoContext(ctx, message,
		"rule_id", rule.Id.String(), "rule_name", rule.Name, "source", string(rule.Source))

	if rule.Source != models.RuleSourceProject || rule.SourceId == nil {
		return
	}
	projectId, err := uuid.Parse(*rule.SourceId)
	if err != nil {
		return
	}
	err = uc.workflowLogger.LogEvent(ctx, models.CreateWorkflowEventInput{
		ProjectId:  projectId,
		ActionType: models.WorkflowActionRuleChange,
		Level:      models.LogLevelInfo,
		Message:    message,
		RuleId:     &rule.Id,
		Details: map[string]any{
			"rule_name": rule.Name,
			"priority":  rule.Priority,
			"version":   rule.Version,
		},
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to record rule change event", "error", err)
	}
}
