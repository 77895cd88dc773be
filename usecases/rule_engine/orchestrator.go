package rule_engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/audit"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/utils"
)

const (
	ruleCacheSize = 64
	ruleCacheTTL  = 5 * time.Minute
)

type orchestratorRepository interface {
	engineRepository
	GetProjectById(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID) (models.Project, error)
	ListActiveRulesForProject(ctx context.Context, exec repositories.Executor,
		project models.Project) ([]models.RuleDefinition, error)
	ListAssetsForProject(ctx context.Context, exec repositories.Executor,
		projectId uuid.UUID) ([]models.Asset, error)
	AcquireProjectRunLock(ctx context.Context, exec repositories.Executor,
		projectId, runId uuid.UUID) (bool, error)
	ReleaseProjectRunLock(ctx context.Context, exec repositories.Executor,
		projectId, runId uuid.UUID) error
	CreateBatchOperation(ctx context.Context, exec repositories.Executor,
		batchId uuid.UUID, input models.CreateBatchOperationInput) error
	CreateRuleExecution(ctx context.Context, exec repositories.Executor,
		executionId uuid.UUID, input models.CreateRuleExecutionInput) error
	RecordRuleExecutionStats(ctx context.Context, exec repositories.Executor,
		ruleId uuid.UUID, executions, failures int) error
}

// RuleEngine runs the active rule set of a project against its assets. At
// most one run per project is in flight at a time, enforced through the
// project_run_locks table.
type RuleEngine struct {
	executorFactory executor_factory.ExecutorFactory
	repository      orchestratorRepository
	executor        *ActionExecutor
	workflowLogger  *audit.WorkflowLogger
	ruleCache       *expirable.LRU[uuid.UUID, []models.RuleDefinition]
}

func NewRuleEngine(
	executorFactory executor_factory.ExecutorFactory,
	repository orchestratorRepository,
	versioning versionRecorder,
	workflowLogger *audit.WorkflowLogger,
) *RuleEngine {
	return &RuleEngine{
		executorFactory: executorFactory,
		repository:      repository,
		executor:        NewActionExecutor(repository, versioning),
		workflowLogger:  workflowLogger,
		ruleCache:       expirable.NewLRU[uuid.UUID, []models.RuleDefinition](ruleCacheSize, nil, ruleCacheTTL),
	}
}

// InvalidateRuleCache drops the cached rule list of a project. Called after
// any rule create, update or deactivation.
func (engine *RuleEngine) InvalidateRuleCache(projectId uuid.UUID) {
	engine.ruleCache.Remove(projectId)
}

// PurgeRuleCache drops every cached rule list. Used when a firm, country or
// client rule changes, those can apply to any project.
func (engine *RuleEngine) PurgeRuleCache() {
	engine.ruleCache.Purge()
}

func (engine *RuleEngine) loadRules(ctx context.Context, exec repositories.Executor,
	project models.Project,
) ([]models.RuleDefinition, error) {
	if rules, found := engine.ruleCache.Get(project.Id); found {
		return rules, nil
	}
	loaded, err := engine.repository.ListActiveRulesForProject(ctx, exec, project)
	if err != nil {
		return nil, err
	}
	logger := utils.LoggerFromContext(ctx)
	rules := make([]models.RuleDefinition, 0, len(loaded))
	for _, rule := range loaded {
		// A stored payload that no longer matches its declared kind must not
		// reach the executor, so the rule is excluded from the run.
		if err := rule.Action.Validate(rule.ActionKind); err != nil {
			logger.WarnContext(ctx, "excluding rule with invalid action payload",
				slog.String("rule_id", rule.Id.String()), slog.String("error", err.Error()))
			continue
		}
		rules = append(rules, rule)
	}
	engine.ruleCache.Add(project.Id, rules)
	return rules, nil
}

// ApplyRules runs every applicable rule against every asset of the project.
// Each (rule, asset) pair executes in its own transaction and always leaves
// an execution row behind, including condition misses and handler errors.
func (engine *RuleEngine) ApplyRules(ctx context.Context, projectId uuid.UUID,
) (models.ExecutionSummary, error) {
	exec := engine.executorFactory.NewExecutor()
	logger := utils.LoggerFromContext(ctx)

	project, err := engine.repository.GetProjectById(ctx, exec, projectId)
	if err != nil {
		return models.ExecutionSummary{}, err
	}

	runId := uuid.New()
	acquired, err := engine.repository.AcquireProjectRunLock(ctx, exec, projectId, runId)
	if err != nil {
		return models.ExecutionSummary{}, err
	}
	if !acquired {
		return models.ExecutionSummary{}, models.ErrConcurrentRun
	}
	defer func() {
		if releaseErr := engine.repository.ReleaseProjectRunLock(ctx, exec, projectId, runId); releaseErr != nil {
			logger.ErrorContext(ctx, "failed to release project run lock",
				"project_id", projectId.String(), "error", releaseErr)
		}
	}()

	correlationId, err := engine.workflowLogger.StartWorkflow(ctx, projectId,
		models.WorkflowActionRuleRun, "rule run started", map[string]any{"run_id": runId.String()})
	if err != nil {
		return models.ExecutionSummary{}, err
	}

	summary, err := engine.run(ctx, exec, project, runId, correlationId)
	if err != nil {
		if failErr := engine.workflowLogger.FailWorkflow(ctx, projectId, correlationId,
			models.WorkflowActionRuleRun, err.Error(), nil); failErr != nil {
			logger.ErrorContext(ctx, "failed to record workflow failure", "error", failErr)
		}
		return models.ExecutionSummary{}, err
	}

	err = engine.workflowLogger.CompleteWorkflow(ctx, projectId, correlationId,
		models.WorkflowActionRuleRun, "rule run completed", map[string]any{
			"run_id":              runId.String(),
			"rules_evaluated":     summary.RulesEvaluated,
			"entities_processed":  summary.EntitiesProcessed,
			"created":             summary.Created,
			"updated":             summary.Updated,
			"linked":              summary.Linked,
			"skipped":             summary.Skipped,
			"errors":              summary.Errors,
			"validation_warnings": summary.ValidationWarnings,
			"validation_failures": summary.ValidationFailures,
		})
	return summary, err
}

func (engine *RuleEngine) run(ctx context.Context, exec repositories.Executor,
	project models.Project, runId, correlationId uuid.UUID,
) (models.ExecutionSummary, error) {
	logger := utils.LoggerFromContext(ctx)

	batchId := uuid.New()
	err := engine.repository.CreateBatchOperation(ctx, exec, batchId, models.CreateBatchOperationInput{
		ProjectId:   project.Id,
		Type:        models.BatchTypeRuleRun,
		Description: "rule engine run " + runId.String(),
		InitiatedBy: utils.ActorIdentityFromContext(ctx).String(),
	})
	if err != nil {
		return models.ExecutionSummary{}, err
	}

	rules, err := engine.loadRules(ctx, exec, project)
	if err != nil {
		return models.ExecutionSummary{}, err
	}
	resolution := ResolveConflicts(rules)
	if err := engine.logResolution(ctx, project.Id, correlationId, resolution); err != nil {
		return models.ExecutionSummary{}, err
	}

	assets, err := engine.repository.ListAssetsForProject(ctx, exec, project.Id)
	if err != nil {
		return models.ExecutionSummary{}, err
	}

	summary := models.ExecutionSummary{
		RunId:                 runId,
		ProjectId:             project.Id,
		BatchId:               &batchId,
		RulesEvaluated:        len(resolution.Rules),
		EntitiesProcessed:     len(assets),
		Conflicts:             resolution.Conflicts,
		EnforcementViolations: resolution.Violations,
		StartedAt:             time.Now(),
	}
	runCtx := ExecutionContext{
		RunId:         runId,
		ProjectId:     project.Id,
		BatchId:       batchId,
		CorrelationId: correlationId,
	}

	for _, rule := range resolution.Rules {
		executions, failures := 0, 0
		for _, asset := range assets {
			matched := ConditionMatches(rule.Condition, asset)
			started := time.Now()
			result := engine.applyRuleToAsset(ctx, matched, rule, asset, runCtx)
			duration := time.Since(started)
			if matched {
				executions++
			}
			if result.Outcome == models.OutcomeError {
				failures++
			}
			summary.Record(result.Outcome)

			if err := engine.recordExecution(ctx, exec, rule, asset, result, duration, runCtx); err != nil {
				return models.ExecutionSummary{}, err
			}
			if err := engine.logOutcome(ctx, rule, asset, result, runCtx); err != nil {
				logger.WarnContext(ctx, "failed to log rule outcome", "error", err)
			}
		}
		if err := engine.repository.RecordRuleExecutionStats(ctx, exec, rule.Id, executions, failures); err != nil {
			return models.ExecutionSummary{}, err
		}
		summary.PerRule = append(summary.PerRule, models.RuleRunStats{
			RuleId:   rule.Id,
			RuleName: rule.Name,
			Matched:  executions,
			Failures: failures,
		})
	}

	summary.FinishedAt = time.Now()
	return summary, nil
}

// applyRuleToAsset wraps one handler call in its own transaction so an error
// rolls back every mutation of that pair, and converts errors into ERROR
// results instead of aborting the run.
func (engine *RuleEngine) applyRuleToAsset(ctx context.Context, matched bool,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) models.RuleResult {
	if !matched {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  "condition not matched",
		}
	}

	var result models.RuleResult
	err := engine.executorFactory.Transaction(ctx, func(tx repositories.Executor) error {
		var execErr error
		result, execErr = engine.executor.Execute(ctx, tx, rule, asset, runCtx)
		return execErr
	})
	if err != nil {
		return models.RuleResult{
			Outcome: models.OutcomeError,
			Detail:  err.Error(),
		}
	}
	return result
}

func (engine *RuleEngine) recordExecution(ctx context.Context, exec repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, result models.RuleResult,
	duration time.Duration, runCtx ExecutionContext,
) error {
	entityId := asset.Id
	var batchId *uuid.UUID
	if result.Mutated {
		batchId = &runCtx.BatchId
	}
	return engine.repository.CreateRuleExecution(ctx, exec, uuid.New(), models.CreateRuleExecutionInput{
		RunId:          runCtx.RunId,
		RuleId:         rule.Id,
		RuleName:       rule.Name,
		ProjectId:      runCtx.ProjectId,
		EntityId:       &entityId,
		EntityTag:      asset.Tag,
		Outcome:        result.Outcome,
		Detail:         result.Detail,
		CreatedAssetId: result.CreatedAssetId,
		BatchId:        batchId,
		DurationMs:     duration.Milliseconds(),
	})
}

func (engine *RuleEngine) logOutcome(ctx context.Context,
	rule models.RuleDefinition, asset models.Asset, result models.RuleResult,
	runCtx ExecutionContext,
) error {
	var level models.LogLevel
	switch result.Outcome {
	case models.OutcomeError, models.OutcomeValidationFail:
		level = models.LogLevelError
	case models.OutcomeValidationWarn:
		level = models.LogLevelWarning
	case models.OutcomeSkip:
		return nil
	default:
		level = models.LogLevelInfo
	}
	entityId := asset.Id
	return engine.workflowLogger.LogRuleOutcome(ctx, runCtx.ProjectId, runCtx.CorrelationId,
		rule.Id, &entityId, level, rule.Name+": "+result.Detail)
}

func (engine *RuleEngine) logResolution(ctx context.Context, projectId, correlationId uuid.UUID,
	resolution Resolution,
) error {
	for _, conflict := range resolution.Conflicts {
		err := engine.workflowLogger.LogEvent(ctx, models.CreateWorkflowEventInput{
			ProjectId:     projectId,
			CorrelationId: correlationId,
			ActionType:    models.WorkflowActionRuleRun,
			Level:         models.LogLevelWarning,
			Message:       "rule conflict on " + conflict.EntityType + "." + conflict.TargetProperty,
			RuleId:        &conflict.WinnerRuleId,
			Details: map[string]any{
				"winner_source": string(conflict.WinnerSource),
				"loser_count":   len(conflict.LoserRuleIds),
				"enforced":      conflict.Enforced,
			},
		})
		if err != nil {
			return err
		}
	}
	for _, violation := range resolution.Violations {
		err := engine.workflowLogger.LogEvent(ctx, models.CreateWorkflowEventInput{
			ProjectId:     projectId,
			CorrelationId: correlationId,
			ActionType:    models.WorkflowActionRuleRun,
			Level:         models.LogLevelError,
			Message: "enforced rule displaced a higher priority rule on " +
				violation.EntityType + "." + violation.TargetProperty,
			RuleId: &violation.EnforcedRuleId,
			Details: map[string]any{
				"displaced_rule_id": violation.DisplacedRuleId.String(),
				"displaced_source":  string(violation.DisplacedSource),
			},
		})
		if err != nil {
			return err
		}
	}
	return nil
}
