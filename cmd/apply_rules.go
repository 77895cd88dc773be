package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/utils"
)

// RunApplyRules executes the active rule set against one project and prints
// the run summary.
func RunApplyRules(projectIdString string) error {
	logger := utils.NewLogger(utils.GetStringEnv("LOGGING_FORMAT", "text"))
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	projectId, err := uuid.Parse(projectIdString)
	if err != nil {
		return fmt.Errorf("invalid project id %q: %w", projectIdString, err)
	}

	ucs, err := setupUsecases(ctx)
	if err != nil {
		return err
	}

	summary, err := ucs.NewRuleEngine().ApplyRules(ctx, projectId)
	if err != nil {
		logger.ErrorContext(ctx, fmt.Sprintf("rule run failed: %v", err))
		return err
	}

	logger.InfoContext(ctx, "rule run completed",
		"run_id", summary.RunId.String(),
		"rules_evaluated", summary.RulesEvaluated,
		"entities_processed", summary.EntitiesProcessed,
		"created", summary.Created,
		"updated", summary.Updated,
		"linked", summary.Linked,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"validation_warnings", summary.ValidationWarnings,
		"validation_failures", summary.ValidationFailures,
		"duration_ms", summary.Duration().Milliseconds(),
	)
	for _, conflict := range summary.Conflicts {
		logger.WarnContext(ctx, "rule conflict resolved",
			"entity_type", conflict.EntityType,
			"target_property", conflict.TargetProperty,
			"winner_rule_id", conflict.WinnerRuleId.String(),
			"losers", len(conflict.LoserRuleIds),
			"enforced", conflict.Enforced,
		)
	}
	return nil
}
