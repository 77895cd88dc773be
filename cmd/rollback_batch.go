package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/utils"
)

// RunRollbackBatch undoes every change recorded under one batch operation.
func RunRollbackBatch(batchIdString, reason string) error {
	logger := utils.NewLogger(utils.GetStringEnv("LOGGING_FORMAT", "text"))
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	batchId, err := uuid.Parse(batchIdString)
	if err != nil {
		return fmt.Errorf("invalid batch id %q: %w", batchIdString, err)
	}

	ucs, err := setupUsecases(ctx)
	if err != nil {
		return err
	}

	result, err := ucs.NewVersioningUsecase().RollbackBatch(ctx, batchId, reason)
	if err != nil {
		logger.ErrorContext(ctx, fmt.Sprintf("batch rollback failed: %v", err))
		return err
	}

	logger.InfoContext(ctx, "batch rollback completed",
		"batch_id", result.BatchId.String(),
		"entities_reverted", result.EntitiesReverted,
		"entities_deleted", result.EntitiesDeleted,
		"failures", len(result.Failures),
	)
	for _, failure := range result.Failures {
		logger.ErrorContext(ctx, "entity rollback failed",
			"asset_id", failure.AssetId.String(), "reason", failure.Reason)
	}
	return nil
}
