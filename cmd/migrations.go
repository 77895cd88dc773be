package cmd

import (
	"context"
	"fmt"

	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/utils"
)

func RunMigrations() error {
	logger := utils.NewLogger(utils.GetStringEnv("LOGGING_FORMAT", "text"))
	ctx := utils.StoreLoggerInContext(context.Background(), logger)

	if err := repositories.RunMigrations(pgConfigFromEnv(), logger); err != nil {
		logger.ErrorContext(ctx, fmt.Sprintf("error running migrations: %v", err))
		return err
	}
	return nil
}
