package cmd

import (
	"context"

	"github.com/gridforge/gridforge-backend/infra"
	"github.com/gridforge/gridforge-backend/usecases"
	"github.com/gridforge/gridforge-backend/utils"
)

func pgConfigFromEnv() utils.PGConfig {
	return utils.PGConfig{
		ConnectionString: utils.GetStringEnv("PG_CONNECTION_STRING", ""),
		Hostname:         utils.GetStringEnv("PG_HOSTNAME", "localhost"),
		Port:             utils.GetStringEnv("PG_PORT", "5432"),
		User:             utils.GetStringEnv("PG_USER", "postgres"),
		Password:         utils.GetStringEnv("PG_PASSWORD", ""),
		Database:         utils.GetStringEnv("PG_DATABASE", "gridforge"),
	}
}

func setupUsecases(ctx context.Context) (usecases.Usecases, error) {
	pool, err := infra.NewPostgresConnectionPool(ctx, pgConfigFromEnv().GetConnectionString())
	if err != nil {
		return usecases.Usecases{}, err
	}
	return usecases.NewUsecases(pool), nil
}
