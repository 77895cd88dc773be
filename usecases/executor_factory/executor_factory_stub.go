package executor_factory

import (
	"context"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/gridforge/gridforge-backend/repositories"
)

type ExecutorFactoryStub struct {
	Mock pgxmock.PgxPoolIface
}

func NewExecutorFactoryStub() ExecutorFactoryStub {
	pool, _ := pgxmock.NewPool()

	return ExecutorFactoryStub{
		Mock: pool,
	}
}

type PgExecutorStub struct {
	pgxmock.PgxPoolIface
}

func (stub ExecutorFactoryStub) NewExecutor() repositories.Executor {
	return PgExecutorStub{
		stub.Mock,
	}
}

// Transaction runs the callback directly against the mock pool, there is no
// begin/commit pair to expect in tests.
func (stub ExecutorFactoryStub) Transaction(ctx context.Context,
	fn func(tx repositories.Executor) error,
) error {
	return fn(stub.NewExecutor())
}
