package usecases

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/audit"
	"github.com/gridforge/gridforge-backend/usecases/executor_factory"
	"github.com/gridforge/gridforge-backend/usecases/rule_engine"
	"github.com/gridforge/gridforge-backend/usecases/versioning"
)

// Usecases wires the repository onto the use case layer. Built once at
// startup; the rule engine is shared because it owns the rule cache.
type Usecases struct {
	ExecutorFactory executor_factory.ExecutorFactory
	Repository      *repositories.GridforgeDbRepository
	WorkflowLogger  *audit.WorkflowLogger
	Broadcaster     audit.EventBroadcaster

	ruleEngine *rule_engine.RuleEngine
	versioning *versioning.VersioningUsecase
}

type Option func(*Usecases)

// WithBroadcaster plugs a live event broadcaster in place of the default
// no-op one, for callers that stream workflow events.
func WithBroadcaster(broadcaster audit.EventBroadcaster) Option {
	return func(u *Usecases) {
		u.Broadcaster = broadcaster
	}
}

func NewUsecases(pool *pgxpool.Pool, opts ...Option) Usecases {
	usecases := Usecases{
		ExecutorFactory: executor_factory.NewDbExecutorFactory(repositories.NewExecutorGetter(pool)),
		Repository:      repositories.NewGridforgeDbRepository(),
	}
	for _, opt := range opts {
		opt(&usecases)
	}

	usecases.WorkflowLogger = audit.NewWorkflowLogger(
		usecases.ExecutorFactory, usecases.Repository, usecases.Broadcaster)
	usecases.versioning = versioning.NewVersioningUsecase(
		usecases.ExecutorFactory, usecases.Repository, usecases.Repository, usecases.Repository)
	usecases.ruleEngine = rule_engine.NewRuleEngine(
		usecases.ExecutorFactory, usecases.Repository, usecases.versioning, usecases.WorkflowLogger)
	return usecases
}

func (u Usecases) NewRuleEngine() *rule_engine.RuleEngine {
	return u.ruleEngine
}

func (u Usecases) NewVersioningUsecase() *versioning.VersioningUsecase {
	return u.versioning
}

func (u Usecases) NewRulesUsecase() *RulesUsecase {
	return NewRulesUsecase(u.ExecutorFactory, u.Repository, u.ruleEngine, u.WorkflowLogger)
}

func (u Usecases) NewAssetsUsecase() *AssetsUsecase {
	return NewAssetsUsecase(u.ExecutorFactory, u.Repository, u.versioning, u.WorkflowLogger)
}
