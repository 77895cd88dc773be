package rule_engine

import (
	"context"
	"fmt"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/pure_utils"
	"github.com/gridforge/gridforge-backend/repositories"
)

// executeAllocateIo accumulates channel counts in the asset's io_allocation
// map. Each run adds to the total, there is no dedup on purpose: every rule
// firing represents a distinct demand for channels.
func (e *ActionExecutor) executeAllocateIo(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (models.RuleResult, error) {
	action := *rule.Action.AllocateIo

	channelCount := action.ChannelCount
	if channelCount <= 0 {
		channelCount = 1
	}

	properties := pure_utils.MapValues(asset.Properties)
	if properties == nil {
		properties = map[string]any{}
	}
	allocation := map[string]any{}
	if existing, ok := properties["io_allocation"].(map[string]any); ok {
		allocation = pure_utils.MapValues(existing)
	}
	current, _ := toFloat(allocation[action.IoType])
	allocation[action.IoType] = current + float64(channelCount)
	properties["io_allocation"] = allocation

	if err := e.repository.UpdateAssetProperties(ctx, tx, asset.Id, properties); err != nil {
		return models.RuleResult{}, err
	}
	updated, err := e.repository.GetAssetById(ctx, tx, asset.Id)
	if err != nil {
		return models.RuleResult{}, err
	}
	_, err = e.versioning.RecordVersion(ctx, tx, updated,
		e.ruleVersionMeta(rule, runCtx, fmt.Sprintf("io allocated by rule %s", rule.Name)))
	if err != nil {
		return models.RuleResult{}, err
	}

	return models.RuleResult{
		Outcome: models.OutcomeUpdate,
		Detail: fmt.Sprintf("allocated %d %s channels (total %g)",
			channelCount, action.IoType, allocation[action.IoType]),
		Mutated: true,
	}, nil
}
