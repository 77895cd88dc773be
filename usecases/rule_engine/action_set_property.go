package rule_engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/TwiN/deepmerge"
	"github.com/cockroachdb/errors"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/repositories"
	"github.com/gridforge/gridforge-backend/usecases/versioning"
)

// executeSetProperty merges the rule's property map into the asset. Skips when
// every key already holds the target value, so re-runs do not pile up versions.
func (e *ActionExecutor) executeSetProperty(ctx context.Context, tx repositories.Executor,
	rule models.RuleDefinition, asset models.Asset, runCtx ExecutionContext,
) (models.RuleResult, error) {
	updates := rule.Action.SetProperty
	if len(updates) == 0 {
		return models.RuleResult{}, errors.Wrap(models.ErrInvalidRuleAction,
			"set_property action has no properties")
	}

	changed := make([]string, 0, len(updates))
	for key, value := range updates {
		current, found := asset.Properties[key]
		if !found || !versioning.ValuesEqual(current, value) {
			changed = append(changed, key)
		}
	}
	if len(changed) == 0 {
		return models.RuleResult{
			Outcome: models.OutcomeSkip,
			Detail:  fmt.Sprintf("all %d properties already set", len(updates)),
		}, nil
	}
	sort.Strings(changed)

	base, err := json.Marshal(asset.Properties)
	if err != nil {
		return models.RuleResult{}, errors.Wrap(err, "could not marshal asset properties")
	}
	patch, err := json.Marshal(updates)
	if err != nil {
		return models.RuleResult{}, errors.Wrap(err, "could not marshal property updates")
	}
	// last write wins: a key already holding a primitive value is overwritten
	mergedRaw, err := deepmerge.JSON(base, patch, deepmerge.Config{
		PreventMultipleDefinitionsOfKeysWithPrimitiveValue: false,
	})
	if err != nil {
		return models.RuleResult{}, errors.Wrap(err, "could not merge properties")
	}
	var merged map[string]any
	if err := json.Unmarshal(mergedRaw, &merged); err != nil {
		return models.RuleResult{}, errors.Wrap(err, "could not unmarshal merged properties")
	}

	if err := e.repository.UpdateAssetProperties(ctx, tx, asset.Id, merged); err != nil {
		return models.RuleResult{}, err
	}
	updated, err := e.repository.GetAssetById(ctx, tx, asset.Id)
	if err != nil {
		return models.RuleResult{}, err
	}
	_, err = e.versioning.RecordVersion(ctx, tx, updated,
		e.ruleVersionMeta(rule, runCtx, fmt.Sprintf("properties set by rule %s", rule.Name)))
	if err != nil {
		return models.RuleResult{}, err
	}

	return models.RuleResult{
		Outcome: models.OutcomeUpdate,
		Detail:  fmt.Sprintf("set %s", strings.Join(changed, ", ")),
		Mutated: true,
	}, nil
}
