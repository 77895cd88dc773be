package rule_engine

import (
	"sort"

	"github.com/google/uuid"

	"github.com/gridforge/gridforge-backend/models"
)

// Resolution is the outcome of conflict resolution: the rules that will
// actually run, in their original load order, plus what was overridden.
type Resolution struct {
	Rules      []models.RuleDefinition
	Conflicts  []models.RuleConflict
	Violations []models.EnforcementViolation
}

type conflictKey struct {
	condition      string
	targetProperty string
}

// ResolveConflicts groups rules writing the same target property under the
// same condition and picks one winner per group by descending priority. An
// enforced rule inverts the override: instead of being displaced by a
// higher-priority rule, it blocks that rule and survives. The tie-break
// between equal priorities preserves load order, which the loader sorts by
// created_at ascending, so older rules win ties deterministically.
func ResolveConflicts(rules []models.RuleDefinition) Resolution {
	groups := make(map[conflictKey][]models.RuleDefinition)
	order := make([]conflictKey, 0)
	for _, rule := range rules {
		key := conflictKey{
			condition:      rule.Condition.CanonicalKey(),
			targetProperty: rule.Action.TargetProperty(rule.ActionKind),
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], rule)
	}

	resolution := Resolution{}
	blocked := make(map[uuid.UUID]bool)

	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		sorted := make([]models.RuleDefinition, len(group))
		copy(sorted, group)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Priority > sorted[j].Priority
		})
		winner := sorted[0]
		losers := sorted[1:]

		conflict := models.RuleConflict{
			EntityType:     winner.Condition.EntityType,
			TargetProperty: key.targetProperty,
			WinnerRuleId:   winner.Id,
			WinnerSource:   winner.Source,
		}

		for _, loser := range losers {
			conflict.LoserRuleIds = append(conflict.LoserRuleIds, loser.Id)
			if loser.IsEnforced {
				// The enforced rule cannot be overridden, block the winner.
				blocked[winner.Id] = true
				conflict.Enforced = true
				resolution.Violations = append(resolution.Violations, models.EnforcementViolation{
					EntityType:      winner.Condition.EntityType,
					TargetProperty:  key.targetProperty,
					EnforcedRuleId:  loser.Id,
					DisplacedRuleId: winner.Id,
					DisplacedSource: winner.Source,
				})
			} else {
				blocked[loser.Id] = true
			}
		}
		resolution.Conflicts = append(resolution.Conflicts, conflict)
	}

	resolution.Rules = make([]models.RuleDefinition, 0, len(rules))
	for _, rule := range rules {
		if !blocked[rule.Id] {
			resolution.Rules = append(resolution.Rules, rule)
		}
	}
	return resolution
}
