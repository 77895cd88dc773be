package rule_engine

import (
	"strings"

	"github.com/gridforge/gridforge-backend/models"
	"github.com/gridforge/gridforge-backend/usecases/versioning"
)

// ConditionMatches reports whether an asset satisfies a rule condition:
// the entity type must match and every property filter must hold. Filters
// on a missing property evaluate to false, except not_exists. Comparisons
// between incompatible types fail closed.
func ConditionMatches(condition models.RuleCondition, asset models.Asset) bool {
	if condition.EntityType != "" && asset.Type != condition.EntityType {
		return false
	}
	for _, filter := range condition.PropertyFilters {
		value, found := asset.PropertyValue(filter.Key)
		if !evaluateFilter(value, found, filter.Op, filter.Value) {
			return false
		}
	}
	return true
}

func evaluateFilter(value any, found bool, op models.FilterOperator, expected any) bool {
	switch op {
	case models.OperatorExists:
		return found && value != nil
	case models.OperatorNotExists:
		return !found || value == nil
	}

	if !found {
		return false
	}

	switch op {
	case models.OperatorEqual:
		return looseEqual(value, expected)
	case models.OperatorNotEqual:
		return !looseEqual(value, expected)
	case models.OperatorGreater, models.OperatorLess,
		models.OperatorGreaterOrEqual, models.OperatorLessOrEqual:
		return evaluateOrdering(value, op, expected)
	case models.OperatorIn:
		candidates, ok := expected.([]any)
		if !ok {
			return false
		}
		for _, candidate := range candidates {
			if looseEqual(value, candidate) {
				return true
			}
		}
		return false
	case models.OperatorContains:
		return evaluateContains(value, expected)
	}
	return false
}

func evaluateOrdering(value any, op models.FilterOperator, expected any) bool {
	valueNum, valueOk := toFloat(value)
	expectedNum, expectedOk := toFloat(expected)
	if valueOk && expectedOk {
		switch op {
		case models.OperatorGreater:
			return valueNum > expectedNum
		case models.OperatorLess:
			return valueNum < expectedNum
		case models.OperatorGreaterOrEqual:
			return valueNum >= expectedNum
		case models.OperatorLessOrEqual:
			return valueNum <= expectedNum
		}
	}

	valueStr, valueIsStr := value.(string)
	expectedStr, expectedIsStr := expected.(string)
	if valueIsStr && expectedIsStr {
		switch op {
		case models.OperatorGreater:
			return valueStr > expectedStr
		case models.OperatorLess:
			return valueStr < expectedStr
		case models.OperatorGreaterOrEqual:
			return valueStr >= expectedStr
		case models.OperatorLessOrEqual:
			return valueStr <= expectedStr
		}
	}
	return false
}

func evaluateContains(value, expected any) bool {
	switch v := value.(type) {
	case string:
		needle, ok := expected.(string)
		return ok && strings.Contains(v, needle)
	case []any:
		for _, item := range v {
			if looseEqual(item, expected) {
				return true
			}
		}
	case []string:
		needle, ok := expected.(string)
		if !ok {
			return false
		}
		for _, item := range v {
			if item == needle {
				return true
			}
		}
	}
	return false
}

// looseEqual treats numbers of different Go types as equal when their
// values match, since rule payloads decode numbers as float64 while asset
// properties may hold ints. Non-numeric values compare through their JSON
// encoding; a Go equality check would panic on map or slice values.
func looseEqual(a, b any) bool {
	if aNum, aOk := toFloat(a); aOk {
		bNum, bOk := toFloat(b)
		return bOk && aNum == bNum
	}
	return versioning.ValuesEqual(a, b)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
