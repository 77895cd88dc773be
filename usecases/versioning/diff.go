package versioning

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hashicorp/go-set/v2"

	"github.com/gridforge/gridforge-backend/models"
)

// SnapshotDiff compares two asset snapshots field by field. Property bag
// entries are compared individually under a "properties." prefix.
func SnapshotDiff(from, to map[string]any) []models.FieldChange {
	return diffMaps(flattenSnapshot(from), flattenSnapshot(to))
}

func flattenSnapshot(snapshot map[string]any) map[string]any {
	flat := make(map[string]any, len(snapshot))
	for key, value := range snapshot {
		if key == "properties" {
			if properties, ok := value.(map[string]any); ok {
				for propKey, propValue := range properties {
					flat["properties."+propKey] = propValue
				}
				continue
			}
		}
		flat[key] = value
	}
	return flat
}

func diffMaps(from, to map[string]any) []models.FieldChange {
	keys := set.New[string](len(to))
	for key := range from {
		keys.Insert(key)
	}
	for key := range to {
		keys.Insert(key)
	}

	changes := make([]models.FieldChange, 0)
	for _, key := range keys.Slice() {
		oldValue, inFrom := from[key]
		newValue, inTo := to[key]
		switch {
		case !inFrom:
			changes = append(changes, models.FieldChange{
				Key: key, Kind: models.FieldAdded, NewValue: newValue,
			})
		case !inTo:
			changes = append(changes, models.FieldChange{
				Key: key, Kind: models.FieldRemoved, OldValue: oldValue,
			})
		case !ValuesEqual(oldValue, newValue):
			changes = append(changes, models.FieldChange{
				Key: key, Kind: models.FieldModified, OldValue: oldValue, NewValue: newValue,
			})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })
	return changes
}

// ValuesEqual compares two snapshot values through their JSON encoding, so
// that an int written by a handler and the float64 decoded from a stored
// snapshot compare equal.
func ValuesEqual(a, b any) bool {
	aJson, errA := json.Marshal(a)
	bJson, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return string(aJson) == string(bJson)
}

func stringifyValue(value any, present bool) *string {
	if !present {
		return nil
	}
	serialized, err := json.Marshal(value)
	if err != nil {
		rendered := fmt.Sprint(value)
		return &rendered
	}
	rendered := string(serialized)
	return &rendered
}
