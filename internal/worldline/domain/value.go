package domain

import (
	"bytes"
	"encoding/json"
)

// CanonicalJSON encodes a value as compact JSON with sorted object keys and
// HTML escaping disabled. Two values with the same JSON shape encode to
// identical bytes regardless of map iteration order, which makes the output
// usable for digests and equality checks.
func CanonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ValuesEqual reports whether two JSON-shaped values are structurally equal.
// Slices of strings and generic slices compare equal when their encoded
// forms match.
func ValuesEqual(a, b any) bool {
	aJSON, errA := CanonicalJSON(a)
	bJSON, errB := CanonicalJSON(b)
	if errA != nil || errB != nil {
		return errA == nil && errB == nil
	}
	return bytes.Equal(aJSON, bJSON)
}

// CloneValue deep-copies a JSON-shaped value. Scalars are returned as-is.
func CloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		clone := make(map[string]any, len(value))
		for k, item := range value {
			clone[k] = CloneValue(item)
		}
		return clone
	case map[string]map[string]any:
		clone := make(map[string]map[string]any, len(value))
		for k, nested := range value {
			inner := make(map[string]any, len(nested))
			for nk, item := range nested {
				inner[nk] = CloneValue(item)
			}
			clone[k] = inner
		}
		return clone
	case []any:
		clone := make([]any, len(value))
		for i, item := range value {
			clone[i] = CloneValue(item)
		}
		return clone
	case []string:
		clone := make([]string, len(value))
		copy(clone, value)
		return clone
	default:
		return value
	}
}
