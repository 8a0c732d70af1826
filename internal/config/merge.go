package config

import (
	"fmt"

	"dario.cat/mergo"
)

// Merge deep-merges override into base and returns a new document.
// Neither input is mutated: base is deep-copied first, so the committed
// config and the in-memory recording variant never alias each other.
// Nested objects merge recursively; scalar and list values from override
// replace those in base.
func Merge(base, override map[string]any) (map[string]any, error) {
	merged := deepCopy(base)
	if merged == nil {
		merged = map[string]any{}
	}
	if err := mergo.Merge(&merged, deepCopy(override), mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("merge config documents: %w", err)
	}
	return merged, nil
}

func deepCopy(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopy(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return v
	}
}
