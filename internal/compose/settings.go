package compose

import (
	"dario.cat/mergo"
)

// MergeSettings returns a deep copy of base with overlay deep-merged on top.
// Neither input is modified.
func MergeSettings(base, overlay map[string]any) (map[string]any, error) {
	out := cloneMap(base)
	if len(overlay) == 0 {
		return out, nil
	}
	if out == nil {
		out = make(map[string]any, len(overlay))
	}
	if err := mergo.Merge(&out, cloneMap(overlay), mergo.WithOverride); err != nil {
		return nil, err
	}
	return out, nil
}

// CloneSettings returns a deep copy of m. Nested maps and lists are copied;
// other values are shared.
func CloneSettings(m map[string]any) map[string]any {
	return cloneMap(m)
}

// cloneMap deep-copies m so merges never write into provider or document data.
func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
