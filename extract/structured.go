package extract

import (
	"fmt"
	"sort"
	"strings"
)

// Normalize resolves a field-map entry into a plain string. Field maps come
// from the selector pass, whose entries may be scalars, lists, or nested
// maps depending on how the selector schema was written.
//
// Resolution: a list yields its first element with a non-empty string form;
// a map prefers a "text" key, then a "value" key, then the first non-empty
// value walking keys in sorted order (map iteration must not influence the
// outcome); a scalar is stringified. ok is false when the entry is absent
// or all-empty — sentinel assignment is the merge's job, not the
// extractor's.
func Normalize(fieldMap map[string]any, field string) (string, bool) {
	if fieldMap == nil {
		return "", false
	}
	value, ok := fieldMap[field]
	if !ok {
		return "", false
	}

	switch v := value.(type) {
	case []string:
		for _, item := range v {
			if s := strings.TrimSpace(item); s != "" {
				return s, true
			}
		}
		return "", false

	case []any:
		for _, item := range v {
			if s := scalarString(item); s != "" {
				return s, true
			}
		}
		return "", false

	case map[string]any:
		if s := scalarString(v["text"]); s != "" {
			return s, true
		}
		if s := scalarString(v["value"]); s != "" {
			return s, true
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if s := scalarString(v[k]); s != "" {
				return s, true
			}
		}
		return "", false

	default:
		if s := scalarString(value); s != "" {
			return s, true
		}
		return "", false
	}
}

// scalarString stringifies a scalar value; composite values yield "" so
// callers skip them.
func scalarString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case bool, int, int64, float64:
		return strings.TrimSpace(fmt.Sprintf("%v", s))
	default:
		return ""
	}
}
