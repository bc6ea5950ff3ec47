package claims

import (
	"encoding/json"
	"sort"
)

// FlattenVPToken collects every presentation string from a vp_token, which
// may be a string, an array, or a DCQL object of credential id to string or
// array. Object keys are visited in sorted order.
func FlattenVPToken(token any) []string {
	var out []string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case string:
			if val != "" {
				out = append(out, val)
			}
		case []any:
			for _, inner := range val {
				walk(inner)
			}
		case []string:
			for _, inner := range val {
				walk(inner)
			}
		case map[string]any:
			keys := make([]string, 0, len(val))
			for k := range val {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(val[k])
			}
		case json.RawMessage:
			var decoded any
			if err := json.Unmarshal(val, &decoded); err == nil {
				walk(decoded)
			}
		}
	}
	walk(token)
	return out
}
