package sanitize

import "encoding/json"

// ExtractValues collects every non-empty string value from a secrets
// document, recursing into nested objects and lists. String values that are
// themselves JSON-encoded documents are parsed and their inner values
// extracted too; OAuth credential blobs are routinely stored that way.
func ExtractValues(doc map[string]any) []string {
	var values []string
	collectValues(doc, &values)
	return values
}

func collectValues(doc map[string]any, values *[]string) {
	for _, v := range doc {
		collectValue(v, values)
	}
}

func collectValue(v any, values *[]string) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return
		}
		*values = append(*values, t)
		// a string secret may itself be a JSON document with inner secrets
		var nested any
		if err := json.Unmarshal([]byte(t), &nested); err == nil {
			switch n := nested.(type) {
			case map[string]any:
				collectValues(n, values)
			case []any:
				for _, item := range n {
					collectValue(item, values)
				}
			}
		}
	case map[string]any:
		collectValues(t, values)
	case []any:
		for _, item := range t {
			collectValue(item, values)
		}
	}
}
