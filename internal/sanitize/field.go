package sanitize

import (
	"encoding/json"
	"regexp"
)

// DefaultSensitiveFields are the field names redacted by NewFieldRedactor
// when no explicit set is given. Key matching is case-sensitive.
var DefaultSensitiveFields = []string{
	"access_token", "refresh_token", "id_token",
	"client_id", "client_secret", "client_assertion",
	"code", "password", "token",
}

// FieldRedactor redacts values by field name in structured bodies.
//
// It tries a JSON parse first and recursively replaces any matching key's
// value with the placeholder. On parse failure it falls back to matching
// key=value pairs over the same field set, so form-encoded bodies (OAuth
// token exchanges in particular) are still covered. Bodies that are neither
// JSON nor form-like pass through unchanged.
type FieldRedactor struct {
	Base
	fields   map[string]struct{}
	patterns []*regexp.Regexp
}

// NewFieldRedactor creates a redactor over the given field names.
// A nil slice selects DefaultSensitiveFields.
func NewFieldRedactor(fields []string) *FieldRedactor {
	if fields == nil {
		fields = DefaultSensitiveFields
	}
	r := &FieldRedactor{fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		r.fields[f] = struct{}{}
		// value terminated by &, double quote, or whitespace
		r.patterns = append(r.patterns, regexp.MustCompile(regexp.QuoteMeta(f)+`=[^&"\s]+`))
	}
	return r
}

// BeforeRecordRequest redacts matching fields in the URL query string and body.
func (r *FieldRedactor) BeforeRecordRequest(req Request) Request {
	req.URL = r.redactPairs(req.URL)
	req.Body = r.redactBody(req.Body)
	return req
}

// BeforeRecordResponse redacts matching fields in the body.
func (r *FieldRedactor) BeforeRecordResponse(resp Response) Response {
	resp.Body = r.redactBody(resp.Body)
	return resp
}

func (r *FieldRedactor) redactBody(body string) string {
	if body == "" {
		return body
	}
	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err == nil {
		redacted := r.redactValue(parsed)
		if out, err := json.Marshal(redacted); err == nil {
			return string(out)
		}
		// re-serialization failed, fall through to the pattern strategy
	}
	return r.redactPairs(body)
}

// redactPairs rewrites key=value occurrences for every sensitive field.
func (r *FieldRedactor) redactPairs(s string) string {
	for _, p := range r.patterns {
		s = p.ReplaceAllStringFunc(s, func(m string) string {
			// keep "key=", replace the value
			for j := range m {
				if m[j] == '=' {
					return m[:j+1] + Placeholder
				}
			}
			return m
		})
	}
	return s
}

// redactValue recursively walks a decoded JSON document, replacing values
// of matching keys and descending into nested objects and lists.
func (r *FieldRedactor) redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if _, hit := r.fields[k]; hit {
				out[k] = Placeholder
			} else {
				out[k] = r.redactValue(val)
			}
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = r.redactValue(item)
		}
		return out
	default:
		return v
	}
}
