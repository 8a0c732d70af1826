package sanitize

import (
	"sort"
	"strings"
)

// ValueRedactor replaces exact occurrences of known secret strings.
//
// Values are processed longest-first so a short token that is a prefix (or
// substring) of a longer value, like a bare key embedded in a signed JWT,
// never leaves a partially substituted remainder behind.
type ValueRedactor struct {
	Base
	values []string
}

// NewValueRedactor creates a redactor for the given secret values.
// Empty strings are dropped; the rest are sorted longest-first.
func NewValueRedactor(values []string) *ValueRedactor {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			kept = append(kept, v)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return len(kept[i]) > len(kept[j])
	})
	return &ValueRedactor{values: kept}
}

// BeforeRecordRequest replaces secret values in the URL, headers, and body.
func (r *ValueRedactor) BeforeRecordRequest(req Request) Request {
	req.URL = r.redact(req.URL)
	req.Headers = r.redactHeaders(req.Headers)
	req.Body = r.redact(req.Body)
	return req
}

// BeforeRecordResponse replaces secret values in the headers and body.
func (r *ValueRedactor) BeforeRecordResponse(resp Response) Response {
	resp.Headers = r.redactHeaders(resp.Headers)
	resp.Body = r.redact(resp.Body)
	return resp
}

func (r *ValueRedactor) redact(s string) string {
	for _, v := range r.values {
		if strings.Contains(s, v) {
			s = strings.ReplaceAll(s, v, Placeholder)
		}
	}
	return s
}

func (r *ValueRedactor) redactHeaders(h map[string][]string) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		redacted := make([]string, len(vals))
		for i, v := range vals {
			redacted[i] = r.redact(v)
		}
		out[k] = redacted
	}
	return out
}
