package sanitize

import "strings"

// DefaultSafeHeaders is the allow-set used when none is configured.
var DefaultSafeHeaders = []string{
	"content-type", "content-length", "accept",
}

// HeaderAllowlist keeps only headers whose name appears in the allow-set
// (case-insensitive). Everything else is dropped, not redacted. Stricter
// than field redaction, and used as the safety net behind it.
type HeaderAllowlist struct {
	Base
	allowed map[string]struct{}
}

// NewHeaderAllowlist creates an allow-list over the given header names.
// A nil slice selects DefaultSafeHeaders.
func NewHeaderAllowlist(names []string) *HeaderAllowlist {
	if names == nil {
		names = DefaultSafeHeaders
	}
	a := &HeaderAllowlist{allowed: make(map[string]struct{}, len(names))}
	for _, n := range names {
		a.allowed[strings.ToLower(n)] = struct{}{}
	}
	return a
}

// BeforeRecordRequest drops non-allowed request headers.
func (a *HeaderAllowlist) BeforeRecordRequest(req Request) Request {
	req.Headers = a.filter(req.Headers)
	return req
}

// BeforeRecordResponse drops non-allowed response headers.
func (a *HeaderAllowlist) BeforeRecordResponse(resp Response) Response {
	resp.Headers = a.filter(resp.Headers)
	return resp
}

func (a *HeaderAllowlist) filter(h map[string][]string) map[string][]string {
	if h == nil {
		return nil
	}
	out := make(map[string][]string, len(h))
	for k, v := range h {
		if _, ok := a.allowed[strings.ToLower(k)]; ok {
			out[k] = v
		}
	}
	return out
}
