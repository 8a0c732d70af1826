package sanitize

import "regexp"

// DefaultQueryParams are the query-parameter names stripped by
// NewQueryParamRedactor when none are configured.
var DefaultQueryParams = []string{"access_token"}

// QueryParamRedactor replaces the value of configured query parameters with
// a fixed token, wherever a key=value pair appears.
//
// Unlike ValueRedactor it does not need to know the secret value up front,
// which catches runtime-issued tokens that do not exist when the pipeline
// is constructed. The value is terminated by &, a double quote, or
// whitespace so pairs embedded in JSON bodies are matched too.
type QueryParamRedactor struct {
	Base
	patterns []*regexp.Regexp
}

// NewQueryParamRedactor creates a redactor over the given parameter names.
// A nil slice selects DefaultQueryParams.
func NewQueryParamRedactor(params []string) *QueryParamRedactor {
	if params == nil {
		params = DefaultQueryParams
	}
	r := &QueryParamRedactor{}
	for _, p := range params {
		r.patterns = append(r.patterns, regexp.MustCompile(`(`+regexp.QuoteMeta(p)+`=)[^&"\s]+`))
	}
	return r
}

// BeforeRecordRequest strips parameter values from the request URL and body.
func (r *QueryParamRedactor) BeforeRecordRequest(req Request) Request {
	req.URL = r.redact(req.URL)
	req.Body = r.redact(req.Body)
	return req
}

// BeforeRecordResponse strips parameter values from pairs embedded in the body.
func (r *QueryParamRedactor) BeforeRecordResponse(resp Response) Response {
	resp.Body = r.redact(resp.Body)
	return resp
}

func (r *QueryParamRedactor) redact(s string) string {
	for _, p := range r.patterns {
		s = p.ReplaceAllString(s, "${1}"+Placeholder)
	}
	return s
}
