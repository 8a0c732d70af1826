package sanitize

// Placeholder is the literal written in place of redacted values.
const Placeholder = "REDACTED"

// Request is the wire-level request descriptor passed through the pipeline.
// Headers and Body are owned by the pipeline; stages may return modified
// copies but must never partially rewrite shared state.
type Request struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body,omitempty"`
}

// Response is the wire-level response descriptor passed through the pipeline.
type Response struct {
	Status  int                 `json:"status"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body,omitempty"`
}

// Sanitizer transforms one request or one response before it is recorded.
// Implementations must be safe to call with arbitrary malformed input.
type Sanitizer interface {
	BeforeRecordRequest(req Request) Request
	BeforeRecordResponse(resp Response) Response
}

// Base provides identity implementations for both hooks.
// Embed it to implement only one side of the contract.
type Base struct{}

// BeforeRecordRequest returns the request unchanged.
func (Base) BeforeRecordRequest(req Request) Request { return req }

// BeforeRecordResponse returns the response unchanged.
func (Base) BeforeRecordResponse(resp Response) Response { return resp }

// Pipeline applies an ordered list of sanitizers, each stage's output
// feeding the next. The two hooks compose independently.
type Pipeline struct {
	stages []Sanitizer
}

// NewPipeline creates a pipeline over the given stages, applied in order.
func NewPipeline(stages ...Sanitizer) *Pipeline {
	return &Pipeline{stages: stages}
}

// BeforeRecordRequest runs the request through every stage in order.
func (p *Pipeline) BeforeRecordRequest(req Request) Request {
	for _, s := range p.stages {
		req = s.BeforeRecordRequest(req)
	}
	return req
}

// BeforeRecordResponse runs the response through every stage in order.
func (p *Pipeline) BeforeRecordResponse(resp Response) Response {
	for _, s := range p.stages {
		resp = s.BeforeRecordResponse(resp)
	}
	return resp
}

// NewDefault builds the standard pipeline from a secrets document:
// field-name redaction over the default field set, exact-value redaction of
// every string extracted from the secrets, query-parameter stripping for
// the default parameter set, and the header allow-list as the final net.
func NewDefault(secrets map[string]any) *Pipeline {
	return NewPipeline(
		NewFieldRedactor(nil),
		NewValueRedactor(ExtractValues(secrets)),
		NewQueryParamRedactor(nil),
		NewHeaderAllowlist(nil),
	)
}
