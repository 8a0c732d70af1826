package sanitize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRedactor_JSONBody(t *testing.T) {
	r := NewFieldRedactor(nil)

	req := Request{Body: `{"client_secret":"s3cr3t","nested":{"password":"pw","keep":"ok"},"list":[{"token":"tk"}]}`}
	got := r.BeforeRecordRequest(req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &parsed))

	assert.Equal(t, Placeholder, parsed["client_secret"])
	nested := parsed["nested"].(map[string]any)
	assert.Equal(t, Placeholder, nested["password"])
	assert.Equal(t, "ok", nested["keep"])
	item := parsed["list"].([]any)[0].(map[string]any)
	assert.Equal(t, Placeholder, item["token"])
}

func TestFieldRedactor_FormEncodedFallback(t *testing.T) {
	r := NewFieldRedactor(nil)

	req := Request{Body: `grant_type=refresh_token&refresh_token=abc123&client_id=my-client`}
	got := r.BeforeRecordRequest(req)

	assert.Contains(t, got.Body, "refresh_token="+Placeholder)
	assert.Contains(t, got.Body, "client_id="+Placeholder)
	assert.Contains(t, got.Body, "grant_type=refresh_token")
}

func TestFieldRedactor_UnrecognizedBodyUnchanged(t *testing.T) {
	r := NewFieldRedactor(nil)

	body := "\x00\x01 not json, not form"
	got := r.BeforeRecordRequest(Request{Body: body})
	assert.Equal(t, body, got.Body)

	got = r.BeforeRecordRequest(Request{Body: ""})
	assert.Equal(t, "", got.Body)
}

func TestFieldRedactor_CaseSensitiveKeys(t *testing.T) {
	r := NewFieldRedactor(nil)

	got := r.BeforeRecordRequest(Request{Body: `{"Token":"visible","token":"hidden"}`})

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &parsed))
	assert.Equal(t, "visible", parsed["Token"])
	assert.Equal(t, Placeholder, parsed["token"])
}

func TestFieldRedactor_QueryString(t *testing.T) {
	r := NewFieldRedactor(nil)

	got := r.BeforeRecordRequest(Request{URL: "https://api.example.com/auth?code=xyz&state=keep"})
	assert.Equal(t, "https://api.example.com/auth?code="+Placeholder+"&state=keep", got.URL)
}

func TestValueRedactor_LongestFirst(t *testing.T) {
	// "ab" is a prefix of "abc"; the longer value must win so no
	// partially substituted remainder like "REDACTEDc" appears.
	r := NewValueRedactor([]string{"ab", "abc"})

	got := r.BeforeRecordResponse(Response{Body: `the token is abc here`})
	assert.Equal(t, "the token is "+Placeholder+" here", got.Body)
}

func TestValueRedactor_Idempotent(t *testing.T) {
	r := NewValueRedactor([]string{"secret-value"})

	once := r.BeforeRecordResponse(Response{Body: "x secret-value y"})
	twice := r.BeforeRecordResponse(once)
	assert.Equal(t, once.Body, twice.Body)
}

func TestValueRedactor_HeadersAndURL(t *testing.T) {
	r := NewValueRedactor([]string{"tok-123"})

	got := r.BeforeRecordRequest(Request{
		URL:     "https://api.example.com/?auth=tok-123",
		Headers: map[string][]string{"Authorization": {"Bearer tok-123"}},
	})
	assert.Equal(t, "https://api.example.com/?auth="+Placeholder, got.URL)
	assert.Equal(t, []string{"Bearer " + Placeholder}, got.Headers["Authorization"])
}

func TestValueRedactor_EmptyValuesDropped(t *testing.T) {
	r := NewValueRedactor([]string{"", "a"})

	got := r.BeforeRecordResponse(Response{Body: "bca"})
	assert.Equal(t, "bc"+Placeholder, got.Body)
}

func TestHeaderAllowlist_DropsEverythingElse(t *testing.T) {
	a := NewHeaderAllowlist(nil)

	got := a.BeforeRecordResponse(Response{Headers: map[string][]string{
		"Content-Type":  {"application/json"},
		"Set-Cookie":    {"session=abc"},
		"Authorization": {"Bearer x"},
	}})

	assert.Equal(t, map[string][]string{"Content-Type": {"application/json"}}, got.Headers)
}

func TestHeaderAllowlist_CaseInsensitive(t *testing.T) {
	a := NewHeaderAllowlist([]string{"X-Request-Id"})

	got := a.BeforeRecordRequest(Request{Headers: map[string][]string{
		"x-request-id": {"42"},
		"X-Secret":     {"no"},
	}})
	assert.Equal(t, map[string][]string{"x-request-id": {"42"}}, got.Headers)
}

func TestQueryParamRedactor_URLAndBody(t *testing.T) {
	r := NewQueryParamRedactor(nil)

	got := r.BeforeRecordRequest(Request{
		URL:  "https://graph.example.com/me?access_token=EAAC123&fields=id",
		Body: `{"next":"https://graph.example.com/page?access_token=EAAC456&limit=5"}`,
	})
	assert.Equal(t, "https://graph.example.com/me?access_token="+Placeholder+"&fields=id", got.URL)
	assert.Contains(t, got.Body, "access_token="+Placeholder+"&limit=5")
}

func TestResponseURLCleaner_StripsEphemeralParams(t *testing.T) {
	c := NewResponseURLCleaner([]string{"oh", "oe"}, []string{"cdn.example.net"})

	got := c.BeforeRecordResponse(Response{
		Body: `{"img":"https://cdn.example.net/v/pic.jpg?oh=aaa&w=100&oe=bbb","other":"https://api.example.com/?oh=keep"}`,
	})
	assert.Contains(t, got.Body, `https://cdn.example.net/v/pic.jpg?w=100`)
	// URLs outside the configured domains stay untouched
	assert.Contains(t, got.Body, `https://api.example.com/?oh=keep`)
}

func TestResponseURLCleaner_SkipsNonMatchingBody(t *testing.T) {
	c := NewResponseURLCleaner([]string{"oh"}, []string{"cdn.example.net"})

	body := "binary-ish content \x7f with no target domain, oh=123"
	got := c.BeforeRecordResponse(Response{Body: body})
	assert.Equal(t, body, got.Body)
}

func TestExtractValues_NestedJSONString(t *testing.T) {
	secrets := map[string]any{
		"api_token": "plain-token",
		"oauth": map[string]any{
			"#data": `{"access_token":"inner-access","refresh_token":"inner-refresh"}`,
		},
		"ids": []any{"list-secret"},
	}

	values := ExtractValues(secrets)

	assert.Contains(t, values, "plain-token")
	assert.Contains(t, values, `{"access_token":"inner-access","refresh_token":"inner-refresh"}`)
	assert.Contains(t, values, "inner-access")
	assert.Contains(t, values, "inner-refresh")
	assert.Contains(t, values, "list-secret")
}

func TestPipeline_OrderAndComposition(t *testing.T) {
	secrets := map[string]any{"token": "super-secret-token"}
	p := NewDefault(secrets)

	req := Request{
		URL: "https://api.example.com/items",
		Headers: map[string][]string{
			"Content-Type":  {"application/json"},
			"Authorization": {"Bearer super-secret-token"},
		},
		Body: `{"password":"pw","note":"uses super-secret-token"}`,
	}
	got := p.BeforeRecordRequest(req)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(got.Body), &parsed))
	assert.Equal(t, Placeholder, parsed["password"])
	assert.Equal(t, "uses "+Placeholder, parsed["note"])
	// Authorization never survives the allow-list, redacted or not
	_, present := got.Headers["Authorization"]
	assert.False(t, present)
	assert.Contains(t, got.Headers, "Content-Type")
}
