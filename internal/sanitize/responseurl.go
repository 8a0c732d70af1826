package sanitize

import (
	"regexp"
	"strings"
)

// ResponseURLCleaner strips ephemeral query parameters from URLs embedded
// in response bodies, for URLs containing any of the configured domain
// substrings. CDN URLs carry parameters that change between requests and
// would otherwise break cassette matching on replay.
//
// Bodies containing none of the target domains are returned as-is without
// any re-serialization, so non-JSON and binary-adjacent content is never
// touched. All other content in a matching body stays untouched; only the
// matched URLs are rewritten.
type ResponseURLCleaner struct {
	Base
	domains []string
	paramRE *regexp.Regexp
	urlRE   *regexp.Regexp
}

// NewResponseURLCleaner creates a cleaner that removes the given query
// parameters from URLs containing any of the given domain substrings.
func NewResponseURLCleaner(params, domains []string) *ResponseURLCleaner {
	paramAlts := make([]string, len(params))
	for i, p := range params {
		paramAlts[i] = regexp.QuoteMeta(p)
	}
	domainAlts := make([]string, len(domains))
	for i, d := range domains {
		domainAlts[i] = regexp.QuoteMeta(d)
	}
	return &ResponseURLCleaner{
		domains: domains,
		// ?param=value or &param=value, value up to the next & or quote/whitespace
		paramRE: regexp.MustCompile(`[?&](?:` + strings.Join(paramAlts, "|") + `)=[^&"\s]*`),
		urlRE:   regexp.MustCompile(`https?://[^\s"'<>]*(?:` + strings.Join(domainAlts, "|") + `)[^\s"'<>]*`),
	}
}

// BeforeRecordResponse rewrites matching URLs in the response body.
func (c *ResponseURLCleaner) BeforeRecordResponse(resp Response) Response {
	if resp.Body == "" || !c.bodyHasDomain(resp.Body) {
		return resp
	}
	resp.Body = c.urlRE.ReplaceAllStringFunc(resp.Body, c.cleanURL)
	return resp
}

func (c *ResponseURLCleaner) bodyHasDomain(body string) bool {
	for _, d := range c.domains {
		if strings.Contains(body, d) {
			return true
		}
	}
	return false
}

// cleanURL strips the ephemeral parameters from one URL. If the first
// parameter was removed the next one still starts with &, so promote it
// back to ? to keep the query string well-formed.
func (c *ResponseURLCleaner) cleanURL(url string) string {
	cleaned := c.paramRE.ReplaceAllString(url, "")
	if !strings.Contains(cleaned, "?") && strings.Contains(cleaned, "&") {
		cleaned = strings.Replace(cleaned, "&", "?", 1)
	}
	return cleaned
}
