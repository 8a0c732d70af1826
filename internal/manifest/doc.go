// Package manifest loads the optional per-fixture manifest.yaml that
// declares overrides for one test: recording mode, freeze time, artifact
// staging destination, snapshot ignore patterns, and sanitizer extensions.
// Documents are validated against an embedded CUE schema before use so a
// typo in a fixture fails loudly instead of silently running with defaults.
package manifest
