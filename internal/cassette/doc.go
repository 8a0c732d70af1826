// Package cassette decides when a component runs against recorded HTTP
// interactions and how data passing through the recording boundary is
// transformed.
//
// The actual wire-level interception is an external collaborator behind the
// Interceptor interface, as is the process-clock freeze behind Freezer.
// This package owns the surrounding policy: mode resolution (record /
// replay / passthrough), cassette discovery and metadata stamping,
// freeze-time resolution, the record-time secrets merge, and the phase flag
// that keeps sanitization a record-time-only rewrite.
package cassette
