// Package store persists run history: every suite run appends its per-test
// results to a local SQLite database so tooling can distinguish "the
// component behaved differently" from "the environment is misconfigured"
// across runs.
package store
