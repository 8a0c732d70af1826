// Package snapshot captures and compares hash-based digests of a
// component's output tree.
//
// A snapshot maps every non-hidden file under the monitored output roots
// (tables/ and files/) to its content hash, size, and, for delimited
// tabular files, a row count and ordered column list. Hashes are
// algorithm-tagged ("sha256:<hex>") so the algorithm can evolve without
// breaking comparison of already-tagged values.
//
// Comparison classifies every path as identical, missing, unexpected, or
// changed. Unified diffs are computed in verbose mode purely for the
// rendered message; they never participate in the pass/fail decision.
package snapshot
