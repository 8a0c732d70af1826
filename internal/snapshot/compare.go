package snapshot

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pmezard/go-difflib/difflib"
)

// DiffKind classifies one path's comparison outcome.
type DiffKind string

const (
	// DiffMissing marks a path present only in the expected snapshot.
	DiffMissing DiffKind = "missing"
	// DiffUnexpected marks a path present only in the actual snapshot.
	DiffUnexpected DiffKind = "unexpected"
	// DiffChanged marks a path present in both with differing hashes.
	DiffChanged DiffKind = "changed"
)

// Diff describes one path that fell outside the identical bucket.
type Diff struct {
	Path        string
	Kind        DiffKind
	Expected    *Entry
	Actual      *Entry
	RowDelta    int    // populated for changed tabular entries with row counts on both sides
	UnifiedDiff string // verbose mode only, rendering aid, never part of pass/fail
}

// CompareOptions controls diff rendering during comparison.
type CompareOptions struct {
	// Verbose enables unified-diff generation for changed entries when both
	// underlying files are still available on disk.
	Verbose bool
	// ExpectedDir and ActualDir are the output roots the snapshots were
	// captured from, used only to locate files for unified diffs.
	ExpectedDir string
	ActualDir   string
}

// Compare classifies every path of both snapshots into exactly one of:
// identical (pass), missing, unexpected, or changed. Success is true iff
// no path falls outside the identical bucket.
func Compare(expected, actual *Snapshot, opts CompareOptions) *ValidationResult {
	var diffs []Diff
	diffs = append(diffs, compareSection(expected.Tables, actual.Tables, "tables", opts)...)
	diffs = append(diffs, compareSection(expected.Files, actual.Files, "files", opts)...)

	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Path < diffs[j].Path })

	return newValidationResult(diffs)
}

func compareSection(expected, actual map[string]Entry, section string, opts CompareOptions) []Diff {
	var diffs []Diff

	for p, exp := range expected {
		act, ok := actual[p]
		if !ok {
			e := exp
			diffs = append(diffs, Diff{Path: section + "/" + p, Kind: DiffMissing, Expected: &e})
			continue
		}
		if exp.Hash == act.Hash {
			continue
		}
		e, a := exp, act
		d := Diff{Path: section + "/" + p, Kind: DiffChanged, Expected: &e, Actual: &a}
		if exp.RowCount != nil && act.RowCount != nil {
			d.RowDelta = *act.RowCount - *exp.RowCount
		}
		if opts.Verbose && opts.ExpectedDir != "" && opts.ActualDir != "" {
			d.UnifiedDiff = unifiedDiff(
				filepath.Join(opts.ExpectedDir, section, filepath.FromSlash(p)),
				filepath.Join(opts.ActualDir, section, filepath.FromSlash(p)),
			)
		}
		diffs = append(diffs, d)
	}

	for p, act := range actual {
		if _, ok := expected[p]; !ok {
			a := act
			diffs = append(diffs, Diff{Path: section + "/" + p, Kind: DiffUnexpected, Actual: &a})
		}
	}
	return diffs
}

// unifiedDiff renders a textual diff between two files for human debugging.
// Any read failure yields an empty string; the diff is a rendering aid only.
func unifiedDiff(expectedPath, actualPath string) string {
	expectedData, err := os.ReadFile(expectedPath)
	if err != nil {
		return ""
	}
	actualData, err := os.ReadFile(actualPath)
	if err != nil {
		return ""
	}
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(expectedData)),
		B:        difflib.SplitLines(string(actualData)),
		FromFile: expectedPath,
		ToFile:   actualPath,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}
