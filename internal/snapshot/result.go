package snapshot

import (
	"fmt"
	"strings"
)

// ValidationResult is the outcome of comparing an actual output tree
// against an expected snapshot.
type ValidationResult struct {
	Success bool
	Summary string
	Diffs   []Diff
}

func newValidationResult(diffs []Diff) *ValidationResult {
	if len(diffs) == 0 {
		return &ValidationResult{Success: true, Summary: "all outputs match expected snapshot"}
	}

	var missing, unexpected, changed int
	for _, d := range diffs {
		switch d.Kind {
		case DiffMissing:
			missing++
		case DiffUnexpected:
			unexpected++
		case DiffChanged:
			changed++
		}
	}

	var parts []string
	if changed > 0 {
		parts = append(parts, fmt.Sprintf("%d changed", changed))
	}
	if missing > 0 {
		parts = append(parts, fmt.Sprintf("%d missing", missing))
	}
	if unexpected > 0 {
		parts = append(parts, fmt.Sprintf("%d unexpected", unexpected))
	}

	return &ValidationResult{
		Success: false,
		Summary: "validation failed: " + strings.Join(parts, ", "),
		Diffs:   diffs,
	}
}

// Format renders the result for display. Verbose mode appends unified
// diffs for changed entries when they were generated.
func (r *ValidationResult) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(r.Summary)

	if r.Success {
		return b.String()
	}

	b.WriteString("\n")
	for _, d := range r.Diffs {
		switch d.Kind {
		case DiffMissing:
			fmt.Fprintf(&b, "  - %s: missing (expected to exist)\n", d.Path)
		case DiffUnexpected:
			fmt.Fprintf(&b, "  + %s: unexpected (not in snapshot)\n", d.Path)
		case DiffChanged:
			fmt.Fprintf(&b, "  ~ %s: content changed\n", d.Path)
			if d.Expected != nil && d.Actual != nil {
				if d.Expected.RowCount != nil && d.Actual.RowCount != nil {
					fmt.Fprintf(&b, "      rows: %d -> %d\n", *d.Expected.RowCount, *d.Actual.RowCount)
				}
				fmt.Fprintf(&b, "      size: %d -> %d bytes\n", d.Expected.SizeBytes, d.Actual.SizeBytes)
			}
		}
		if verbose && d.UnifiedDiff != "" {
			for _, line := range strings.Split(strings.TrimRight(d.UnifiedDiff, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
