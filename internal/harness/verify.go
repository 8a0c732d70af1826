package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/roach88/pipetest/internal/snapshot"
)

// Verifier compares a component's output tree against the fixture's golden
// expectation. Verification has two tiers: a structural+content comparison
// of the trees themselves, and a hash-snapshot comparison against a
// committed snapshot file when the fixture ships one. Both must pass.
type Verifier struct {
	// IgnorePatterns are filename globs excluded from capture; nil selects
	// the snapshot defaults.
	IgnorePatterns []string
	// Verbose enables unified-diff rendering for changed entries.
	Verbose bool
}

// Verify runs both verification tiers. The returned result is the first
// failing tier's, or the passing result when everything matches.
func (v *Verifier) Verify(expectedDir, actualDir string) (*snapshot.ValidationResult, error) {
	capturer := snapshot.NewCapturer(v.IgnorePatterns)

	expected, err := capturer.Capture(expectedDir)
	if err != nil {
		return nil, fmt.Errorf("capture expected output: %w", err)
	}
	actual, err := capturer.Capture(actualDir)
	if err != nil {
		return nil, fmt.Errorf("capture actual output: %w", err)
	}

	opts := snapshot.CompareOptions{
		Verbose:     v.Verbose,
		ExpectedDir: expectedDir,
		ActualDir:   actualDir,
	}
	result := snapshot.Compare(expected, actual, opts)

	manifestDiffs, err := compareManifests(expectedDir, actualDir)
	if err != nil {
		return nil, err
	}
	if len(manifestDiffs) > 0 {
		result = mergeDiffs(result, manifestDiffs)
	}
	if !result.Success {
		return result, nil
	}

	snapPath := filepath.Join(expectedDir, snapshot.FileName)
	if _, err := os.Stat(snapPath); err == nil {
		committed, err := snapshot.Load(snapPath)
		if err != nil {
			return nil, fmt.Errorf("load committed snapshot: %w", err)
		}
		return snapshot.Compare(committed, actual, opts), nil
	}
	return result, nil
}

// compareManifests handles the *.manifest companions excluded from hashing:
// they are platform metadata whose key order is unstable, so they compare
// as normalized JSON. Files that fail to parse compare byte-wise.
func compareManifests(expectedDir, actualDir string) ([]snapshot.Diff, error) {
	expectedSet, err := findManifests(expectedDir)
	if err != nil {
		return nil, err
	}
	actualSet, err := findManifests(actualDir)
	if err != nil {
		return nil, err
	}

	var diffs []snapshot.Diff
	for rel := range expectedSet {
		if _, ok := actualSet[rel]; !ok {
			diffs = append(diffs, snapshot.Diff{Path: rel, Kind: snapshot.DiffMissing})
			continue
		}
		same, err := manifestsEqual(
			filepath.Join(expectedDir, filepath.FromSlash(rel)),
			filepath.Join(actualDir, filepath.FromSlash(rel)),
		)
		if err != nil {
			return nil, err
		}
		if !same {
			diffs = append(diffs, snapshot.Diff{Path: rel, Kind: snapshot.DiffChanged})
		}
	}
	for rel := range actualSet {
		if _, ok := expectedSet[rel]; !ok {
			diffs = append(diffs, snapshot.Diff{Path: rel, Kind: snapshot.DiffUnexpected})
		}
	}
	return diffs, nil
}

func findManifests(root string) (map[string]struct{}, error) {
	found := map[string]struct{}{}
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return found, nil
	}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".manifest") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		found[filepath.ToSlash(rel)] = struct{}{}
		return nil
	})
	return found, err
}

func manifestsEqual(expectedPath, actualPath string) (bool, error) {
	expectedData, err := os.ReadFile(expectedPath)
	if err != nil {
		return false, err
	}
	actualData, err := os.ReadFile(actualPath)
	if err != nil {
		return false, err
	}

	var expectedDoc, actualDoc any
	if json.Unmarshal(expectedData, &expectedDoc) != nil ||
		json.Unmarshal(actualData, &actualDoc) != nil {
		return bytes.Equal(expectedData, actualData), nil
	}
	return reflect.DeepEqual(expectedDoc, actualDoc), nil
}

func mergeDiffs(result *snapshot.ValidationResult, extra []snapshot.Diff) *snapshot.ValidationResult {
	merged := &snapshot.ValidationResult{
		Success: false,
		Summary: result.Summary,
		Diffs:   append(result.Diffs, extra...),
	}
	if result.Success {
		merged.Summary = fmt.Sprintf("validation failed: %d manifest mismatch(es)", len(extra))
	} else {
		merged.Summary = fmt.Sprintf("%s, %d manifest mismatch(es)", result.Summary, len(extra))
	}
	return merged
}
