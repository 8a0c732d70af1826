package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeOutputTree lays out an output root with tables/ and files/ content.
func writeOutputTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestCapture_HashesAndCSVMetadata(t *testing.T) {
	root := t.TempDir()
	writeOutputTree(t, root, map[string]string{
		"tables/orders.csv": "id,amount\n1,10\n2,20\n",
		"files/report.json": `{"ok":true}`,
	})

	snap, err := NewCapturer(nil).Capture(root)
	require.NoError(t, err)

	orders, ok := snap.Tables["orders.csv"]
	require.True(t, ok)
	assert.Regexp(t, `^sha256:[0-9a-f]{64}$`, orders.Hash)
	assert.Equal(t, int64(len("id,amount\n1,10\n2,20\n")), orders.SizeBytes)
	require.NotNil(t, orders.RowCount)
	assert.Equal(t, 3, *orders.RowCount)
	assert.Equal(t, []string{"id", "amount"}, orders.Columns)

	report, ok := snap.Files["report.json"]
	require.True(t, ok)
	assert.Nil(t, report.RowCount)
	assert.Empty(t, report.Columns)
}

func TestCapture_SkipsHiddenAndIgnored(t *testing.T) {
	root := t.TempDir()
	writeOutputTree(t, root, map[string]string{
		"tables/.hidden":             "x",
		"tables/orders.csv.manifest": `{"primary_key":["id"]}`,
		"tables/orders.csv":          "id\n1\n",
		"files/.DS_Store":            "junk",
		"files/nested/.gitkeep":      "",
		"files/nested/keep.txt":      "data",
	})

	snap, err := NewCapturer(nil).Capture(root)
	require.NoError(t, err)

	assert.Equal(t, []string{"orders.csv"}, keys(snap.Tables))
	assert.Equal(t, []string{"nested/keep.txt"}, keys(snap.Files))
}

func keys(m map[string]Entry) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCapture_MissingSubtreesYieldEmptyMaps(t *testing.T) {
	snap, err := NewCapturer(nil).Capture(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, snap.Tables)
	assert.Empty(t, snap.Files)
}

func TestCompare_RoundTripIsSuccess(t *testing.T) {
	root := t.TempDir()
	writeOutputTree(t, root, map[string]string{
		"tables/orders.csv": "id\n1\n2\n",
		"files/out.txt":     "hello",
	})

	c := NewCapturer(nil)
	first, err := c.Capture(root)
	require.NoError(t, err)
	second, err := c.Capture(root)
	require.NoError(t, err)

	result := Compare(first, second, CompareOptions{})
	assert.True(t, result.Success)
	assert.Empty(t, result.Diffs)
}

func TestCompare_ClassifiesEveryBucket(t *testing.T) {
	expectedRoot, actualRoot := t.TempDir(), t.TempDir()
	writeOutputTree(t, expectedRoot, map[string]string{
		"tables/orders.csv": "id\n1\n2\n",
		"files/gone.txt":    "was here",
		"files/same.txt":    "stable",
	})
	writeOutputTree(t, actualRoot, map[string]string{
		"tables/orders.csv": "id\n1\n2\n3\n",
		"files/extra.txt":   "surprise",
		"files/same.txt":    "stable",
	})

	c := NewCapturer(nil)
	expected, err := c.Capture(expectedRoot)
	require.NoError(t, err)
	actual, err := c.Capture(actualRoot)
	require.NoError(t, err)

	result := Compare(expected, actual, CompareOptions{})
	require.False(t, result.Success)
	require.Len(t, result.Diffs, 3)

	byPath := map[string]Diff{}
	for _, d := range result.Diffs {
		byPath[d.Path] = d
	}
	assert.Equal(t, DiffUnexpected, byPath["files/extra.txt"].Kind)
	assert.Equal(t, DiffMissing, byPath["files/gone.txt"].Kind)
	changed := byPath["tables/orders.csv"]
	assert.Equal(t, DiffChanged, changed.Kind)
	assert.Equal(t, 1, changed.RowDelta)
}

func TestCompare_VerboseDiffNeverFlipsOutcome(t *testing.T) {
	expectedRoot, actualRoot := t.TempDir(), t.TempDir()
	writeOutputTree(t, expectedRoot, map[string]string{"tables/t.csv": "id\n1\n"})
	writeOutputTree(t, actualRoot, map[string]string{"tables/t.csv": "id\n2\n"})

	c := NewCapturer(nil)
	expected, err := c.Capture(expectedRoot)
	require.NoError(t, err)
	actual, err := c.Capture(actualRoot)
	require.NoError(t, err)

	terse := Compare(expected, actual, CompareOptions{})
	verbose := Compare(expected, actual, CompareOptions{
		Verbose:     true,
		ExpectedDir: expectedRoot,
		ActualDir:   actualRoot,
	})

	assert.Equal(t, terse.Success, verbose.Success)
	require.Len(t, verbose.Diffs, 1)
	assert.Contains(t, verbose.Diffs[0].UnifiedDiff, "-1")
	assert.Contains(t, verbose.Diffs[0].UnifiedDiff, "+2")
	assert.Empty(t, terse.Diffs[0].UnifiedDiff)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	root := t.TempDir()
	writeOutputTree(t, root, map[string]string{"tables/t.csv": "a,b\n1,2\n"})

	snap, err := NewCapturer(nil).Capture(root)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(snap, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)

	result := Compare(snap, loaded, CompareOptions{})
	assert.True(t, result.Success)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestValidationResult_FormatGolden(t *testing.T) {
	three, four := 3, 4
	result := newValidationResult([]Diff{
		{Path: "tables/output.csv", Kind: DiffChanged,
			Expected: &Entry{Hash: "sha256:aa", SizeBytes: 120, RowCount: &three},
			Actual:   &Entry{Hash: "sha256:bb", SizeBytes: 140, RowCount: &four},
			RowDelta: 1},
		{Path: "files/report.json", Kind: DiffMissing, Expected: &Entry{Hash: "sha256:cc", SizeBytes: 12}},
		{Path: "files/extra.txt", Kind: DiffUnexpected, Actual: &Entry{Hash: "sha256:dd", SizeBytes: 8}},
	})

	g := goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
	g.Assert(t, "validation_report", []byte(result.Format(false)))
}
