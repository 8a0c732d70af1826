package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverSuite_SplitsStandaloneAndChains(t *testing.T) {
	root := t.TempDir()
	makeFixture(t, root, "001-simple", "value\n1\n")
	chainDir := filepath.Join(root, "010-chain")
	makeFixture(t, chainDir, "01-first", "value\n1\n")
	makeFixture(t, root, "_090-parked", "value\nx\n")

	suite, err := DiscoverSuite(root, nil)
	require.NoError(t, err)

	require.Len(t, suite.Standalone, 1)
	assert.Equal(t, "001-simple", suite.Standalone[0].Name)
	require.Len(t, suite.Chains, 1)
	assert.Equal(t, "010-chain", suite.Chains[0].Name)
}

func TestDiscoverSuite_EmptyDirectoryIsConfigError(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "001-empty"), 0o755))

	_, err := DiscoverSuite(root, nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestDiscoverSuite_SelectedFilter(t *testing.T) {
	root := t.TempDir()
	makeFixture(t, root, "001-a", "value\n1\n")
	makeFixture(t, root, "002-b", "value\n1\n")

	suite, err := DiscoverSuite(root, []string{"002-b"})
	require.NoError(t, err)
	require.Len(t, suite.Standalone, 1)
	assert.Equal(t, "002-b", suite.Standalone[0].Name)
}

func TestDiscoverSuite_UnknownSelectionIsError(t *testing.T) {
	root := t.TempDir()
	makeFixture(t, root, "001-a", "value\n1\n")

	_, err := DiscoverSuite(root, []string{"does-not-exist"})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "does-not-exist")
}

func TestSuiteRun_AggregatesAllFailures(t *testing.T) {
	root := t.TempDir()
	makeFixture(t, root, "001-fails", "value\nexpected-a\n")
	makeFixture(t, root, "002-fails", "value\nexpected-b\n")
	makeFixture(t, root, "003-passes", "value\n1\n")

	suite, err := DiscoverSuite(root, nil)
	require.NoError(t, err)

	result := suite.Run(context.Background(), &Options{Runner: counterComponent(nil)})

	assert.False(t, result.Passed())
	assert.Len(t, result.Results, 3, "every test runs despite earlier failures")
	assert.Len(t, result.Failures(), 2, "the union of failures is reported")
	assert.NotEmpty(t, result.JobID)
}

func TestSuiteRun_SaveOutputCopiesDataDir(t *testing.T) {
	root := t.TempDir()
	makeFixture(t, root, "001-simple", "value\n1\n")
	saveDir := t.TempDir()

	suite, err := DiscoverSuite(root, nil)
	require.NoError(t, err)

	result := suite.Run(context.Background(), &Options{
		Runner:        counterComponent(nil),
		SaveOutputDir: saveDir,
	})

	require.True(t, result.Passed())
	assert.FileExists(t, filepath.Join(saveDir, "001-simple", "out", "tables", "result.csv"))
}
