package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
	return dir
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	m, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "auto", m.Mode)
	assert.Equal(t, "auto", m.FreezeTime)
	assert.Equal(t, "runs", m.Artifacts.Destination)
	assert.Empty(t, m.Snapshot.Ignore)
}

func TestLoad_FullDocument(t *testing.T) {
	dir := writeManifest(t, `
mode: replay
freeze_time: "2025-01-01T12:00:00"
artifacts:
  destination: custom
snapshot:
  ignore:
    - "*.log"
sanitize:
  fields:
    - session_key
  query_params:
    - sig
  safe_headers:
    - x-request-id
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "replay", m.Mode)
	assert.Equal(t, "2025-01-01T12:00:00", m.FreezeTime)
	assert.Equal(t, "custom", m.Artifacts.Destination)
	assert.Equal(t, []string{"*.log"}, m.Snapshot.Ignore)
	assert.Equal(t, []string{"session_key"}, m.Sanitize.Fields)
	assert.Equal(t, []string{"sig"}, m.Sanitize.QueryParams)
	assert.Equal(t, []string{"x-request-id"}, m.Sanitize.SafeHeaders)
}

func TestLoad_PartialDocumentKeepsDefaults(t *testing.T) {
	dir := writeManifest(t, "mode: record\n")

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "record", m.Mode)
	assert.Equal(t, "auto", m.FreezeTime)
	assert.Equal(t, "runs", m.Artifacts.Destination)
}

func TestLoad_EmptyFreezeTimeDisablesFreezing(t *testing.T) {
	dir := writeManifest(t, `freeze_time: ""`)

	m, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, m.FreezeTime)
}

func TestLoad_InvalidModeFailsValidation(t *testing.T) {
	dir := writeManifest(t, "mode: sometimes\n")

	_, err := Load(dir)
	var invalid *InvalidManifestError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Path, FileName)
}

func TestLoad_UnknownDestinationFailsValidation(t *testing.T) {
	dir := writeManifest(t, "artifacts:\n  destination: elsewhere\n")

	_, err := Load(dir)
	var invalid *InvalidManifestError
	require.ErrorAs(t, err, &invalid)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := writeManifest(t, "mode: [unclosed\n")

	var invalid *InvalidManifestError
	_, err := Load(dir)
	require.ErrorAs(t, err, &invalid)
}
