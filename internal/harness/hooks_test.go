package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const markerHook = `package main

import (
	"os"
	"path/filepath"
)

func Run(hctx map[string]any) error {
	dir := hctx["data_dir"].(string)
	return os.WriteFile(filepath.Join(dir, "hook_ran.txt"), []byte("ok"), 0o644)
}
`

func TestLoadHook_MissingFileIsNotAnError(t *testing.T) {
	hook, err := LoadHook(filepath.Join(t.TempDir(), HookSetUp))
	require.NoError(t, err)
	assert.Nil(t, hook)
}

func TestLoadHook_RunsScript(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, HookSetUp)
	require.NoError(t, os.WriteFile(path, []byte(markerHook), 0o644))

	hook, err := LoadHook(path)
	require.NoError(t, err)
	require.NotNil(t, hook)

	dataDir := t.TempDir()
	require.NoError(t, hook(map[string]any{"data_dir": dataDir}))
	assert.FileExists(t, filepath.Join(dataDir, "hook_ran.txt"))
}

func TestLoadHook_MissingEntryPointIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), HookSetUp)
	require.NoError(t, os.WriteFile(path,
		[]byte("package main\n\nfunc Helper() {}\n"), 0o644))

	_, err := LoadHook(path)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "entry point")
}

func TestLoadHook_WrongSignatureIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), HookSetUp)
	require.NoError(t, os.WriteFile(path,
		[]byte("package main\n\nfunc Run() {}\n"), 0o644))

	_, err := LoadHook(path)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestLoadHook_BrokenScriptIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), HookSetUp)
	require.NoError(t, os.WriteFile(path,
		[]byte("package main\n\nfunc Run(hctx map[string]any) error { return undefined }\n"), 0o644))

	_, err := LoadHook(path)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}
