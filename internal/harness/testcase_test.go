package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pipetest/internal/manifest"
	"github.com/roach88/pipetest/internal/sanitize"
)

func TestExecute_SandboxRemovedOnFailure(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(t *testing.T, dir string)
		runner Runner
	}{
		{
			name:   "verification failure",
			runner: counterComponent(nil),
		},
		{
			name: "component error",
			runner: RunnerFunc(func(context.Context, string) error {
				return errors.New("component exploded")
			}),
		},
		{
			name: "broken set_up hook",
			setup: func(t *testing.T, dir string) {
				writeFile(t, filepath.Join(dir, "source", HookSetUp),
					"package main\n\nfunc Run() {}\n")
			},
			runner: counterComponent(nil),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// sandboxes land under os.TempDir; point it at a private
			// directory so leftovers are observable
			tmp := t.TempDir()
			root := t.TempDir()
			dir := makeFixture(t, root, "001-doomed", "value\nnever-matches\n")
			if tc.setup != nil {
				tc.setup(t, dir)
			}
			t.Setenv("TMPDIR", tmp)

			_, err := NewTestCase(dir).Execute(context.Background(), &Options{Runner: tc.runner})
			require.Error(t, err)

			entries, readErr := os.ReadDir(tmp)
			require.NoError(t, readErr)
			for _, e := range entries {
				assert.False(t, strings.HasPrefix(e.Name(), "pipetest-"),
					"sandbox %s must not survive a failed run", e.Name())
			}
		})
	}
}

func TestBuildSanitizer_DefaultsWithoutOverrides(t *testing.T) {
	s := buildSanitizer(nil, manifest.Default())

	req := s.BeforeRecordRequest(sanitize.Request{
		Method: "POST",
		URL:    "https://api.example.com/jobs",
		Body:   `{"token":"tok-123","name":"job"}`,
	})

	assert.NotContains(t, req.Body, "tok-123")
	assert.Contains(t, req.Body, sanitize.Placeholder)
}

func TestBuildSanitizer_ManifestExtendsFieldSet(t *testing.T) {
	m := manifest.Default()
	m.Sanitize.Fields = []string{"tenant_key"}

	s := buildSanitizer(nil, m)
	req := s.BeforeRecordRequest(sanitize.Request{
		Body: `{"tenant_key":"abc","password":"hunter2"}`,
	})

	assert.NotContains(t, req.Body, "abc", "manifest field joins the default set")
	assert.NotContains(t, req.Body, "hunter2", "default fields stay active")
}

func TestBuildSanitizer_URLCleanerFromManifest(t *testing.T) {
	m := manifest.Default()
	m.Sanitize.URLDomains = []string{"cdn.example.com"}
	m.Sanitize.URLParams = []string{"sig"}

	s := buildSanitizer(nil, m)
	resp := s.BeforeRecordResponse(sanitize.Response{
		Body: `{"url":"https://cdn.example.com/a.png?sig=ephemeral&v=2"}`,
	})

	assert.NotContains(t, resp.Body, "sig=ephemeral")
	assert.Contains(t, resp.Body, "v=2")
}
