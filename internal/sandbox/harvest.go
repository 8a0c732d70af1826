package sandbox

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// HarvestResultState reads the state document the component wrote. A
// missing or unreadable file yields an empty document; this never fails so
// harvesting can run best-effort on the failure path too.
func (s *Sandbox) HarvestResultState() map[string]any {
	path := filepath.Join(s.OutDir(), "state.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("result state is not valid JSON, treating as empty", "path", path, "error", err)
		return map[string]any{}
	}
	return doc
}

// HarvestArtifacts copies a non-empty output-artifact directory to a
// durable temporary location that survives sandbox teardown and returns its
// path. An empty or absent directory returns "".
func (s *Sandbox) HarvestArtifacts() (string, error) {
	outDir := filepath.Join(s.DataDir(), "artifacts", "out")
	empty, err := dirEmpty(outDir)
	if err != nil {
		return "", fmt.Errorf("harvest artifacts: %w", err)
	}
	if empty {
		return "", nil
	}
	dest := filepath.Join(os.TempDir(), "pipetest-artifacts-"+uuid.NewString())
	if err := copyTree(outDir, dest); err != nil {
		return "", fmt.Errorf("harvest artifacts: %w", err)
	}
	return dest, nil
}
