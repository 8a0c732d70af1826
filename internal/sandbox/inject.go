package sandbox

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/pipetest/internal/config"
)

// DestinationMode selects where injected artifacts are staged, mirroring
// how the execution platform hands artifacts from a prior run to the next.
type DestinationMode string

const (
	DestinationRuns   DestinationMode = "runs"
	DestinationCustom DestinationMode = "custom"
)

// ApplyConfigTemplate resolves {{env.NAME}} tokens in the working config in
// place. The templated file is what the component reads. A sandbox without
// a config document is left as is.
func (s *Sandbox) ApplyConfigTemplate() error {
	if _, err := os.Stat(s.ConfigPath()); err == nil {
		if err := config.ResolveEnvTokens(s.ConfigPath()); err != nil {
			return err
		}
	}
	return s.Advance(PhaseConfigured)
}

// InjectInputState writes the state document the component reads, always
// overwriting whatever the fixture shipped. A nil override writes an empty
// document so the component sees a consistent file either way.
func (s *Sandbox) InjectInputState(override map[string]any) error {
	if override == nil {
		override = map[string]any{}
	}
	path := filepath.Join(s.DataDir(), "in", "state.json")
	if err := config.SaveDocument(path, override); err != nil {
		return fmt.Errorf("inject input state: %w", err)
	}
	return s.Advance(PhaseStateInjected)
}

// InjectInputArtifacts replaces the sandbox's input-artifact directory with
// the given source wholesale, then relocates a current/ subfolder under
// runs/<jobID> or custom/<jobID> depending on mode. An empty source path
// means no artifacts to inject.
func (s *Sandbox) InjectInputArtifacts(source string, mode DestinationMode, jobID string) error {
	if source == "" {
		return nil
	}
	inDir := filepath.Join(s.DataDir(), "artifacts", "in")
	if err := os.RemoveAll(inDir); err != nil {
		return fmt.Errorf("inject input artifacts: %w", err)
	}
	if err := copyTree(source, inDir); err != nil {
		return fmt.Errorf("inject input artifacts: %w", err)
	}

	current := filepath.Join(inDir, "current")
	if _, err := os.Stat(current); err != nil {
		return nil
	}
	dest := filepath.Join(inDir, string(mode), jobID)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("stage input artifacts: %w", err)
	}
	if err := os.Rename(current, dest); err != nil {
		return fmt.Errorf("stage input artifacts: %w", err)
	}
	return nil
}
