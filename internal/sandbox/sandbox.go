package sandbox

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Phase is a stage in the per-test sandbox lifecycle.
type Phase string

const (
	PhaseCreated       Phase = "CREATED"
	PhaseSandboxed     Phase = "SANDBOXED"
	PhaseConfigured    Phase = "CONFIGURED"
	PhaseStateInjected Phase = "STATE_INJECTED"
	PhaseRunning       Phase = "RUNNING"
	PhaseHarvested     Phase = "HARVESTED"
	PhaseVerified      Phase = "VERIFIED"
	PhaseFailed        Phase = "FAILED"
	PhaseTornDown      Phase = "TORN_DOWN"
)

// transitions holds the legal forward edges. Every phase after CREATED may
// also jump straight to TORN_DOWN, which Teardown handles unconditionally.
var transitions = map[Phase][]Phase{
	PhaseCreated:       {PhaseSandboxed},
	PhaseSandboxed:     {PhaseConfigured},
	PhaseConfigured:    {PhaseStateInjected},
	PhaseStateInjected: {PhaseRunning},
	PhaseRunning:       {PhaseHarvested},
	PhaseHarvested:     {PhaseVerified, PhaseFailed},
}

// FixtureMissingError reports a materialize request against a fixture
// directory that does not exist or lacks a source tree.
type FixtureMissingError struct {
	Path string
}

func (e *FixtureMissingError) Error() string {
	return fmt.Sprintf("fixture not found at %s", e.Path)
}

// Sandbox is one test's isolated working copy of a fixture's source tree.
type Sandbox struct {
	fixtureDir string
	workDir    string
	phase      Phase
	logger     *slog.Logger
}

// Option configures materialization.
type Option func(*Sandbox)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sandbox) { s.logger = l }
}

// Materialize deep-copies the fixture's source tree into a fresh,
// uniquely named temporary directory and guarantees the directory shape the
// component contract promises (in/, out/tables/, out/files/). The fixture's
// expected output trees are also created if git dropped them as empty.
func Materialize(fixtureDir string, opts ...Option) (*Sandbox, error) {
	s := &Sandbox{
		fixtureDir: fixtureDir,
		phase:      PhaseCreated,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	sourceDir := filepath.Join(fixtureDir, "source")
	if _, err := os.Stat(sourceDir); err != nil {
		return nil, &FixtureMissingError{Path: fixtureDir}
	}

	workDir := filepath.Join(os.TempDir(), "pipetest-"+uuid.NewString())
	if err := copyTree(sourceDir, workDir); err != nil {
		return nil, fmt.Errorf("materialize sandbox: %w", err)
	}
	s.workDir = workDir

	for _, sub := range []string{
		filepath.Join("data", "in"),
		filepath.Join("data", "out", "tables"),
		filepath.Join("data", "out", "files"),
	} {
		if err := os.MkdirAll(filepath.Join(workDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("materialize sandbox: %w", err)
		}
	}
	// empty expected trees do not survive version control
	for _, sub := range []string{"tables", "files"} {
		dir := filepath.Join(fixtureDir, "expected", "data", "out", sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure expected output tree: %w", err)
		}
	}

	if err := s.Advance(PhaseSandboxed); err != nil {
		return nil, err
	}
	s.logger.Debug("sandbox materialized", "fixture", fixtureDir, "work_dir", workDir)
	return s, nil
}

// Phase returns the current lifecycle phase.
func (s *Sandbox) Phase() Phase { return s.phase }

// WorkDir returns the sandbox root (the copy of the fixture's source tree).
func (s *Sandbox) WorkDir() string { return s.workDir }

// DataDir returns the directory handed to the component.
func (s *Sandbox) DataDir() string { return filepath.Join(s.workDir, "data") }

// ConfigPath returns the working config document location.
func (s *Sandbox) ConfigPath() string { return filepath.Join(s.DataDir(), "config.json") }

// ExpectedDir returns the fixture's golden output directory.
func (s *Sandbox) ExpectedDir() string {
	return filepath.Join(s.fixtureDir, "expected", "data", "out")
}

// OutDir returns the component's output directory inside the sandbox.
func (s *Sandbox) OutDir() string { return filepath.Join(s.DataDir(), "out") }

// Advance moves the sandbox to the next phase, rejecting illegal edges.
func (s *Sandbox) Advance(to Phase) error {
	for _, legal := range transitions[s.phase] {
		if to == legal {
			s.phase = to
			return nil
		}
	}
	return fmt.Errorf("illegal sandbox transition %s -> %s", s.phase, to)
}

// Teardown deletes the sandbox. It is unconditional and idempotent: it runs
// from any phase, never returns an error, and logs deletion failures so one
// test's cleanup problem cannot abort the rest of a suite.
func (s *Sandbox) Teardown() {
	s.phase = PhaseTornDown
	if s.workDir == "" {
		return
	}
	if err := os.RemoveAll(s.workDir); err != nil {
		s.logger.Warn("sandbox teardown failed", "work_dir", s.workDir, "error", err)
		return
	}
	s.logger.Debug("sandbox torn down", "work_dir", s.workDir)
}
