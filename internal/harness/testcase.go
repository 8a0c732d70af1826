package harness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/roach88/pipetest/internal/cassette"
	"github.com/roach88/pipetest/internal/config"
	"github.com/roach88/pipetest/internal/manifest"
	"github.com/roach88/pipetest/internal/sandbox"
	"github.com/roach88/pipetest/internal/sanitize"
	"github.com/roach88/pipetest/internal/snapshot"
)

// Options configures test execution. One Options value is shared by every
// test of a suite run.
type Options struct {
	// Runner executes the component under test.
	Runner Runner
	// Mode overrides the per-fixture recording mode when non-empty.
	Mode cassette.Mode
	// SecretsPath locates the secrets document; empty disables secrets.
	SecretsPath string
	// JobID names artifact staging destinations; one id per suite run.
	JobID string
	// SaveOutputDir, when set, receives a copy of each executed sandbox
	// data dir for inspection. Best-effort.
	SaveOutputDir string
	// Verbose enables unified-diff rendering in verification output.
	Verbose bool

	// Interceptor and Freezer are the external record/replay collaborators.
	Interceptor cassette.Interceptor
	Freezer     cassette.Freezer

	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestCase is one fixture scheduled for execution. Identity is the
// basename of the fixture directory.
type TestCase struct {
	Name       string
	FixtureDir string

	// StateOverride and ArtifactOverride thread a previous chain link's
	// harvest into this test. Nil/empty for standalone tests and first links.
	StateOverride    map[string]any
	ArtifactOverride string

	// ResultState and ArtifactPath are populated after execution for the
	// next chain link.
	ResultState  map[string]any
	ArtifactPath string
}

// NewTestCase builds a test case for a fixture directory.
func NewTestCase(fixtureDir string) *TestCase {
	return &TestCase{
		Name:       filepath.Base(fixtureDir),
		FixtureDir: fixtureDir,
	}
}

// Execute runs the full lifecycle: materialize, hooks, configure, inject,
// run, harvest, verify, teardown. Harvest runs best-effort even on the
// failure path, and teardown runs unconditionally.
func (t *TestCase) Execute(ctx context.Context, opts *Options) (result *snapshot.ValidationResult, err error) {
	log := opts.logger().With("test", t.Name)

	m, err := manifest.Load(t.FixtureDir)
	if err != nil {
		return nil, &ConfigError{Test: t.Name, Msg: "load manifest", Err: err}
	}

	sb, err := sandbox.Materialize(t.FixtureDir, sandbox.WithLogger(log))
	if err != nil {
		var missing *sandbox.FixtureMissingError
		if errors.As(err, &missing) {
			return nil, &ConfigError{Test: t.Name, Err: err}
		}
		return nil, &InfraError{Test: t.Name, Err: err}
	}
	defer func() {
		t.saveOutput(sb, opts, log)
		sb.Teardown()
	}()

	hctx := map[string]any{
		"data_dir":    sb.DataDir(),
		"fixture_dir": t.FixtureDir,
		"state":       t.StateOverride,
	}
	if err := runHook(sb.WorkDir(), HookSetUp, hctx); err != nil {
		return nil, t.classify(err)
	}
	defer func() {
		if hookErr := runHook(sb.WorkDir(), HookTearDown, hctx); hookErr != nil {
			if err == nil {
				err = t.classify(hookErr)
			} else {
				log.Warn("tear_down hook failed after earlier error", "error", hookErr)
			}
		}
	}()

	if err := sb.ApplyConfigTemplate(); err != nil {
		return nil, t.classify(err)
	}
	if err := sb.InjectInputState(t.StateOverride); err != nil {
		return nil, &InfraError{Test: t.Name, Err: err}
	}
	dest := sandbox.DestinationMode(m.Artifacts.Destination)
	if err := sb.InjectInputArtifacts(t.ArtifactOverride, dest, opts.JobID); err != nil {
		return nil, &InfraError{Test: t.Name, Err: err}
	}

	var secrets map[string]any
	if opts.SecretsPath != "" {
		secrets, err = config.LoadSecrets(opts.SecretsPath)
		if err != nil {
			return nil, &InfraError{Test: t.Name, Err: err}
		}
	}

	mode := cassette.Mode(m.Mode)
	if opts.Mode != "" {
		mode = opts.Mode
	}
	recorder := cassette.NewRecorder(sb.DataDir(), secrets,
		cassette.WithCassetteDir(filepath.Join(t.FixtureDir, "source", cassette.DirName)),
		cassette.WithFreezeTime(m.FreezeTime),
		cassette.WithSanitizer(buildSanitizer(secrets, m)),
		cassette.WithInterceptor(opts.Interceptor),
		cassette.WithFreezer(opts.Freezer),
		cassette.WithLogger(log),
	)

	if err := sb.Advance(sandbox.PhaseRunning); err != nil {
		return nil, &InfraError{Test: t.Name, Err: err}
	}
	runErr := recorder.Run(ctx, mode, func(ctx context.Context) error {
		return opts.Runner.Run(ctx, sb.DataDir())
	})

	// harvest before classifying: the next link's inputs and the saved
	// output are worth keeping even when the run failed
	_ = sb.Advance(sandbox.PhaseHarvested)
	t.ResultState = sb.HarvestResultState()
	if artifacts, harvestErr := sb.HarvestArtifacts(); harvestErr == nil {
		t.ArtifactPath = artifacts
	} else {
		log.Warn("artifact harvest failed", "error", harvestErr)
	}

	if runErr != nil {
		return nil, t.classify(runErr)
	}

	if err := runHook(sb.WorkDir(), HookPostRun, hctx); err != nil {
		return nil, t.classify(err)
	}

	verifier := &Verifier{IgnorePatterns: ignorePatterns(m), Verbose: opts.Verbose}
	result, err = verifier.Verify(sb.ExpectedDir(), sb.OutDir())
	if err != nil {
		return nil, &InfraError{Test: t.Name, Err: err}
	}
	if !result.Success {
		_ = sb.Advance(sandbox.PhaseFailed)
		return result, &VerificationError{Test: t.Name, Result: result}
	}
	_ = sb.Advance(sandbox.PhaseVerified)
	log.Info("test passed")
	return result, nil
}

// classify maps an error into the failure taxonomy, attributing it to this
// test. Errors already classified pass through with the test name filled.
func (t *TestCase) classify(err error) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		if ce.Test == "" {
			ce.Test = t.Name
		}
		return err
	}
	var ie *InfraError
	if errors.As(err, &ie) {
		if ie.Test == "" {
			ie.Test = t.Name
		}
		return err
	}
	var missingEnv *config.MissingEnvVarError
	if errors.As(err, &missingEnv) {
		return &ConfigError{Test: t.Name, Err: err}
	}
	var missingCassette *cassette.CassetteMissingError
	if errors.As(err, &missingCassette) {
		return &InfraError{Test: t.Name, Err: err}
	}
	var secretsErr *config.SecretsLoadError
	if errors.As(err, &secretsErr) {
		return &InfraError{Test: t.Name, Err: err}
	}
	return err
}

func (t *TestCase) saveOutput(sb *sandbox.Sandbox, opts *Options, log *slog.Logger) {
	if opts.SaveOutputDir == "" {
		return
	}
	dest := filepath.Join(opts.SaveOutputDir, t.Name)
	if err := sb.SaveData(dest); err != nil {
		log.Warn("saving executed sandbox failed", "dest", dest, "error", err)
	}
}

func buildSanitizer(secrets map[string]any, m *manifest.Manifest) sanitize.Sanitizer {
	s := m.Sanitize
	hasURLCleaner := len(s.URLDomains) > 0 && len(s.URLParams) > 0
	if len(s.Fields) == 0 && len(s.QueryParams) == 0 && len(s.SafeHeaders) == 0 && !hasURLCleaner {
		return sanitize.NewDefault(secrets)
	}
	fields := append(append([]string{}, sanitize.DefaultSensitiveFields...), s.Fields...)
	params := append(append([]string{}, sanitize.DefaultQueryParams...), s.QueryParams...)
	headers := append(append([]string{}, sanitize.DefaultSafeHeaders...), s.SafeHeaders...)
	stages := []sanitize.Sanitizer{
		sanitize.NewFieldRedactor(fields),
		sanitize.NewValueRedactor(sanitize.ExtractValues(secrets)),
		sanitize.NewQueryParamRedactor(params),
	}
	if hasURLCleaner {
		stages = append(stages, sanitize.NewResponseURLCleaner(s.URLParams, s.URLDomains))
	}
	stages = append(stages, sanitize.NewHeaderAllowlist(headers))
	return sanitize.NewPipeline(stages...)
}

func ignorePatterns(m *manifest.Manifest) []string {
	if len(m.Snapshot.Ignore) == 0 {
		return nil
	}
	return append(append([]string{}, snapshot.DefaultIgnorePatterns...), m.Snapshot.Ignore...)
}

// TestResult is one test's outcome in a suite run.
type TestResult struct {
	Name        string
	Passed      bool
	FailureKind string
	Err         error
	Duration    time.Duration
	Validation  *snapshot.ValidationResult
}
