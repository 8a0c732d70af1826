package cassette

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/pipetest/internal/config"
	"github.com/roach88/pipetest/internal/sanitize"
)

// Freeze-time requests understood by the coordinator.
const (
	// FreezeAuto resolves the freeze time from cassette metadata on replay.
	FreezeAuto = "auto"
	// FreezeDisabled disables clock freezing entirely.
	FreezeDisabled = ""
	// DefaultFreezeTime is used when auto resolution finds no metadata.
	DefaultFreezeTime = "2025-01-01T12:00:00"
)

// RunFunc executes the component under the recording boundary.
type RunFunc func(ctx context.Context) error

// Interceptor is the external record/replay mechanism. It intercepts
// wire-level interactions during run, passing each through the sanitizer
// before persisting (record) or matching requests against the cassette
// (replay). This package only decides when to invoke it.
type Interceptor interface {
	Record(ctx context.Context, cassettePath string, s sanitize.Sanitizer, run RunFunc) error
	Replay(ctx context.Context, cassettePath string, s sanitize.Sanitizer, run RunFunc) error
}

// Freezer pins the process clock to a fixed instant for the duration of
// run. The actual freeze facility is an external collaborator; this
// package only supplies the target timestamp.
type Freezer interface {
	WithFrozen(at time.Time, run func() error) error
}

// NopFreezer runs without touching the clock.
type NopFreezer struct{}

// WithFrozen runs fn immediately, ignoring the timestamp.
func (NopFreezer) WithFrozen(_ time.Time, run func() error) error { return run() }

// NopInterceptor runs the component without capturing or serving any wire
// traffic. It stands in until a real interception backend is wired up;
// replay serves nothing, and record leaves no cassette behind.
type NopInterceptor struct{}

func (NopInterceptor) Record(ctx context.Context, _ string, _ sanitize.Sanitizer, run RunFunc) error {
	return run(ctx)
}

func (NopInterceptor) Replay(ctx context.Context, _ string, _ sanitize.Sanitizer, run RunFunc) error {
	return run(ctx)
}

// Recorder coordinates recording and replaying for one test's data dir.
type Recorder struct {
	cassetteDir  string
	cassettePath string
	configPath   string
	secrets      map[string]any
	pipeline     sanitize.Sanitizer
	freezeAt     string
	interceptor  Interceptor
	freezer      Freezer
	logger       *slog.Logger

	// replaying disables response re-sanitization while a replay is in
	// flight; cassette content is trusted as already sanitized.
	replaying bool
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithSanitizer replaces the default secrets-derived pipeline.
func WithSanitizer(s sanitize.Sanitizer) Option {
	return func(r *Recorder) { r.pipeline = s }
}

// WithFreezeTime sets the freeze-time request: an explicit timestamp,
// FreezeAuto, or FreezeDisabled.
func WithFreezeTime(at string) Option {
	return func(r *Recorder) { r.freezeAt = at }
}

// WithInterceptor sets the external interception collaborator.
func WithInterceptor(i Interceptor) Option {
	return func(r *Recorder) { r.interceptor = i }
}

// WithFreezer sets the external clock-freeze collaborator.
func WithFreezer(f Freezer) Option {
	return func(r *Recorder) { r.freezer = f }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Recorder) { r.logger = l }
}

// WithCassetteDir overrides the cassette location. Pointing it at the
// fixture instead of the sandbox keeps recorded cassettes alive past
// sandbox teardown.
func WithCassetteDir(dir string) Option {
	return func(r *Recorder) {
		r.cassetteDir = dir
		r.cassettePath = filepath.Join(dir, FileName)
	}
}

// NewRecorder creates a coordinator for the given data dir. The cassette
// lives at <dataDir>/cassettes/requests.json; secrets (may be nil) seed
// the default sanitization pipeline and the record-time config merge.
func NewRecorder(dataDir string, secrets map[string]any, opts ...Option) *Recorder {
	r := &Recorder{
		cassetteDir:  filepath.Join(dataDir, DirName),
		cassettePath: filepath.Join(dataDir, DirName, FileName),
		configPath:   filepath.Join(dataDir, "config.json"),
		secrets:      secrets,
		freezeAt:     FreezeAuto,
		freezer:      NopFreezer{},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pipeline == nil {
		r.pipeline = sanitize.NewDefault(secrets)
	}
	return r
}

// CassettePath returns the cassette file location.
func (r *Recorder) CassettePath() string { return r.cassettePath }

// HasCassette reports whether a cassette exists for replay.
func (r *Recorder) HasCassette() bool {
	_, err := os.Stat(r.cassettePath)
	return err == nil
}

// Replaying reports whether a replay is currently in flight.
func (r *Recorder) Replaying() bool { return r.replaying }

// Run executes the component according to the requested mode. Passthrough
// runs the component unwrapped with a warning; this keeps suites runnable
// in environments without credentials or cassettes.
func (r *Recorder) Run(ctx context.Context, mode Mode, run RunFunc) error {
	decision, err := DecideMode(mode, r.HasCassette(), len(r.secrets) > 0)
	if err != nil {
		var missing *CassetteMissingError
		if errors.As(err, &missing) {
			missing.Path = r.cassettePath
		}
		return err
	}

	switch decision {
	case DecisionRecord:
		return r.Record(ctx, run)
	case DecisionReplay:
		return r.Replay(ctx, run)
	default:
		r.logger.Warn("no cassette and no secrets, running without interception",
			"cassette", r.cassettePath)
		return run(ctx)
	}
}

// Record runs the component with every outbound interaction passed through
// the sanitization pipeline before it is written, then stamps the cassette
// with fresh metadata. Secrets are merged into the working config first,
// in memory semantics: the sandbox copy is rewritten, never the fixture.
func (r *Recorder) Record(ctx context.Context, run RunFunc) error {
	if r.interceptor == nil {
		return fmt.Errorf("record requested but no interceptor is configured")
	}
	if err := os.MkdirAll(r.cassetteDir, 0o755); err != nil {
		return fmt.Errorf("create cassette directory: %w", err)
	}
	if err := r.MergeSecretsIntoConfig(); err != nil {
		return err
	}

	r.logger.Info("recording interactions", "cassette", r.cassettePath)

	err := r.withFreeze(r.recordFreezeTime(), func() error {
		return r.interceptor.Record(ctx, r.cassettePath, phaseSanitizer{r}, run)
	})
	if err != nil {
		return err
	}

	r.stampMetadata()
	return nil
}

// Replay fails fast without a cassette, resolves the freeze time, and runs
// the component against the recorded interactions. The replaying flag is
// held for the duration and always cleared, even on failure.
func (r *Recorder) Replay(ctx context.Context, run RunFunc) error {
	if r.interceptor == nil {
		return fmt.Errorf("replay requested but no interceptor is configured")
	}
	if !r.HasCassette() {
		return &CassetteMissingError{Path: r.cassettePath}
	}

	r.logger.Info("replaying interactions", "cassette", r.cassettePath)

	r.replaying = true
	defer func() { r.replaying = false }()

	return r.withFreeze(r.ResolveFreezeTime(), func() error {
		return r.interceptor.Replay(ctx, r.cassettePath, phaseSanitizer{r}, run)
	})
}

// ResolveFreezeTime resolves the effective freeze timestamp for replay.
// Explicit requests (a timestamp or disabled) are used verbatim; auto reads
// the cassette's recorded_at so response date fields stay consistent with
// the frozen clock, falling back to DefaultFreezeTime with a warning when
// the cassette carries no metadata.
func (r *Recorder) ResolveFreezeTime() string {
	if r.freezeAt != FreezeAuto {
		return r.freezeAt
	}
	meta := LoadMetadata(r.cassettePath)
	if meta == nil || meta.RecordedAt == "" {
		r.logger.Warn("no metadata in cassette, using default freeze time",
			"default", DefaultFreezeTime)
		return DefaultFreezeTime
	}
	r.logger.Info("resolved freeze time from cassette metadata", "freeze_time", meta.RecordedAt)
	return meta.RecordedAt
}

// recordFreezeTime returns the freeze request for the recording phase.
// Auto means no freezing while recording, since no metadata exists yet.
func (r *Recorder) recordFreezeTime() string {
	if r.freezeAt == FreezeAuto {
		return FreezeDisabled
	}
	return r.freezeAt
}

func (r *Recorder) withFreeze(at string, run func() error) error {
	if at == FreezeDisabled {
		return run()
	}
	instant, err := ParseFreezeTime(at)
	if err != nil {
		return fmt.Errorf("invalid freeze time %q: %w", at, err)
	}
	return r.freezer.WithFrozen(instant, run)
}

// MergeSecretsIntoConfig deep-merges the secrets document into the working
// config. The merge is pure; the on-disk rewrite targets the ephemeral
// sandbox copy only. No secrets means nothing to do.
func (r *Recorder) MergeSecretsIntoConfig() error {
	if len(r.secrets) == 0 {
		return nil
	}
	doc, err := config.LoadDocument(r.configPath)
	if err != nil {
		return fmt.Errorf("load working config: %w", err)
	}
	merged, err := config.Merge(doc, r.secrets)
	if err != nil {
		return err
	}
	return config.SaveDocument(r.configPath, merged)
}

// stampMetadata rewrites the cassette with fresh metadata after recording.
// Best-effort: a run that recorded no interactions leaves no cassette and
// nothing to stamp.
func (r *Recorder) stampMetadata() {
	c, err := Load(r.cassettePath)
	if err != nil {
		r.logger.Warn("cassette not stamped", "error", err)
		return
	}
	c.Metadata = &Metadata{
		RecordedAt:  time.Now().UTC().Format(time.RFC3339),
		FreezeTime:  r.freezeAt,
		ToolVersion: ToolVersion,
	}
	if err := Save(c, r.cassettePath); err != nil {
		r.logger.Warn("cassette not stamped", "error", err)
	}
}

// ParseFreezeTime parses the timestamp formats accepted in freeze requests
// and cassette metadata.
func ParseFreezeTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format")
}

// phaseSanitizer applies the pipeline with awareness of the replay phase:
// requests are always sanitized (replay matching depends on it), responses
// only at record time.
type phaseSanitizer struct {
	r *Recorder
}

func (p phaseSanitizer) BeforeRecordRequest(req sanitize.Request) sanitize.Request {
	return p.r.pipeline.BeforeRecordRequest(req)
}

func (p phaseSanitizer) BeforeRecordResponse(resp sanitize.Response) sanitize.Response {
	if p.r.replaying {
		return resp
	}
	return p.r.pipeline.BeforeRecordResponse(resp)
}
