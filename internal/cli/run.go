package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pipetest/internal/cassette"
	"github.com/roach88/pipetest/internal/harness"
	"github.com/roach88/pipetest/internal/store"
)

type suiteFlags struct {
	mode       string
	secrets    string
	tests      []string
	saveOutput string
	historyDB  string
}

func (f *suiteFlags) register(cmd *cobra.Command, includeMode bool) {
	if includeMode {
		cmd.Flags().StringVar(&f.mode, "mode", "", "recording mode override (record|replay|auto)")
	}
	cmd.Flags().StringVar(&f.secrets, "secrets", "", "path to the secrets document")
	cmd.Flags().StringArrayVar(&f.tests, "test", nil, "run only the named test (repeatable)")
	cmd.Flags().StringVar(&f.saveOutput, "save-output", "", "copy each executed sandbox data dir into this directory")
	cmd.Flags().StringVar(&f.historyDB, "history", "", "append results to this run-history database")
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &suiteFlags{}
	cmd := &cobra.Command{
		Use:   "run <suite-dir> <component> [component-args...]",
		Short: "Run a functional test suite against a component",
		Long: `Run every fixture and chain under suite-dir. The component command is
invoked once per test with ` + harness.EnvDataDir + ` pointing at the test's
sandbox data directory.`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(rootOpts, flags, args[0], args[1], args[2:], cmd)
		},
	}
	flags.register(cmd, true)
	return cmd
}

// NewRecordCommand creates the record command: a run with the recording
// mode forced to record, for refreshing cassettes with live credentials.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &suiteFlags{mode: string(cassette.ModeRecord)}
	cmd := &cobra.Command{
		Use:           "record <suite-dir> <component> [component-args...]",
		Short:         "Re-record cassettes by running the suite against live services",
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuite(rootOpts, flags, args[0], args[1], args[2:], cmd)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func runSuite(rootOpts *RootOptions, flags *suiteFlags, suiteDir, component string, componentArgs []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	level := slog.LevelWarn
	if rootOpts.Verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	suite, err := harness.DiscoverSuite(suiteDir, flags.tests)
	if err != nil {
		_ = formatter.Failure("config", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	formatter.VerboseLog("discovered %d standalone test(s), %d chain(s) under %s",
		len(suite.Standalone), len(suite.Chains), suiteDir)

	opts := &harness.Options{
		Runner: &harness.ExecRunner{
			Command: component,
			Args:    componentArgs,
			Stdout:  cmd.ErrOrStderr(),
			Stderr:  cmd.ErrOrStderr(),
		},
		Mode:          cassette.Mode(flags.mode),
		SecretsPath:   flags.secrets,
		SaveOutputDir: flags.saveOutput,
		Verbose:       rootOpts.Verbose,
		Interceptor:   cassette.NopInterceptor{},
		Freezer:       cassette.NopFreezer{},
		Logger:        logger,
	}

	startedAt := time.Now().UTC()
	result := suite.Run(cmd.Context(), opts)

	if flags.historyDB != "" {
		recordHistory(cmd.Context(), flags.historyDB, startedAt, result, logger)
	}
	return renderSuiteResult(formatter, result, rootOpts.Verbose)
}

// recordHistory appends the run to the history database. Best-effort: a
// broken history file must not turn a green suite red.
func recordHistory(ctx context.Context, dbPath string, startedAt time.Time, result *harness.SuiteResult, logger *slog.Logger) {
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Warn("run history not recorded", "error", err)
		return
	}
	defer st.Close()

	results := make([]store.Result, 0, len(result.Results))
	for _, r := range result.Results {
		res := store.Result{
			RunID:       result.JobID,
			Name:        r.Name,
			Passed:      r.Passed,
			FailureKind: r.FailureKind,
			Duration:    r.Duration,
		}
		if r.Err != nil {
			res.Message = r.Err.Error()
		}
		results = append(results, res)
	}
	run := store.Run{
		ID:        result.JobID,
		StartedAt: startedAt,
		Duration:  result.Duration,
		Passed:    result.Passed(),
	}
	if err := st.RecordSuite(ctx, run, results); err != nil {
		logger.Warn("run history not recorded", "error", err)
	}
}

// suiteReport is the JSON payload for run/record output.
type suiteReport struct {
	JobID   string       `json:"job_id"`
	Passed  bool         `json:"passed"`
	Results []testReport `json:"results"`
}

type testReport struct {
	Name        string `json:"name"`
	Passed      bool   `json:"passed"`
	FailureKind string `json:"failure_kind,omitempty"`
	Message     string `json:"message,omitempty"`
	DurationMS  int64  `json:"duration_ms"`
}

func renderSuiteResult(formatter *OutputFormatter, result *harness.SuiteResult, verbose bool) error {
	report := suiteReport{JobID: result.JobID, Passed: result.Passed()}
	for _, r := range result.Results {
		tr := testReport{
			Name:        r.Name,
			Passed:      r.Passed,
			FailureKind: r.FailureKind,
			DurationMS:  r.Duration.Milliseconds(),
		}
		if r.Err != nil {
			tr.Message = r.Err.Error()
		}
		report.Results = append(report.Results, tr)
	}

	if formatter.Format == "json" {
		if report.Passed {
			return formatter.Success(report)
		}
		failures := len(result.Failures())
		_ = formatter.Failure(worstFailureKind(result), fmt.Sprintf("%d test(s) failed", failures), report)
		return exitForResult(result)
	}

	for _, r := range result.Results {
		if r.Passed {
			fmt.Fprintf(formatter.Writer, "PASS %s (%.1fs)\n", r.Name, r.Duration.Seconds())
			continue
		}
		fmt.Fprintf(formatter.Writer, "FAIL %s: %v\n", r.Name, r.Err)
		if r.Validation != nil && !r.Validation.Success {
			fmt.Fprintln(formatter.Writer, indent(r.Validation.Format(verbose), "  "))
		}
	}
	if report.Passed {
		fmt.Fprintf(formatter.Writer, "ok: %d test(s) passed\n", len(result.Results))
		return nil
	}
	fmt.Fprintf(formatter.Writer, "%d of %d test(s) failed\n", len(result.Failures()), len(result.Results))
	return exitForResult(result)
}

// exitForResult distinguishes "the component behaved differently" (exit 1)
// from "the environment is misconfigured" (exit 2).
func exitForResult(result *harness.SuiteResult) error {
	code := ExitFailure
	for _, r := range result.Failures() {
		if r.FailureKind != "verification" {
			code = ExitCommandError
			break
		}
	}
	return NewExitError(code, fmt.Sprintf("%d test(s) failed", len(result.Failures())))
}

func worstFailureKind(result *harness.SuiteResult) string {
	kind := "verification"
	for _, r := range result.Failures() {
		if r.FailureKind != "verification" {
			kind = r.FailureKind
		}
	}
	return kind
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
