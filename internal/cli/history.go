package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/pipetest/internal/store"
)

// NewHistoryCommand creates the history command for inspecting past runs.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		dbPath   string
		testName string
		limit    int
	)
	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Show recorded suite runs and per-test outcomes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, dbPath, testName, limit, cmd)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "pipetest-history.db", "run-history database path")
	cmd.Flags().StringVar(&testName, "test", "", "show one test's outcomes across runs")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

func runHistory(rootOpts *RootOptions, dbPath, testName string, limit int, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	st, err := store.Open(dbPath)
	if err != nil {
		_ = formatter.Failure("infrastructure", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	defer st.Close()

	if testName != "" {
		results, err := st.HistoryForTest(cmd.Context(), testName, limit)
		if err != nil {
			_ = formatter.Failure("infrastructure", err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		if formatter.Format == "json" {
			return formatter.Success(results)
		}
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL(" + r.FailureKind + ")"
			}
			fmt.Fprintf(formatter.Writer, "%s  run=%s  %s\n", status, r.RunID, r.Message)
		}
		return nil
	}

	runs, err := st.RecentRuns(cmd.Context(), limit)
	if err != nil {
		_ = formatter.Failure("infrastructure", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}
	for _, r := range runs {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(formatter.Writer, "%s  %s  %s  (%.1fs)\n",
			status, r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.Duration.Seconds())
	}
	return nil
}
