package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/pipetest/internal/snapshot"
)

// NewSnapshotCommand creates the snapshot command. It scaffolds an
// expectation: capture the output tree a component just produced and write
// the snapshot file for committing into the fixture.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "snapshot <output-dir>",
		Short: "Capture a hash snapshot of an executed output directory",
		Long: `Capture the tables/ and files/ trees under output-dir into a snapshot
file. Commit the file into a fixture's expected output directory to enable
hash-based verification.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(rootOpts, args[0], outPath, cmd)
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "snapshot file path (default <output-dir>/"+snapshot.FileName+")")
	return cmd
}

type snapshotReport struct {
	Path   string `json:"path"`
	Tables int    `json:"tables"`
	Files  int    `json:"files"`
}

func runSnapshot(rootOpts *RootOptions, outputDir, outPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    rootOpts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   rootOpts.Verbose,
	}

	capturer := snapshot.NewCapturer(nil)
	snap, err := capturer.Capture(outputDir)
	if err != nil {
		_ = formatter.Failure("infrastructure", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	if outPath == "" {
		outPath = filepath.Join(outputDir, snapshot.FileName)
	}
	if err := snapshot.Save(snap, outPath); err != nil {
		_ = formatter.Failure("infrastructure", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	report := snapshotReport{Path: outPath, Tables: len(snap.Tables), Files: len(snap.Files)}
	if formatter.Format == "json" {
		return formatter.Success(report)
	}
	fmt.Fprintf(formatter.Writer, "wrote %s (%d table(s), %d file(s))\n",
		report.Path, report.Tables, report.Files)
	return nil
}
