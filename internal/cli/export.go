package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/acorn/internal/export"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Out string
}

// ExportResult is the JSON payload of the export command.
type ExportResult struct {
	Source  string `json:"source"`
	Out     string `json:"out"`
	Calls   int    `json:"calls"`
	Objects int    `json:"objects"`
}

func (r ExportResult) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ Exported %d calls and %d objects to %s\n", r.Calls, r.Objects, r.Out)
	return err
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Mirror a task database into SQLite",
		Long: `Write the calls and object descriptions of a task database into a SQLite
file for ad-hoc queries. An existing output file is replaced.`,
		Example:       `  acorn export ~/notebook/proj1.taskA.json --out proj1.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "SQLite output file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(opts *ExportOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	snap, err := readDatabase(formatter, path)
	if err != nil {
		return err
	}

	slog.Debug("exporting database", "source", path, "out", opts.Out)
	if err := export.Write(cmd.Context(), opts.Out, snap); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeWriteFailed, err.Error())
	}

	result := ExportResult{Source: path, Out: opts.Out, Objects: len(snap.UUIDs)}
	for _, entries := range snap.Entities {
		result.Calls += len(entries)
	}

	return formatter.Success(result)
}
