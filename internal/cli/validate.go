package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool   `json:"valid"`
	Path     string `json:"path"`
	Entities int    `json:"entities"`
	Calls    int    `json:"calls"`
	Objects  int    `json:"objects"`
}

func (r ValidationResult) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ %s is valid (%d entities, %d calls, %d objects)\n",
		r.Path, r.Entities, r.Calls, r.Objects)
	return err
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a file is a well-formed task database",
		Long: `Check a task database file against the database schema.

A valid file is a JSON object with exactly the keys "entities" and "uuids".
Every entity maps to a list of call records, each with an "args" object
holding the positional "__" list, and a "returns" value.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)
	slog.Debug("validating database", "path", path)

	snap, err := readDatabase(formatter, path)
	if err != nil {
		return err
	}

	result := ValidationResult{
		Valid:    true,
		Path:     path,
		Entities: len(snap.Entities),
		Objects:  len(snap.UUIDs),
	}
	for _, entries := range snap.Entities {
		result.Calls += len(entries)
	}

	return formatter.Success(result)
}
