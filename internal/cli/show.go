package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/acorn/internal/store"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	Dir     string
	Project string
	Task    string
}

// EntitySummary is the number of calls recorded under one entity key.
type EntitySummary struct {
	Entity string `json:"entity"`
	Calls  int    `json:"calls"`
}

// ShowResult is the JSON payload of the show command.
type ShowResult struct {
	Project  string          `json:"project"`
	Task     string          `json:"task"`
	Path     string          `json:"path"`
	Entities []EntitySummary `json:"entities"`
	Objects  int             `json:"objects"`
}

func (r ShowResult) writeText(w io.Writer) error {
	fmt.Fprintf(w, "%s.%s\n", r.Project, r.Task)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range r.Entities {
		fmt.Fprintf(tw, "  %s\t%d\n", e.Entity, e.Calls)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d entities, %d objects\n", len(r.Entities), r.Objects)
	return err
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "show",
		Short:         "Summarize a task database",
		Long:          `List the entity keys of a task database with their call counts, and the number of described objects.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "storage directory (default: database.folder setting)")
	cmd.Flags().StringVar(&opts.Project, "project", store.DefaultProject, "project name")
	cmd.Flags().StringVar(&opts.Task, "task", store.DefaultTask, "task name")

	return cmd
}

func runShow(opts *ShowOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	for _, name := range []string{opts.Project, opts.Task} {
		if err := store.ValidateName(name); err != nil {
			return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err.Error())
		}
	}
	dir, err := opts.storageDir(formatter, opts.Dir)
	if err != nil {
		return err
	}
	path := store.PathFor(dir, opts.Project, opts.Task)
	slog.Debug("reading database", "path", path)

	snap, err := readDatabase(formatter, path)
	if err != nil {
		return err
	}

	result := ShowResult{
		Project:  opts.Project,
		Task:     opts.Task,
		Path:     path,
		Entities: []EntitySummary{},
		Objects:  len(snap.UUIDs),
	}
	for _, key := range snap.Keys() {
		result.Entities = append(result.Entities, EntitySummary{Entity: key, Calls: len(snap.Entities[key])})
	}

	return formatter.Success(result)
}

// readDatabase reads a database file, reporting missing and malformed
// files through the formatter.
func readDatabase(f *OutputFormatter, path string) (*store.Snapshot, error) {
	snap, err := store.ReadFile(path)
	switch {
	case err == nil:
		return snap, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, fail(f, ExitCommandError, ErrCodeNotFound, fmt.Sprintf("database not found: %s", path))
	case errors.Is(err, store.ErrInvalidFormat):
		return nil, fail(f, ExitFailure, ErrCodeInvalidFormat, err.Error())
	default:
		return nil, fail(f, ExitCommandError, ErrCodeGeneric, err.Error())
	}
}
