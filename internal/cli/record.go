package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/acorn/internal/ir"
	"github.com/roach88/acorn/internal/session"
	"github.com/roach88/acorn/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Dir     string
	Project string
	Task    string
	Args    string // JSON array of positional arguments
	Kwargs  string // JSON object of named arguments
	Returns string // JSON return value
}

// RecordResult is the JSON payload of a successful record.
type RecordResult struct {
	Entity  string `json:"entity"`
	Project string `json:"project"`
	Task    string `json:"task"`
	Path    string `json:"path"`
	Calls   int    `json:"calls"`
}

func (r RecordResult) writeText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "✓ Recorded %s in %s.%s (%d call(s))\n", r.Entity, r.Project, r.Task, r.Calls)
	return err
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <entity-key>",
		Short: "Append one call to a task database",
		Long: `Append one call record to the database of a project and task.

Arguments and the return value are given as JSON, already rendered the way
the producer wants them stored. Durable identities among them are kept as
plain strings. The database is saved before the command exits.`,
		Example:       `  acorn record mymodule.myfunc --project proj1 --task taskA --args '["hello", 5]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "storage directory (default: database.folder setting)")
	cmd.Flags().StringVar(&opts.Project, "project", store.DefaultProject, "project name")
	cmd.Flags().StringVar(&opts.Task, "task", store.DefaultTask, "task name")
	cmd.Flags().StringVar(&opts.Args, "args", "[]", "positional arguments as a JSON array")
	cmd.Flags().StringVar(&opts.Kwargs, "kwargs", "{}", "named arguments as a JSON object")
	cmd.Flags().StringVar(&opts.Returns, "returns", "null", "return value as JSON")

	return cmd
}

// entry builds the call record from the JSON flags.
func (o *RecordOptions) entry() (ir.Entry, error) {
	positional, err := ir.DecodeValue([]byte(o.Args))
	if err != nil {
		return ir.Entry{}, fmt.Errorf("--args: %w", err)
	}
	arr, ok := positional.(ir.Array)
	if !ok {
		return ir.Entry{}, fmt.Errorf("--args: want JSON array, got %s", ir.Describe(positional))
	}

	named, err := ir.DecodeValue([]byte(o.Kwargs))
	if err != nil {
		return ir.Entry{}, fmt.Errorf("--kwargs: %w", err)
	}
	obj, ok := named.(ir.Object)
	if !ok {
		return ir.Entry{}, fmt.Errorf("--kwargs: want JSON object, got %s", ir.Describe(named))
	}
	if _, ok := obj[ir.PositionalKey]; ok {
		return ir.Entry{}, fmt.Errorf("--kwargs: %q is reserved for positional arguments", ir.PositionalKey)
	}
	if len(obj) == 0 {
		obj = nil
	}

	returns, err := ir.DecodeValue([]byte(o.Returns))
	if err != nil {
		return ir.Entry{}, fmt.Errorf("--returns: %w", err)
	}

	return ir.NewEntry(arr, obj, returns), nil
}

func runRecord(opts *RecordOptions, key string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	entry, err := opts.entry()
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err.Error())
	}

	s := opts.newSession(opts.Dir)
	if err := s.SetTask(opts.Project, opts.Task); err != nil {
		return fail(formatter, ExitCommandError, ErrCodeInvalidInput, err.Error())
	}

	if err := s.Record(key, entry); err != nil {
		switch {
		case errors.Is(err, session.ErrStorageDirUnset):
			return fail(formatter, ExitCommandError, ErrCodeStorageDir, err.Error())
		case errors.Is(err, store.ErrInvalidFormat):
			return fail(formatter, ExitFailure, ErrCodeInvalidFormat, err.Error())
		default:
			return fail(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
		}
	}

	report := s.Cleanup()
	if err := report.Err(); err != nil {
		return fail(formatter, ExitFailure, ErrCodeWriteFailed, err.Error())
	}

	db, _ := s.Database(opts.Project, opts.Task)
	result := RecordResult{
		Entity:  key,
		Project: opts.Project,
		Task:    opts.Task,
		Path:    db.Path(),
		Calls:   len(db.Entries(key)),
	}
	slog.Debug("database saved", "path", result.Path, "entity", key)
	return formatter.Success(result)
}
