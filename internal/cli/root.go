package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/acorn/internal/config"
	"github.com/roach88/acorn/internal/session"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	ConfigDir string // settings directory; config.DefaultDir() when empty
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the acorn CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "acorn",
		Short: "acorn - research notebook call log",
		Long: `Record, inspect and export the call logs of a research notebook.

Each (project, task) pair has its own append-only JSON database under the
storage directory, named <project>.<task>.json.`,
		SilenceErrors: true, // main prints errors subcommands did not report
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := slog.LevelWarn
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigDir, "config-dir", "", "settings directory (default $"+config.EnvConfigDir+" or ~/.acorn)")

	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func (o *RootOptions) settings() *config.Provider {
	dir := o.ConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	return config.NewProvider(dir)
}

// newSession creates a session reading settings from the configured
// directory. dir overrides the database.folder setting when set.
func (o *RootOptions) newSession(dir string) *session.Session {
	opts := []session.Option{
		session.WithSettings(o.settings()),
		session.WithLogger(slog.Default()),
	}
	if dir != "" {
		opts = append(opts, session.WithStorageDir(dir))
	}
	return session.New(opts...)
}

// storageDir resolves the storage directory from the flag or the settings.
func (o *RootOptions) storageDir(f *OutputFormatter, dir string) (string, error) {
	resolved, err := o.newSession(dir).StorageDir()
	if err != nil {
		return "", fail(f, ExitCommandError, ErrCodeStorageDir, err.Error())
	}
	return resolved, nil
}
