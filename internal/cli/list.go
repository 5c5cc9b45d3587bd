package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Dir string
}

// ProjectTasks lists the tasks with a database file in one project.
type ProjectTasks struct {
	Project string   `json:"project"`
	Tasks   []string `json:"tasks"`
}

// ListResult is the payload of the list command.
type ListResult struct {
	Dir      string         `json:"dir"`
	Projects []ProjectTasks `json:"projects"`
}

func (r ListResult) writeText(w io.Writer) error {
	if len(r.Projects) == 0 {
		_, err := fmt.Fprintf(w, "No databases in %s\n", r.Dir)
		return err
	}
	for _, p := range r.Projects {
		if _, err := fmt.Fprintf(w, "%s: %s\n", p.Project, strings.Join(p.Tasks, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List projects and tasks in the storage directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", "", "storage directory (default: database.folder setting)")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	dir, err := opts.storageDir(formatter, opts.Dir)
	if err != nil {
		return err
	}

	projects, err := scanDatabases(dir)
	if err != nil {
		return fail(formatter, ExitCommandError, ErrCodeGeneric, err.Error())
	}
	slog.Debug("storage directory scanned", "dir", dir, "projects", len(projects))
	return formatter.Success(ListResult{Dir: dir, Projects: projects})
}

// scanDatabases groups the <project>.<task>.json files in dir by project.
// The project name ends at the first dot.
func scanDatabases(dir string) ([]ProjectTasks, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read storage directory: %w", err)
	}

	byProject := make(map[string][]string)
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		base, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok {
			continue
		}
		project, task, ok := strings.Cut(base, ".")
		if !ok || project == "" || task == "" {
			continue
		}
		byProject[project] = append(byProject[project], task)
	}

	out := make([]ProjectTasks, 0, len(byProject))
	for project, tasks := range byProject {
		sort.Strings(tasks)
		out = append(out, ProjectTasks{Project: project, Tasks: tasks})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Project < out[j].Project })
	return out, nil
}
