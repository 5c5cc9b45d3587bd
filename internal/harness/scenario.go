package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is one recording flow with the checks run after it.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// SaveFreq sets database.savefreq in minutes. Unset keeps the default.
	SaveFreq *int `yaml:"savefreq,omitempty"`

	// Steps run in order against a fresh Session.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// TaskSelection names a project and task.
type TaskSelection struct {
	Project string `yaml:"project"`
	Task    string `yaml:"task"`
}

// Step is one operation. Exactly one of the operation fields is set; Args,
// Kwargs and Returns belong to a record step.
type Step struct {
	Task          *TaskSelection `yaml:"task,omitempty"`
	Object        string         `yaml:"object,omitempty"`
	Record        string         `yaml:"record,omitempty"`
	Args          []any          `yaml:"args,omitempty"`
	Kwargs        map[string]any `yaml:"kwargs,omitempty"`
	Returns       any            `yaml:"returns,omitempty"`
	Advance       string         `yaml:"advance,omitempty"`
	Writable      *bool          `yaml:"writable,omitempty"`
	Save          bool           `yaml:"save,omitempty"`
	Cleanup       bool           `yaml:"cleanup,omitempty"`
	RemoveStorage bool           `yaml:"remove_storage,omitempty"`
}

// Step operation names, as they appear in the trace.
const (
	OpTask          = "task"
	OpObject        = "object"
	OpRecord        = "record"
	OpAdvance       = "advance"
	OpWritable      = "writable"
	OpSave          = "save"
	OpCleanup       = "cleanup"
	OpRemoveStorage = "remove_storage"
)

// Ops returns the operations set on the step.
func (s Step) Ops() []string {
	var ops []string
	if s.Task != nil {
		ops = append(ops, OpTask)
	}
	if s.Object != "" {
		ops = append(ops, OpObject)
	}
	if s.Record != "" {
		ops = append(ops, OpRecord)
	}
	if s.Advance != "" {
		ops = append(ops, OpAdvance)
	}
	if s.Writable != nil {
		ops = append(ops, OpWritable)
	}
	if s.Save {
		ops = append(ops, OpSave)
	}
	if s.Cleanup {
		ops = append(ops, OpCleanup)
	}
	if s.RemoveStorage {
		ops = append(ops, OpRemoveStorage)
	}
	return ops
}

// Op returns the step's single operation, or "" when zero or several are set.
func (s Step) Op() string {
	ops := s.Ops()
	if len(ops) != 1 {
		return ""
	}
	return ops[0]
}

// Assertion checks the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_count": op appears exactly Count times
	// - "trace_order": Ops appear in this relative order
	// - "trace_contains": an event with Op, and Database/Entity when set
	// - "entry_count": in-memory calls of Entity in Database
	// - "stored_count": calls of Entity in the Database file
	// - "object_count": described identities in the Database file
	// - "file_absent": the Database file does not exist
	Type string `yaml:"type"`

	Op       string   `yaml:"op,omitempty"`
	Ops      []string `yaml:"ops,omitempty"`
	Database string   `yaml:"database,omitempty"` // "<project>.<task>"
	Entity   string   `yaml:"entity,omitempty"`
	Count    int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceCount    = "trace_count"
	AssertTraceOrder    = "trace_order"
	AssertTraceContains = "trace_contains"
	AssertEntryCount    = "entry_count"
	AssertStoredCount   = "stored_count"
	AssertObjectCount   = "object_count"
	AssertFileAbsent    = "file_absent"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.SaveFreq != nil && *s.SaveFreq < 0 {
		return fmt.Errorf("savefreq must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	ops := s.Ops()
	switch len(ops) {
	case 0:
		return fmt.Errorf("steps[%d]: no operation set", index)
	case 1:
	default:
		return fmt.Errorf("steps[%d]: several operations set: %s", index, strings.Join(ops, ", "))
	}

	if ops[0] != OpRecord && (s.Args != nil || s.Kwargs != nil || s.Returns != nil) {
		return fmt.Errorf("steps[%d]: args, kwargs and returns are only valid on record", index)
	}

	switch ops[0] {
	case OpTask:
		if s.Task.Project == "" || s.Task.Task == "" {
			return fmt.Errorf("steps[%d]: task needs project and task", index)
		}
	case OpRecord:
		if _, ok := s.Kwargs["__"]; ok {
			return fmt.Errorf("steps[%d]: kwargs may not use the reserved key \"__\"", index)
		}
	case OpAdvance:
		d, err := time.ParseDuration(s.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must be non-negative", index)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}
	if a.Database != "" {
		if _, _, ok := splitDatabase(a.Database); !ok {
			return fmt.Errorf("assertions[%d]: database %q is not <project>.<task>", index, a.Database)
		}
	}

	switch a.Type {
	case AssertTraceCount, AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for trace_order", index)
		}
	case AssertEntryCount, AssertStoredCount:
		if a.Database == "" || a.Entity == "" {
			return fmt.Errorf("assertions[%d]: database and entity are required for %s", index, a.Type)
		}
	case AssertObjectCount, AssertFileAbsent:
		if a.Database == "" {
			return fmt.Errorf("assertions[%d]: database is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// splitDatabase splits "<project>.<task>" at the first dot.
func splitDatabase(name string) (project, task string, ok bool) {
	project, task, ok = strings.Cut(name, ".")
	if !ok || project == "" || task == "" {
		return "", "", false
	}
	return project, task, true
}
