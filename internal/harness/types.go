package harness

// TraceEvent records the observable effect of one step.
// Which fields are meaningful depends on Op.
type TraceEvent struct {
	Step int    `json:"step"`
	Op   string `json:"op"`

	Database string `json:"database,omitempty"` // task, record, save
	Entity   string `json:"entity,omitempty"`   // record
	Name     string `json:"name,omitempty"`     // object
	Identity string `json:"identity,omitempty"` // object

	Calls  int `json:"calls"`  // record: calls of Entity held in memory
	Stored int `json:"stored"` // record: calls of Entity in the file

	Elapsed  string `json:"elapsed,omitempty"` // advance
	Writable bool   `json:"writable"`          // writable
	Outcome  string `json:"outcome,omitempty"` // save

	Saved   []string `json:"saved,omitempty"`   // cleanup
	Skipped []string `json:"skipped,omitempty"` // cleanup
	Failed  []string `json:"failed,omitempty"`  // cleanup
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev to the trace.
func (r *Result) AddEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
