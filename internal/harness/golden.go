package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/acorn/internal/ir"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Value converts the snapshot into canonical form. Each event carries only
// the fields its op sets.
func (s *TraceSnapshot) Value() ir.Object {
	trace := make(ir.Array, len(s.Trace))
	for i, ev := range s.Trace {
		trace[i] = eventValue(ev)
	}
	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"trace":         trace,
	}
}

func eventValue(ev TraceEvent) ir.Object {
	obj := ir.Object{
		"step": ir.Int(ev.Step),
		"op":   ir.String(ev.Op),
	}
	switch ev.Op {
	case OpTask:
		obj["database"] = ir.String(ev.Database)
	case OpObject:
		obj["name"] = ir.String(ev.Name)
		obj["identity"] = ir.String(ev.Identity)
	case OpRecord:
		obj["database"] = ir.String(ev.Database)
		obj["entity"] = ir.String(ev.Entity)
		obj["calls"] = ir.Int(ev.Calls)
		obj["stored"] = ir.Int(ev.Stored)
	case OpAdvance:
		obj["elapsed"] = ir.String(ev.Elapsed)
	case OpWritable:
		obj["writable"] = ir.Bool(ev.Writable)
	case OpSave:
		obj["database"] = ir.String(ev.Database)
		obj["outcome"] = ir.String(ev.Outcome)
	case OpCleanup:
		obj["saved"] = stringArray(ev.Saved)
		obj["skipped"] = stringArray(ev.Skipped)
		obj["failed"] = stringArray(ev.Failed)
	}
	return obj
}

func stringArray(ss []string) ir.Array {
	arr := make(ir.Array, len(ss))
	for i, s := range ss {
		arr[i] = ir.String(s)
	}
	return arr
}

// MarshalTrace renders a result's trace as canonical JSON.
func MarshalTrace(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{ScenarioName: name, Trace: result.Trace}
	return ir.MarshalCanonical(snapshot.Value())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
