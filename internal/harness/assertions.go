package harness

import (
	"fmt"
	"os"
	"strings"

	"github.com/roach88/acorn/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", event.Step, describeEvent(event))
		}
	}
	return buf.String()
}

func describeEvent(ev TraceEvent) string {
	switch ev.Op {
	case OpTask:
		return "task " + ev.Database
	case OpObject:
		return fmt.Sprintf("object %s = %s", ev.Name, ev.Identity)
	case OpRecord:
		return fmt.Sprintf("record %s in %s (calls=%d stored=%d)", ev.Entity, ev.Database, ev.Calls, ev.Stored)
	case OpAdvance:
		return "advance " + ev.Elapsed
	case OpWritable:
		return fmt.Sprintf("writable %t", ev.Writable)
	case OpSave:
		return fmt.Sprintf("save %s: %s", ev.Database, ev.Outcome)
	case OpCleanup:
		return fmt.Sprintf("cleanup saved=%v skipped=%v failed=%v", ev.Saved, ev.Skipped, ev.Failed)
	default:
		return ev.Op
	}
}

// assertTraceCount checks that op appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	actual := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			actual++
		}
	}
	if actual != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s appears %d time(s)", assertion.Op, assertion.Count),
			Actual:   fmt.Sprintf("%s appears %d time(s)", assertion.Op, actual),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks that the ops appear in the given relative order.
// Other events may appear in between.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	next := 0
	for _, event := range trace {
		if next < len(assertion.Ops) && event.Op == assertion.Ops[next] {
			next++
		}
	}
	if next < len(assertion.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order %v", assertion.Ops),
			Actual:   fmt.Sprintf("%q not found after %v", assertion.Ops[next], assertion.Ops[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceContains checks for an event with the assertion's op and, when
// set, its database and entity.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Op != assertion.Op {
			continue
		}
		if assertion.Database != "" && event.Database != assertion.Database {
			continue
		}
		if assertion.Entity != "" && event.Entity != assertion.Entity {
			continue
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s event matching database=%q entity=%q", assertion.Op, assertion.Database, assertion.Entity),
		Actual:   "no matching event",
		Trace:    trace,
	}
}

// assertEntryCount checks the calls held in memory by an open database.
func assertEntryCount(h *Harness, assertion Assertion) error {
	project, task, _ := splitDatabase(assertion.Database)
	actual := 0
	if db, ok := h.session.Database(project, task); ok {
		actual = len(db.Entries(assertion.Entity))
	}
	if actual != assertion.Count {
		return &AssertionError{
			Type:     AssertEntryCount,
			Expected: fmt.Sprintf("%d call(s) of %s in %s", assertion.Count, assertion.Entity, assertion.Database),
			Actual:   fmt.Sprintf("%d call(s)", actual),
		}
	}
	return nil
}

// assertStored checks the calls or described objects in a database file.
func assertStored(h *Harness, assertion Assertion) error {
	project, task, _ := splitDatabase(assertion.Database)
	snap, err := h.readStored(project, task)
	if err != nil {
		return fmt.Errorf("%s: %w", assertion.Type, err)
	}

	actual, what := 0, "object(s)"
	if assertion.Type == AssertStoredCount {
		what = "call(s) of " + assertion.Entity
	}
	if snap != nil {
		if assertion.Type == AssertStoredCount {
			actual = len(snap.Entities[assertion.Entity])
		} else {
			actual = len(snap.UUIDs)
		}
	}
	if actual != assertion.Count {
		return &AssertionError{
			Type:     assertion.Type,
			Expected: fmt.Sprintf("%d %s in the %s file", assertion.Count, what, assertion.Database),
			Actual:   fmt.Sprintf("%d", actual),
		}
	}
	return nil
}

// assertFileAbsent checks that a database file was never written.
func assertFileAbsent(h *Harness, assertion Assertion) error {
	project, task, _ := splitDatabase(assertion.Database)
	path := store.PathFor(h.storageDir, project, task)
	if _, err := os.Stat(path); err == nil {
		return &AssertionError{
			Type:     AssertFileAbsent,
			Expected: fmt.Sprintf("no file for %s", assertion.Database),
			Actual:   "file exists",
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result and the
// harness state. Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertEntryCount:
			err = assertEntryCount(h, assertion)
		case AssertStoredCount, AssertObjectCount:
			err = assertStored(h, assertion)
		case AssertFileAbsent:
			err = assertFileAbsent(h, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
