package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{
		"throttled_saves",
		"tracked_objects",
		"read_only_cleanup",
		"cleanup_failure",
	} {
		t.Run(name, func(t *testing.T) {
			scenario := loadTestScenario(t, name)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Len(t, result.Trace, len(scenario.Steps))
		})
	}
}

func TestRun_ThrottleVisibleInTrace(t *testing.T) {
	result, err := Run(loadTestScenario(t, "throttled_saves"))
	require.NoError(t, err)

	var stored []int
	for _, ev := range result.Trace {
		if ev.Op == OpRecord {
			stored = append(stored, ev.Stored)
		}
	}
	// Written on the first record and again once more than 2 minutes passed.
	assert.Equal(t, []int{1, 1, 1, 4}, stored)
}

func TestRun_FailedAssertions(t *testing.T) {
	scenario := loadTestScenario(t, "throttled_saves")
	scenario.Assertions = []Assertion{
		{Type: AssertEntryCount, Database: "proj1.taskA", Entity: "mymodule.myfunc", Count: 9},
		{Type: AssertFileAbsent, Database: "proj1.taskA"},
		{Type: AssertObjectCount, Database: "proj1.taskA", Count: 1},
		{Type: AssertStoredCount, Database: "proj9.none", Entity: "mymodule.myfunc", Count: 0},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "Assertion failed: entry_count")
	assert.Contains(t, result.Errors[1], "Assertion failed: file_absent")
	assert.Contains(t, result.Errors[2], "Assertion failed: object_count")
}

func TestRun_UnknownObject(t *testing.T) {
	scenario := &Scenario{
		Name:        "unknown_object",
		Description: "d",
		Steps: []Step{
			{Task: &TaskSelection{Project: "p", Task: "t"}},
			{Record: "f", Args: []any{"$missing"}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Op: OpRecord, Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `step 1 (record): args[0]: unknown object "$missing"`)
}

func TestRun_SaveBeforeOpen(t *testing.T) {
	scenario := &Scenario{
		Name:        "save_before_open",
		Description: "d",
		Steps:       []Step{{Save: true}},
		Assertions:  []Assertion{{Type: AssertTraceCount, Op: OpSave, Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database default.default is not open")
}
