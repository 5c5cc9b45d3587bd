package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeResponse(t *testing.T, out []byte, data any) CLIResponse {
	t.Helper()
	resp := CLIResponse{Data: data}
	require.NoError(t, json.Unmarshal(out, &resp))
	return resp
}

func TestSuccess_RecordResult(t *testing.T) {
	result := RecordResult{Entity: "numpy.dot", Project: "proj1", Task: "taskA", Path: "/db/proj1.taskA.json", Calls: 3}

	var text bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: &text}).Success(result))
	assert.Equal(t, "✓ Recorded numpy.dot in proj1.taskA (3 call(s))\n", text.String())

	var js bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: &js}).Success(result))
	var got RecordResult
	resp := decodeResponse(t, js.Bytes(), &got)
	assert.Equal(t, "ok", resp.Status)
	assert.Nil(t, resp.Error)
	assert.Equal(t, result, got)
}

func TestSuccess_ShowResultAlignsEntities(t *testing.T) {
	result := ShowResult{
		Project: "proj1",
		Task:    "taskA",
		Entities: []EntitySummary{
			{Entity: "f", Calls: 12},
			{Entity: "numpy.linalg.inv", Calls: 1},
		},
		Objects: 2,
	}

	var buf bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: &buf}).Success(result))
	assert.Equal(t, "proj1.taskA\n"+
		"  f                 12\n"+
		"  numpy.linalg.inv  1\n"+
		"2 entities, 2 objects\n", buf.String())
}

func TestSuccess_ListResult(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	require.NoError(t, f.Success(ListResult{Dir: "/db"}))
	assert.Equal(t, "No databases in /db\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Success(ListResult{Dir: "/db", Projects: []ProjectTasks{
		{Project: "proj1", Tasks: []string{"taskA", "taskB"}},
	}}))
	assert.Equal(t, "proj1: taskA, taskB\n", buf.String())
}

func TestFailure_ScenarioSummary(t *testing.T) {
	summary := ScenarioSummary{
		Scenarios: []ScenarioResult{
			{Name: "record_once", Pass: true},
			{Name: "wrong_count", Errors: []string{"Assertion failed: entry_count\n"}},
		},
		Passed: 1,
		Failed: 1,
		Total:  2,
	}

	var text bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: &text}).Failure(ErrCodeScenario, "1 scenario(s) failed", summary))
	assert.Equal(t, "✓ record_once\n"+
		"✗ wrong_count\n"+
		"  Assertion failed: entry_count\n"+
		"\n1 passed, 1 failed, 2 total\n"+
		"Error [E013]: 1 scenario(s) failed\n", text.String())

	var js bytes.Buffer
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: &js}).Failure(ErrCodeScenario, "1 scenario(s) failed", summary))
	var resp struct {
		Status string `json:"status"`
		Error  struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details ScenarioSummary `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeScenario, resp.Error.Code)
	assert.Equal(t, 2, resp.Error.Details.Total)
	assert.Equal(t, "wrong_count", resp.Error.Details.Scenarios[1].Name)
}

func TestFail(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		exitCode int
		code     string
		message  string
		wantOut  string
	}{
		{"missing database text", "text", ExitCommandError, ErrCodeNotFound, "database not found: /db/p.t.json",
			"Error [E005]: database not found: /db/p.t.json\n"},
		{"invalid file json", "json", ExitFailure, ErrCodeInvalidFormat, "invalid database format",
			`{"status":"error","error":{"code":"E010","message":"invalid database format"}}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := fail(&OutputFormatter{Format: tt.format, Writer: &buf}, tt.exitCode, tt.code, tt.message)

			assert.Equal(t, tt.wantOut, buf.String())
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Equal(t, tt.code+": "+tt.message, err.Error())

			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, tt.code, exitErr.ErrCode)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	saveErr := &ExitError{Code: ExitFailure, ErrCode: ErrCodeWriteFailed, Message: "save failed"}
	storageErr := &ExitError{Code: ExitCommandError, Message: "storage directory is not set"}

	assert.Equal(t, ExitFailure, GetExitCode(saveErr))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("show: %w", storageErr)))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("unknown flag: --bogus")))
	assert.Equal(t, "storage directory is not set", storageErr.Error())
}
