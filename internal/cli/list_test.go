package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{
		"proj1.taskB.json",
		"proj1.taskA.json",
		"proj2.run.1.json",
		"notes.txt",
		"README.json",
		".tmp-123.json",
	} {
		writeFixture(t, dir, name, fixtureDB)
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.old.json"), 0o755))
	return dir
}

func TestList_Text(t *testing.T) {
	dir := listFixture(t)

	out, err := execute(t, "list", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "proj1: taskA, taskB\nproj2: run.1\n", out)
}

func TestList_JSON(t *testing.T) {
	dir := listFixture(t)

	out, err := execute(t, "--format", "json", "list", "--dir", dir)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   ListResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, dir, resp.Data.Dir)
	assert.Equal(t, []ProjectTasks{
		{Project: "proj1", Tasks: []string{"taskA", "taskB"}},
		{Project: "proj2", Tasks: []string{"run.1"}},
	}, resp.Data.Projects)
}

func TestList_Empty(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "list", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No databases in "+dir)
}
