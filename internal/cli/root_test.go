package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "acorn", cmd.Use)
	assert.Contains(t, cmd.Long, "<project>.<task>.json")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"record", "show", "list", "validate", "export", "scenario"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	configFlag := cmd.PersistentFlags().Lookup("config-dir")
	require.NotNil(t, configFlag)
	assert.Equal(t, "", configFlag.DefValue)
}

func TestRecordCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	recordCmd, _, err := cmd.Find([]string{"record"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"dir":     "",
		"project": "default",
		"task":    "default",
		"args":    "[]",
		"kwargs":  "{}",
		"returns": "null",
	} {
		f := recordCmd.Flags().Lookup(flag)
		require.NotNil(t, f, "flag --%s", flag)
		assert.Equal(t, def, f.DefValue, "flag --%s", flag)
	}
}

func TestExportCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"export"})
	require.NoError(t, err)

	outFlag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, outFlag)
	assert.Equal(t, "o", outFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "yaml", "list", "--dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
}

func TestRoot_VerboseLogsToStderr(t *testing.T) {
	path := writeFixture(t, t.TempDir(), "proj1.taskA.json", fixtureDB)

	for _, verbose := range []bool{false, true} {
		root := NewRootCommand()
		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		root.SetOut(out)
		root.SetErr(errOut)
		args := []string{"--config-dir", t.TempDir(), "validate", path}
		if verbose {
			args = append([]string{"-v"}, args...)
		}
		root.SetArgs(args)

		require.NoError(t, root.Execute())
		assert.Contains(t, out.String(), "is valid")
		assert.NotContains(t, out.String(), "validating database")
		if verbose {
			assert.Contains(t, errOut.String(), "validating database")
		} else {
			assert.NotContains(t, errOut.String(), "validating database")
		}
	}
}
