package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const fixtureDB = `{"entities":{"mymodule.myfunc":[{"args":{"__":["hello",5]},"returns":null},{"args":{"__":["again",6]},"returns":null}],"numpy.dot":[{"args":{"__":["00000000-0000-4000-8000-000000000001",2.5],"out":null},"returns":"00000000-0000-4000-8000-000000000002"}]},"uuids":{"00000000-0000-4000-8000-000000000001":{"type":"matrix"}}}`

// execute runs the root command with an empty settings directory. A later
// --config-dir in args overrides it.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
