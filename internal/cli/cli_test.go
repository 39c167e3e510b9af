package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeSQLiteConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridgeql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("target:\n  type: sqlite\n"), 0o600))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "BridgeQL v")
}

func TestValidateCommand(t *testing.T) {
	out, _, err := execute(t, "validate", "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, out, "structurally valid")

	_, errOut, err := execute(t, "validate", "DROP TABLE t")
	require.Error(t, err)
	assert.Contains(t, errOut, "begin with")
}

func TestValidateCommand_WarnsOnDialect(t *testing.T) {
	out, _, err := execute(t, "validate", "SELECT `amount` FROM orders")
	require.NoError(t, err)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "mysql")
}

func TestRunCommand_EndToEnd(t *testing.T) {
	cfgPath := writeSQLiteConfig(t)
	csvPath := filepath.Join(t.TempDir(), "orders.csv")
	data := "order id,amount\n1,100\n2,250\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(data), 0o600))

	out, _, err := execute(t,
		"run",
		"--config", cfgPath,
		"--load", "orders="+csvPath,
		`SELECT "order id", amount FROM orders WHERE amount LIKE '1%'`,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "1 row(s)")
	assert.Contains(t, out, "100")
	assert.NotContains(t, out, "250")
}

func TestRunCommand_BadLoadSpec(t *testing.T) {
	cfgPath := writeSQLiteConfig(t)
	_, _, err := execute(t,
		"run",
		"--config", cfgPath,
		"--load", "no-equals-sign",
		"SELECT 1",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name=path.csv")
}

func TestRunCommand_ExecutionFailure(t *testing.T) {
	cfgPath := writeSQLiteConfig(t)
	_, _, err := execute(t, "run", "--config", cfgPath, "SELECT x FROM missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execution failed")
}
