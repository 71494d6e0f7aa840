package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// testRootOptions returns global options as the root command would leave
// them with no flags given.
func testRootOptions(format string) *RootOptions {
	return &RootOptions{Format: format, Budget: DefaultBudget}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// decodeResponse decodes a JSON CLIResponse whose data has type T.
func decodeResponse[T any](t *testing.T, out string) (CLIResponse, T) {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw))

	var data T
	if len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, &data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}, data
}

// writeConfig writes a CUE config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hstar.cue")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// recordNormalize journals one normalize invocation. Errors are ignored so
// failing runs can be recorded too.
func recordNormalize(t *testing.T, opts *RootOptions, dbPath, session string, args ...string) {
	t.Helper()
	cmd := NewNormalizeCommand(opts)
	_, _ = execute(t, cmd, append([]string{"--db", dbPath, "--session", session}, args...)...)
}

func budgetOptions(budget int) *RootOptions {
	opts := testRootOptions("text")
	opts.Budget = budget
	return opts
}
