package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fritzo/libhstar/internal/engine"
	"github.com/fritzo/libhstar/internal/ir"
	"github.com/fritzo/libhstar/internal/store"
)

const nestedSKK = "APP APP APP S K K APP APP APP S K K C"

func TestNormalizeCommand(t *testing.T) {
	tests := []struct {
		name   string
		budget int
		args   []string
		want   string
	}{
		{"enough budget", DefaultBudget, []string{"APP APP APP S K K C"}, "C\n"},
		{"no budget", 0, []string{"APP APP APP S K K C"}, "APP APP APP S K K C [pending]\n"},
		{"partial", 1, []string{nestedSKK}, "APP APP APP S K K C [pending]\n"},
		{"two passes", 1, []string{"--steps", "2", nestedSKK}, "C\n"},
		{"atoms only", 0, []string{"APP TOP APP APP APP S I I APP APP S I I"}, "TOP\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testRootOptions("text")
			opts.Budget = tt.budget
			cmd := NewNormalizeCommand(opts)
			out, err := execute(t, cmd, tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestNormalizeCommandJSON(t *testing.T) {
	opts := testRootOptions("json")
	opts.Budget = 1
	cmd := NewNormalizeCommand(opts)
	out, err := execute(t, cmd, "--steps", "5", nestedSKK)
	require.NoError(t, err)

	resp, result := decodeResponse[NormalizeResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, NormalizeResult{
		Input:   nestedSKK,
		Output:  "C",
		Budget:  1,
		Passes:  5,
		Spent:   2,
		Pending: false,
	}, result)
}

func TestNormalizeCommandInvalidSteps(t *testing.T) {
	cmd := NewNormalizeCommand(testRootOptions("text"))
	_, err := execute(t, cmd, "--steps", "0", "I")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid steps")
}

func TestNormalizeCommandErrors(t *testing.T) {
	cmd := NewNormalizeCommand(testRootOptions("text"))
	out, err := execute(t, cmd, "APP FOO I")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, engine.IsParseError(err))
	assert.Contains(t, out, "Error [PARSE_ERROR]")

	cmd = NewNormalizeCommand(testRootOptions("text"))
	_, err = execute(t, cmd, "APP JOIN K S I")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, engine.IsUnsupportedReduction(err))
}

func TestNormalizeCommandRecordsRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hstar.db")

	normalize := func(args ...string) (NormalizeResult, error) {
		opts := testRootOptions("json")
		opts.Budget = 1
		cmd := NewNormalizeCommand(opts)
		out, err := execute(t, cmd, append([]string{"--db", dbPath, "--session", "demo"}, args...)...)
		_, result := decodeResponse[NormalizeResult](t, out)
		return result, err
	}

	first, err := normalize(nestedSKK)
	require.NoError(t, err)
	assert.Equal(t, "demo", first.Session)
	assert.Equal(t, int64(1), first.Seq)
	assert.Len(t, first.RunID, 64)

	second, err := normalize("--steps", "2", nestedSKK)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Seq)
	assert.NotEqual(t, first.RunID, second.RunID)

	// Failed runs are journaled too
	_, err = normalize("APP K")
	require.Error(t, err)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ReadRuns(context.Background(), "demo")
	require.NoError(t, err)
	require.Len(t, runs, 3)

	assert.Equal(t, nestedSKK, runs[0].Input)
	assert.Equal(t, "APP APP APP S K K C", runs[0].Output)
	assert.True(t, runs[0].Pending)
	assert.Equal(t, int64(1), runs[0].Spent)
	assert.Equal(t, int64(1), runs[0].Budget)
	assert.Equal(t, int64(1), runs[0].Passes)
	assert.Equal(t, ir.MustEquationsHash(engine.DefaultEquations()), runs[0].EquationsHash)

	assert.Equal(t, "C", runs[1].Output)
	assert.False(t, runs[1].Pending)
	assert.Equal(t, int64(2), runs[1].Passes)

	assert.Equal(t, int64(3), runs[2].Seq)
	assert.Empty(t, runs[2].Output)
	assert.Contains(t, runs[2].Error, "unexpected end of input")
}

func TestNormalizeCommandGeneratesSession(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hstar.db")

	opts := &NormalizeOptions{
		RootOptions: testRootOptions("text"),
		Steps:       1,
		Database:    dbPath,
		Sessions:    store.NewFixedGenerator("generated-session"),
	}
	cmd := NewNormalizeCommand(opts.RootOptions)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	require.NoError(t, runNormalize(opts, "APP APP K I S", cmd))

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	sessions, err := st.ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "generated-session", sessions[0].Token)
}
