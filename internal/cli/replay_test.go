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

const omega = "APP APP APP S I I APP APP S I I"

// seedJournal records a pending run, a finished run and a failed run in
// session "a", and one run without equations in session "b".
func seedJournal(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hstar.db")

	recordNormalize(t, budgetOptions(1), dbPath, "a", nestedSKK)
	recordNormalize(t, budgetOptions(1), dbPath, "a", "--steps", "2", nestedSKK)
	recordNormalize(t, budgetOptions(1), dbPath, "a", "APP JOIN K S I")

	noEquations := budgetOptions(3)
	noEquations.Config = writeConfig(t, "equations: []\n")
	recordNormalize(t, noEquations, dbPath, "b", omega)

	return dbPath
}

func tamper(t *testing.T, dbPath, stmt string, args ...any) {
	t.Helper()
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	_, err = st.DB().Exec(stmt, args...)
	require.NoError(t, err)
}

func TestReplayEmptyDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hstar.db")

	// Create empty database
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	st.Close()

	cmd := NewReplayCommand(testRootOptions("text"))
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs found")
}

func TestReplayEmptyDatabaseJSON(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "hstar.db")

	cmd := NewReplayCommand(testRootOptions("json"))
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)

	resp, result := decodeResponse[ReplayResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, result.TotalRuns)
	assert.True(t, result.AllDeterministic)
}

func TestReplayDeterministic(t *testing.T) {
	dbPath := seedJournal(t)

	cmd := NewReplayCommand(testRootOptions("text"))
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Replay Summary: 4 run(s)")
	assert.Contains(t, out, "✓ [1] "+nestedSKK+" -> APP APP APP S K K C [pending]")
	assert.Contains(t, out, "✓ [2] "+nestedSKK+" -> C")
	assert.Contains(t, out, "✓ [4] "+omega+" -> "+omega+" [pending]")
	assert.Contains(t, out, "✓ All runs verified deterministic")
}

func TestReplayDeterministicJSON(t *testing.T) {
	dbPath := seedJournal(t)

	cmd := NewReplayCommand(testRootOptions("json"))
	out, err := execute(t, cmd, "--db", dbPath)
	require.NoError(t, err)

	resp, result := decodeResponse[ReplayResult](t, out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, result.TotalRuns)
	assert.True(t, result.AllDeterministic)
	require.Len(t, result.Runs, 4)

	for i, run := range result.Runs {
		assert.Equal(t, int64(i+1), run.Seq)
		assert.True(t, run.Deterministic, "run %d", run.Seq)
		assert.Empty(t, run.Differences)
	}
	assert.Equal(t, "b", result.Runs[3].Session)
	assert.True(t, result.Runs[3].Pending)
}

func TestReplaySpecificSession(t *testing.T) {
	dbPath := seedJournal(t)

	cmd := NewReplayCommand(testRootOptions("json"))
	out, err := execute(t, cmd, "--db", dbPath, "--session", "b")
	require.NoError(t, err)

	_, result := decodeResponse[ReplayResult](t, out)
	require.Equal(t, 1, result.TotalRuns)
	assert.Equal(t, omega, result.Runs[0].Input)
}

func TestReplayDetectsTamperedOutput(t *testing.T) {
	dbPath := seedJournal(t)
	tamper(t, dbPath, `UPDATE runs SET output = 'I', pending = 0 WHERE seq = 1`)

	cmd := NewReplayCommand(testRootOptions("text"))
	out, err := execute(t, cmd, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ [1]")
	assert.Contains(t, out, `output: recorded "I", replayed "APP APP APP S K K C"`)
	assert.Contains(t, out, "pending: recorded false, replayed true")
	assert.Contains(t, out, "✗ Determinism verification failed")
}

func TestReplayDetectsTamperedInputs(t *testing.T) {
	dbPath := seedJournal(t)
	tamper(t, dbPath, `UPDATE runs SET budget = 2 WHERE seq = 1`)

	cmd := NewReplayCommand(testRootOptions("json"))
	out, err := execute(t, cmd, "--db", dbPath)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp, result := decodeResponse[ReplayResult](t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DETERMINISM", resp.Error.Code)
	assert.False(t, result.AllDeterministic)

	first := result.Runs[0]
	assert.False(t, first.Deterministic)
	require.NotEmpty(t, first.Differences)
	assert.Contains(t, first.Differences[0], "run id")
	assert.True(t, result.Runs[1].Deterministic)
}

func TestReplayNonExistentDatabase(t *testing.T) {
	cmd := NewReplayCommand(testRootOptions("text"))
	_, err := execute(t, cmd, "--db", "/nonexistent/path/test.db")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestReplayHelpText(t *testing.T) {
	cmd := NewReplayCommand(testRootOptions("text"))
	out, err := execute(t, cmd, "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "Re-execute")
	assert.Contains(t, out, "--db")
	assert.Contains(t, out, "--session")
	assert.Contains(t, out, "equation table")
}

func TestCompareRun(t *testing.T) {
	run := ir.Run{Output: "C", Spent: 2}

	assert.Empty(t, compareRun(run, engine.Outcome{Output: "C", Spent: 2}, ""))

	diffs := compareRun(run, engine.Outcome{Output: "C", Spent: 1, Pending: true}, "boom")
	assert.Equal(t, []string{
		`error: recorded "", replayed "boom"`,
		"pending: recorded false, replayed true",
		"spent: recorded 2, replayed 1",
	}, diffs)
}

func TestReplayRunBrokenEquations(t *testing.T) {
	run := ir.Run{Session: "s", Seq: 1, Input: "I", Budget: 1, Passes: 1}
	eqs := []ir.Equation{{LHS: "K", RHS: "S"}}
	run.EquationsHash = ir.MustEquationsHash(eqs)
	run.ID = ir.MustRunID(run)

	result := replayRun(store.ReplayRun{Run: run, Equations: eqs}, false, newLogger(testRootOptions("text"), io.Discard))
	assert.False(t, result.Deterministic)
	require.Len(t, result.Differences, 1)
	assert.Contains(t, result.Differences[0], "equations:")
}

func TestReplayUsesJournaledEquations(t *testing.T) {
	dbPath := seedJournal(t)

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	runs, err := st.ReplaySession(context.Background(), "b")
	st.Close()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Empty(t, runs[0].Equations)

	// Replaying under the default table would make omega bottom.
	result := replayRun(runs[0], true, newLogger(testRootOptions("text"), io.Discard))
	assert.True(t, result.Deterministic, "%v", result.Differences)
	assert.Equal(t, omega, result.Output)
}
