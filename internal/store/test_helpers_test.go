package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fritzo/libhstar/internal/ir"
)

var omegaIsBottom = []ir.Equation{{LHS: "APP APP APP S I I APP APP S I I", RHS: "BOT"}}

// createTestStore creates a fresh database in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// recordTestRun journals a run under the default equations.
func recordTestRun(t *testing.T, s *Store, session string, seq int64, input string) ir.Run {
	t.Helper()
	run, err := s.RecordRun(context.Background(), ir.Run{
		Session: session,
		Seq:     seq,
		Input:   input,
		Budget:  1,
		Passes:  1,
		Output:  input,
	}, omegaIsBottom)
	require.NoError(t, err)
	return run
}

func mustLastSeq(t *testing.T, s *Store) int64 {
	t.Helper()
	seq, err := s.LastSeq(context.Background())
	require.NoError(t, err)
	return seq
}
