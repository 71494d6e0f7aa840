package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fritzo/libhstar/internal/ir"
)

func TestWriteEquations_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	h1, err := s.WriteEquations(ctx, omegaIsBottom)
	require.NoError(t, err)
	h2, err := s.WriteEquations(ctx, omegaIsBottom)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Equal(t, ir.MustEquationsHash(omegaIsBottom), h1)

	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM equation_tables").Scan(&count))
	assert.Equal(t, 1, count)

	eqs, err := s.ReadEquations(ctx, h1)
	require.NoError(t, err)
	assert.Equal(t, omegaIsBottom, eqs)
}

func TestWriteEquations_Empty(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	h, err := s.WriteEquations(ctx, nil)
	require.NoError(t, err)

	eqs, err := s.ReadEquations(ctx, h)
	require.NoError(t, err)
	assert.NotNil(t, eqs)
	assert.Empty(t, eqs)
}

func TestRecordRun_FillsIdentity(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	run, err := s.RecordRun(ctx, ir.Run{
		Session: "session-1",
		Seq:     1,
		Input:   "APP APP APP S I K B",
		Budget:  1,
		Passes:  1,
		Output:  "APP B APP K B",
		Spent:   1,
	}, omegaIsBottom)
	require.NoError(t, err)

	assert.Equal(t, ir.MustEquationsHash(omegaIsBottom), run.EquationsHash)
	assert.Equal(t, ir.MustRunID(run), run.ID)
	assert.Equal(t, ir.EngineVersion, run.EngineVersion)

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestRecordRun_RejectsMismatchedHash(t *testing.T) {
	s := createTestStore(t)

	_, err := s.RecordRun(context.Background(), ir.Run{
		Session:       "session-1",
		Seq:           1,
		Input:         "K",
		EquationsHash: "not-the-hash",
	}, omegaIsBottom)
	assert.Error(t, err)

	runs, err := s.ReadRuns(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, runs, "failed transaction must not leave a run behind")
}

func TestWriteRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	run := recordTestRun(t, s, "session-1", 1, "APP K I")

	require.NoError(t, s.WriteRun(ctx, run))
	runs, err := s.ReadRuns(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRun_Constraints(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	run := recordTestRun(t, s, "session-1", 1, "APP K I")

	t.Run("missing id", func(t *testing.T) {
		r := run
		r.ID = ""
		assert.Error(t, s.WriteRun(ctx, r))
	})

	t.Run("duplicate session and seq", func(t *testing.T) {
		r := run
		r.ID = "different-id"
		assert.Error(t, s.WriteRun(ctx, r))
	})

	t.Run("unknown equation table", func(t *testing.T) {
		r := run
		r.ID = "another-id"
		r.Seq = 2
		r.EquationsHash = "missing"
		assert.Error(t, s.WriteRun(ctx, r), "foreign key must be enforced")
	})
}

func TestReadRun_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadRun(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = s.ReadEquations(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestReadRun_PreservesFields(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	run, err := s.RecordRun(ctx, ir.Run{
		Session: "session-1",
		Seq:     7,
		Input:   "APP JOIN K S I",
		Budget:  3,
		Passes:  2,
		Spent:   0,
		Pending: true,
		Error:   "reduction of join in head position is not implemented",
	}, nil)
	require.NoError(t, err)

	got, err := s.ReadRun(ctx, run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("ReadRun mismatch (-recorded +read):\n%s", diff)
	}
	assert.True(t, got.Pending)
	assert.Equal(t, int64(2), got.Passes)
	assert.Equal(t, run.Error, got.Error)
	assert.Empty(t, got.Output)
}
