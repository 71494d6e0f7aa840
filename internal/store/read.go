package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fritzo/libhstar/internal/ir"
)

const runColumns = `id, session, seq, input, budget, passes, output, spent, pending, equations_hash, error, engine_version`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows (wrapped) if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (ir.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err != nil {
		return ir.Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ReadRuns returns the runs of one session, or of every session when
// session is empty. Results are ordered by seq ASC, id ASC.
//
// Returns an empty slice (not nil) if no runs exist.
func (s *Store) ReadRuns(ctx context.Context, session string) ([]ir.Run, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if session == "" {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+runColumns+`
			FROM runs
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT `+runColumns+`
			FROM runs
			WHERE session = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`, session)
	}
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// ReadEquations returns the equation table stored under hash.
// Returns sql.ErrNoRows (wrapped) if not found.
func (s *Store) ReadEquations(ctx context.Context, hash string) ([]ir.Equation, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT equations FROM equation_tables WHERE hash = ?
	`, hash).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("read equations %s: %w", hash, err)
	}
	return unmarshalEquations(data)
}

func scanRun(row scanner) (ir.Run, error) {
	var run ir.Run
	err := row.Scan(
		&run.ID,
		&run.Session,
		&run.Seq,
		&run.Input,
		&run.Budget,
		&run.Passes,
		&run.Output,
		&run.Spent,
		&run.Pending,
		&run.EquationsHash,
		&run.Error,
		&run.EngineVersion,
	)
	if err != nil {
		return ir.Run{}, fmt.Errorf("scan run: %w", err)
	}
	return run, nil
}
