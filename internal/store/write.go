package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fritzo/libhstar/internal/ir"
)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// WriteEquations stores an equation table and returns its hash.
// Uses ON CONFLICT(hash) DO NOTHING - the same table is stored once.
func (s *Store) WriteEquations(ctx context.Context, eqs []ir.Equation) (string, error) {
	return writeEquations(ctx, s.db, eqs)
}

func writeEquations(ctx context.Context, db execer, eqs []ir.Equation) (string, error) {
	hash, err := ir.EquationsHash(eqs)
	if err != nil {
		return "", fmt.Errorf("write equations: %w", err)
	}
	data, err := marshalEquations(eqs)
	if err != nil {
		return "", fmt.Errorf("write equations: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO equation_tables (hash, equations)
		VALUES (?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, data)
	if err != nil {
		return "", fmt.Errorf("write equations: %w", err)
	}
	return hash, nil
}

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (a second run at the same session and seq, an
// unknown equations hash) still return errors.
//
// Note: The equation table referenced by EquationsHash must exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run ir.Run) error {
	return writeRun(ctx, s.db, run)
}

func writeRun(ctx context.Context, db execer, run ir.Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: missing id")
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO runs
		(id, session, seq, input, budget, passes, output, spent, pending, equations_hash, error, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Session,
		run.Seq,
		run.Input,
		run.Budget,
		run.Passes,
		run.Output,
		run.Spent,
		run.Pending,
		run.EquationsHash,
		run.Error,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// RecordRun stores the equation table and the run in one transaction.
// EquationsHash and ID are filled in when empty. Returns the stored run.
func (s *Store) RecordRun(ctx context.Context, run ir.Run, eqs []ir.Equation) (ir.Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return run, fmt.Errorf("record run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	hash, err := writeEquations(ctx, tx, eqs)
	if err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	if run.EquationsHash == "" {
		run.EquationsHash = hash
	} else if run.EquationsHash != hash {
		return run, fmt.Errorf("record run: equations hash %s does not match table %s", run.EquationsHash, hash)
	}
	if run.ID == "" {
		if run.ID, err = ir.RunID(run); err != nil {
			return run, fmt.Errorf("record run: %w", err)
		}
	}
	if run.EngineVersion == "" {
		run.EngineVersion = ir.EngineVersion
	}

	if err := writeRun(ctx, tx, run); err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return run, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}
