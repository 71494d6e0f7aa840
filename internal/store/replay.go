package store

import (
	"context"
	"fmt"

	"github.com/fritzo/libhstar/internal/ir"
)

// ReplayRun pairs a journaled run with the equation table it ran under.
type ReplayRun struct {
	Run       ir.Run
	Equations []ir.Equation
}

// ReplaySession returns every run of a session (all sessions when session is
// empty) in seq order, each with its equation table resolved.
// Tables are read once per distinct hash.
func (s *Store) ReplaySession(ctx context.Context, session string) ([]ReplayRun, error) {
	runs, err := s.ReadRuns(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("replay session: %w", err)
	}

	tables := make(map[string][]ir.Equation)
	out := make([]ReplayRun, 0, len(runs))
	for _, run := range runs {
		eqs, ok := tables[run.EquationsHash]
		if !ok {
			eqs, err = s.ReadEquations(ctx, run.EquationsHash)
			if err != nil {
				return nil, fmt.Errorf("replay session: run %s: %w", run.ID, err)
			}
			tables[run.EquationsHash] = eqs
		}
		out = append(out, ReplayRun{Run: run, Equations: eqs})
	}
	return out, nil
}

// LastSeq returns the highest seq in the journal, or 0 if it is empty.
// A Clock resumed with NewClockAt(LastSeq) never reissues a seq.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM runs
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// ListSessions summarizes every session, ordered by first seq.
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ListSessions(ctx context.Context) ([]ir.Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session, COUNT(*), MIN(seq), MAX(seq)
		FROM runs
		GROUP BY session
		ORDER BY MIN(seq) ASC, session COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ir.Session{}
	for rows.Next() {
		var sess ir.Session
		if err := rows.Scan(&sess.Token, &sess.Runs, &sess.FirstSeq, &sess.LastSeq); err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: iterate: %w", err)
	}
	return sessions, nil
}
