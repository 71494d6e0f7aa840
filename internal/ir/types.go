package ir

import "fmt"

// Equation declares LHS and RHS equal. Both sides are prefix term text.
type Equation struct {
	LHS string `json:"lhs" yaml:"lhs"`
	RHS string `json:"rhs" yaml:"rhs"`
}

// String renders the equation as "lhs = rhs".
func (eq Equation) String() string {
	return fmt.Sprintf("%s = %s", eq.LHS, eq.RHS)
}

// Value returns the equation as a canonical object.
func (eq Equation) Value() Object {
	return Object{
		"lhs": String(eq.LHS),
		"rhs": String(eq.RHS),
	}
}

// Run records one normalization performed through the CLI.
//
// A run is identified by its inputs (session, seq, input, budget and the
// equation table it ran under), never by its outputs, so replaying a run
// must reproduce Output and Pending exactly.
type Run struct {
	ID            string `json:"id"`             // Content-addressed hash (RunID)
	Session       string `json:"session"`        // Session token (UUIDv7)
	Seq           int64  `json:"seq"`            // Logical clock
	Input         string `json:"input"`          // Term text as given
	Budget        int64  `json:"budget"`         // S-step allowance per pass
	Passes        int64  `json:"passes"`         // Normalize passes allowed (>= 1)
	Output        string `json:"output"`         // Serialized result; empty on error
	Spent         int64  `json:"spent"`          // Budget units consumed over all passes
	Pending       bool   `json:"pending"`        // Result still has unreduced S redexes
	EquationsHash string `json:"equations_hash"` // EquationsHash of the table in force
	Error         string `json:"error,omitempty"`
	EngineVersion string `json:"engine_version"`
}

// Session summarizes the runs recorded under one session token.
type Session struct {
	Token    string `json:"token"`
	Runs     int64  `json:"runs"`
	FirstSeq int64  `json:"first_seq"`
	LastSeq  int64  `json:"last_seq"`
}
