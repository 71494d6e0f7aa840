package store

import (
	"encoding/json"
	"fmt"

	"github.com/fritzo/libhstar/internal/ir"
)

// marshalEquations converts an equation table to canonical JSON TEXT.
// The stored text hashes to the table's key under ir.EquationsHash.
func marshalEquations(eqs []ir.Equation) (string, error) {
	arr := make(ir.Array, len(eqs))
	for i, eq := range eqs {
		arr[i] = eq.Value()
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal equations: %w", err)
	}
	return string(data), nil
}

// unmarshalEquations parses equations JSON TEXT from the database.
// Returns an empty (non-nil) slice for an empty table.
func unmarshalEquations(data string) ([]ir.Equation, error) {
	eqs := []ir.Equation{}
	if err := json.Unmarshal([]byte(data), &eqs); err != nil {
		return nil, fmt.Errorf("unmarshal equations: %w", err)
	}
	return eqs, nil
}
