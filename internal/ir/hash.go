package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRun       = "hstar/run/v1"
	DomainEquations = "hstar/equations/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EquationsHash identifies an equation table. Order matters: equations are
// installed in sequence and later ones see the effects of earlier ones.
func EquationsHash(eqs []Equation) (string, error) {
	arr := make(Array, len(eqs))
	for i, eq := range eqs {
		arr[i] = eq.Value()
	}

	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("EquationsHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEquations, canonical), nil
}

// RunID computes the content-addressed ID of a run from its inputs.
// Outputs are excluded: a replayed run has the same ID and must produce the
// same outputs.
func RunID(r Run) (string, error) {
	obj := Object{
		"session":        String(r.Session),
		"seq":            Int(r.Seq),
		"input":          String(r.Input),
		"budget":         Int(r.Budget),
		"passes":         Int(r.Passes),
		"equations_hash": String(r.EquationsHash),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RunID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRun, canonical), nil
}

// MustEquationsHash is like EquationsHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEquationsHash(eqs []Equation) string {
	h, err := EquationsHash(eqs)
	if err != nil {
		panic(err)
	}
	return h
}

// MustRunID is like RunID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRunID(r Run) string {
	id, err := RunID(r)
	if err != nil {
		panic(err)
	}
	return id
}
