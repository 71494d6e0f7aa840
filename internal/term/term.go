package term

import (
	"cmp"
	"strings"
)

// Atom is one of the seven constants of the calculus.
// The zero value is not a valid atom.
type Atom uint8

const (
	TOP Atom = iota + 1
	BOT
	I
	K
	B
	C
	S
)

// numAtoms sizes arrays indexed by Atom (index 0 unused).
const numAtoms = int(S) + 1

var atomNames = [numAtoms]string{
	TOP: "TOP",
	BOT: "BOT",
	I:   "I",
	K:   "K",
	B:   "B",
	C:   "C",
	S:   "S",
}

// Atoms lists every constant in rank order.
func Atoms() []Atom {
	return []Atom{TOP, BOT, I, K, B, C, S}
}

// String returns the token for the atom.
func (a Atom) String() string {
	if a == 0 || int(a) >= numAtoms {
		return "?"
	}
	return atomNames[a]
}

// Valid reports whether a names one of the seven constants.
func (a Atom) Valid() bool {
	return a >= TOP && a <= S
}

// ParseAtom maps a token to its atom.
func ParseAtom(tok string) (Atom, bool) {
	for _, a := range Atoms() {
		if atomNames[a] == tok {
			return a, true
		}
	}
	return 0, false
}

// Kind tags the variant of a Term.
type Kind uint8

const (
	KindAtom Kind = iota + 1
	KindApp
	KindJoin
)

// Token returns the prefix token for compound kinds.
func (k Kind) Token() string {
	switch k {
	case KindApp:
		return "APP"
	case KindJoin:
		return "JOIN"
	case KindAtom:
		return "ATOM"
	default:
		return "?"
	}
}

// Term is an immutable, structurally shared node.
// Compare terms by pointer: the store guarantees one object per shape.
type Term struct {
	kind  Kind
	atom  Atom
	left  *Term
	right *Term
}

// Kind returns the variant tag.
func (t *Term) Kind() Kind { return t.kind }

// Atom returns the constant of an atomic term, or 0.
func (t *Term) Atom() Atom { return t.atom }

// Left returns the left operand of an App or Join, or nil.
func (t *Term) Left() *Term { return t.left }

// Right returns the right operand of an App or Join, or nil.
func (t *Term) Right() *Term { return t.right }

// IsAtom reports whether t is the constant a.
func (t *Term) IsAtom(a Atom) bool {
	return t.kind == KindAtom && t.atom == a
}

// String renders t in prefix notation without consulting any store.
// Use Store.Serialize for checked serialization.
func (t *Term) String() string {
	var sb strings.Builder
	writeTerm(&sb, t)
	return sb.String()
}

func writeTerm(sb *strings.Builder, t *Term) {
	if t == nil {
		sb.WriteString("<nil>")
		return
	}
	switch t.kind {
	case KindAtom:
		sb.WriteString(t.atom.String())
	case KindApp, KindJoin:
		sb.WriteString(t.kind.Token())
		sb.WriteByte(' ')
		writeTerm(sb, t.left)
		sb.WriteByte(' ')
		writeTerm(sb, t.right)
	default:
		sb.WriteString("?")
	}
}

// Compare is the total order used to canonicalize joins.
//
// Atoms precede applications, which precede joins. Atoms are ordered by rank
// (TOP, BOT, I, K, B, C, S); compound terms lexicographically by (left, right).
// The order depends only on structure, never on allocation history.
func Compare(a, b *Term) int {
	if a == b {
		return 0
	}
	if a.kind != b.kind {
		return cmp.Compare(a.kind, b.kind)
	}
	if a.kind == KindAtom {
		return cmp.Compare(a.atom, b.atom)
	}
	if c := Compare(a.left, b.left); c != 0 {
		return c
	}
	return Compare(a.right, b.right)
}

// shape is the structural key of a term: tag plus operand identities.
type shape struct {
	kind  Kind
	atom  Atom
	left  *Term
	right *Term
}

func shapeOf(t *Term) shape {
	return shape{kind: t.kind, atom: t.atom, left: t.left, right: t.right}
}
