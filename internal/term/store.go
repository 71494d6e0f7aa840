package term

import (
	"fmt"
	"strings"
)

// Store owns term identities: the canonical table and the pending set.
//
// Each Store is an independent reduction universe. Terms from one store (or
// from before a Reset) are foreign to any other and are rejected by
// Contains and Serialize.
type Store struct {
	atoms    [numAtoms]*Term
	interned map[shape]*Term    // shape -> unique key object
	table    map[*Term]*Term    // key object -> representative
	pending  map[*Term]struct{} // representatives with unfinished reduction
}

// NewStore creates a store seeded with the seven atoms.
func NewStore() *Store {
	s := &Store{}
	s.clear()
	for _, a := range Atoms() {
		s.CreateConst(a)
	}
	return s
}

func (s *Store) clear() {
	s.interned = make(map[shape]*Term)
	s.table = make(map[*Term]*Term)
	s.pending = make(map[*Term]struct{})
}

// CreateConst registers a brand-new atomic term.
//
// Panics if the atom is already registered: constants are created exactly
// once per store.
func (s *Store) CreateConst(a Atom) *Term {
	if !a.Valid() {
		panic(fmt.Sprintf("term: invalid atom %d", a))
	}
	if s.atoms[a] != nil {
		panic(fmt.Sprintf("term: constant %s already exists", a))
	}
	t := &Term{kind: KindAtom, atom: a}
	s.atoms[a] = t
	s.insertSelf(t)
	return t
}

// Atom returns the unique term for constant a.
func (s *Store) Atom(a Atom) *Term {
	if !a.Valid() {
		panic(fmt.Sprintf("term: invalid atom %d", a))
	}
	return s.atoms[a]
}

// Reset clears the canonical table and the pending set, then re-inserts
// every constant as self-canonical. Atom objects survive a reset; all
// compound terms built before it become foreign.
func (s *Store) Reset() {
	s.clear()
	for _, a := range Atoms() {
		s.insertSelf(s.atoms[a])
	}
}

func (s *Store) insertSelf(t *Term) {
	s.interned[shapeOf(t)] = t
	s.table[t] = t
}

// intern returns the key object for a compound shape, inserting it as
// self-canonical when absent.
func (s *Store) intern(kind Kind, left, right *Term) *Term {
	sh := shape{kind: kind, left: left, right: right}
	if t, ok := s.interned[sh]; ok {
		return t
	}
	t := &Term{kind: kind, left: left, right: right}
	s.insertSelf(t)
	return t
}

// resolve follows the alias chain from key to its terminal representative,
// compressing the path. Returns nil if key is not in the table.
func (s *Store) resolve(key *Term) *Term {
	rep, ok := s.table[key]
	if !ok {
		return nil
	}
	if rep == key {
		return key
	}
	root := rep
	for {
		next := s.table[root]
		if next == root || next == nil {
			break
		}
		root = next
	}
	for t := key; t != root; {
		next := s.table[t]
		s.table[t] = root
		t = next
	}
	return root
}

// mark sets or clears pending membership. Atoms are never pending.
func (s *Store) mark(t *Term, pending bool) {
	if t.kind == KindAtom {
		return
	}
	if pending {
		s.pending[t] = struct{}{}
	} else {
		delete(s.pending, t)
	}
}

// MakeApp hash-conses App(left, right) and returns its current
// representative, setting or clearing that representative's pending mark
// according to pending.
func (s *Store) MakeApp(left, right *Term, pending bool) *Term {
	rep := s.resolve(s.intern(KindApp, left, right))
	s.mark(rep, pending)
	return rep
}

// MakeJoin is MakeApp for joins.
//
// Panics unless Compare(left, right) < 0: callers order operands and
// collapse equal ones before calling.
func (s *Store) MakeJoin(left, right *Term, pending bool) *Term {
	if Compare(left, right) >= 0 {
		panic(fmt.Sprintf("term: join operands out of order: %s, %s", left, right))
	}
	rep := s.resolve(s.intern(KindJoin, left, right))
	s.mark(rep, pending)
	return rep
}

// Lookup returns the representative for an existing compound key and its
// pending status. ok is false if the key has never been constructed.
func (s *Store) Lookup(kind Kind, left, right *Term) (rep *Term, pending bool, ok bool) {
	key, found := s.interned[shape{kind: kind, left: left, right: right}]
	if !found {
		return nil, false, false
	}
	rep = s.resolve(key)
	_, pending = s.pending[rep]
	return rep, pending, true
}

// Representative returns the terminal representative of t, or nil if t is
// not in the table.
func (s *Store) Representative(t *Term) *Term {
	if !s.Contains(t) {
		return nil
	}
	return s.resolve(t)
}

// Alias points key at rep and removes key from the pending set.
//
// Returns false, changing nothing, when key is an atom, either term is not
// in the table, or the alias would close a cycle.
func (s *Store) Alias(key, rep *Term) bool {
	if key == rep || key.kind == KindAtom {
		return false
	}
	if !s.Contains(key) || !s.Contains(rep) {
		return false
	}
	for t := rep; ; {
		if t == key {
			return false
		}
		next := s.table[t]
		if next == t {
			break
		}
		t = next
	}
	s.table[key] = rep
	delete(s.pending, key)
	return true
}

// Memoize records head as the reduction of App(left, right).
//
// If the key's representative is already head, its pending mark is set from
// pending. Otherwise the key is aliased to head and leaves the pending set.
func (s *Store) Memoize(left, right, head *Term, pending bool) {
	key := s.intern(KindApp, left, right)
	rep := s.resolve(key)
	if rep == head {
		s.mark(head, pending)
		return
	}
	if !s.Alias(key, head) {
		// head already resolves through key; key stays the more canonical form.
		s.mark(rep, pending)
	}
}

// IsPending reports whether t is in the pending set.
func (s *Store) IsPending(t *Term) bool {
	_, ok := s.pending[t]
	return ok
}

// Contains reports whether t is a term of this store (a key in the table).
func (s *Store) Contains(t *Term) bool {
	if t == nil {
		return false
	}
	return s.interned[shapeOf(t)] == t
}

// Len returns the number of keys in the canonical table.
func (s *Store) Len() int {
	return len(s.table)
}

// PendingLen returns the size of the pending set.
func (s *Store) PendingLen() int {
	return len(s.pending)
}

// Aliases returns the number of keys that are not self-canonical.
func (s *Store) Aliases() int {
	n := 0
	for key, rep := range s.table {
		if key != rep {
			n++
		}
	}
	return n
}

// Validate checks the store invariants.
// Returns the first violation found as an *InvariantError.
func (s *Store) Validate() error {
	for key, rep := range s.table {
		if s.interned[shapeOf(key)] != key {
			return &InvariantError{Check: "key_interned", Term: key.String()}
		}
		if _, ok := s.table[rep]; !ok {
			return &InvariantError{Check: "representative_present", Term: key.String(),
				Detail: fmt.Sprintf("representative %s missing", rep)}
		}
		if key != rep && s.IsPending(key) {
			return &InvariantError{Check: "alias_not_pending", Term: key.String()}
		}
	}
	for _, a := range Atoms() {
		t := s.atoms[a]
		if s.table[t] != t {
			return &InvariantError{Check: "atom_self_canonical", Term: a.String()}
		}
		if s.IsPending(t) {
			return &InvariantError{Check: "atom_not_pending", Term: a.String()}
		}
	}
	for t := range s.pending {
		if !s.Contains(t) {
			return &InvariantError{Check: "pending_present", Term: t.String()}
		}
	}
	return nil
}

// Serialize renders t in prefix notation.
//
// This is a pure structural walk: it performs no reduction. Every subterm
// must belong to this store.
func (s *Store) Serialize(t *Term) (string, error) {
	tokens, err := s.AppendTokens(nil, t)
	if err != nil {
		return "", err
	}
	return strings.Join(tokens, " "), nil
}

// AppendTokens appends the prefix tokens of t to tokens.
func (s *Store) AppendTokens(tokens []string, t *Term) ([]string, error) {
	if !s.Contains(t) {
		return tokens, &SerializationError{Term: t.String(), Reason: "term not in canonical table"}
	}
	switch t.kind {
	case KindAtom:
		return append(tokens, t.atom.String()), nil
	case KindApp, KindJoin:
		tokens = append(tokens, t.kind.Token())
		tokens, err := s.AppendTokens(tokens, t.left)
		if err != nil {
			return tokens, err
		}
		return s.AppendTokens(tokens, t.right)
	default:
		return tokens, &SerializationError{Term: t.String(), Reason: fmt.Sprintf("unrecognized variant %d", t.kind)}
	}
}
