package engine

import (
	"strings"

	"github.com/fritzo/libhstar/internal/term"
)

// Prefix tokens for compound terms.
const (
	TokenApp  = "APP"
	TokenJoin = "JOIN"
)

// parser reads the grammar
//
//	term := ATOM | "APP" term term | "JOIN" term term
//
// over whitespace-separated tokens. Parse output is reduced, not a syntax
// tree: every APP is handed to apply as soon as both operands exist.
type parser struct {
	e      *Engine
	budget *Budget
	tokens []string
	pos    int
}

// parse builds one complete term from text. Callers hold e.mu.
func (e *Engine) parse(text string, budget *Budget) (*term.Term, error) {
	p := &parser{e: e, budget: budget, tokens: strings.Fields(text)}
	t, err := p.term()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, &ParseError{
			Kind:  ParseTrailingTokens,
			Pos:   p.pos,
			Extra: p.tokens[p.pos:],
		}
	}
	return t, nil
}

func (p *parser) term() (*term.Term, error) {
	if p.pos >= len(p.tokens) {
		return nil, &ParseError{Kind: ParseUnexpectedEOF, Pos: p.pos}
	}
	tok := p.tokens[p.pos]
	p.pos++

	switch tok {
	case TokenApp:
		lhs, rhs, err := p.operands()
		if err != nil {
			return nil, err
		}
		return p.e.apply(lhs, rhs, p.budget)
	case TokenJoin:
		lhs, rhs, err := p.operands()
		if err != nil {
			return nil, err
		}
		return p.e.join(lhs, rhs), nil
	}

	if a, ok := term.ParseAtom(tok); ok {
		return p.e.store.Atom(a), nil
	}
	return nil, &ParseError{Kind: ParseUnknownToken, Token: tok, Pos: p.pos - 1}
}

func (p *parser) operands() (*term.Term, *term.Term, error) {
	lhs, err := p.term()
	if err != nil {
		return nil, nil, err
	}
	rhs, err := p.term()
	if err != nil {
		return nil, nil, err
	}
	return lhs, rhs, nil
}
