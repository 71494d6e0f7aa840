package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquations_DefaultOmegaIsBottom(t *testing.T) {
	e := MustNew()
	assert.Equal(t, DefaultEquations(), e.Equations())

	x := mustParse(t, e, Omega)
	assert.Equal(t, "BOT", mustSerialize(t, e, x))

	// Ω in a discarded position vanishes; in a kept one it is BOT.
	assert.Equal(t, "I", mustSerialize(t, e, mustParse(t, e, "APP APP K I "+Omega)))
	assert.Equal(t, "APP K BOT", mustSerialize(t, e, mustParse(t, e, "APP K "+Omega)))
}

func TestEquations_SurviveReset(t *testing.T) {
	e := MustNew()
	require.NoError(t, e.Reset())
	require.NoError(t, e.Reset())
	assert.Equal(t, "BOT", mustSerialize(t, e, mustParse(t, e, Omega)))
}

func TestEquations_NoneInstalled(t *testing.T) {
	e := MustNew(WithEquations(nil))
	assert.Empty(t, e.Equations())

	x := mustParse(t, e, Omega)
	assert.Equal(t, Omega, mustSerialize(t, e, x))
	assert.True(t, e.IsPending(x))
}

func TestEquations_ShortcutReduction(t *testing.T) {
	e := MustNew(WithEquations([]Equation{
		{LHS: "APP APP S K K", RHS: "I"},
	}))

	// S K K x would need one S step; the equation makes it free.
	b := NewBudget(0)
	x, err := e.ParseBudget("APP APP APP S K K B", b)
	require.NoError(t, err)
	assert.Equal(t, "B", mustSerialize(t, e, x))
	assert.False(t, e.IsPending(x))
	assert.Equal(t, 0, b.Spent())
}

func TestEquations_OrderedInstallation(t *testing.T) {
	// The second left side reduces to APP K B through the first equation,
	// so that is the key that gets aliased.
	e := MustNew(WithEquations([]Equation{
		{LHS: "APP APP S K K", RHS: "I"},
		{LHS: "APP APP APP S K K APP K B", RHS: "B"},
	}))

	assert.Equal(t, "B", mustSerialize(t, e, mustParse(t, e, "APP K B")))
	require.NoError(t, e.Validate())
}

func TestEquations_AtomOnLeftIsOriented(t *testing.T) {
	e := MustNew(WithEquations([]Equation{
		{LHS: "BOT", RHS: Omega},
	}))
	assert.Equal(t, "BOT", mustSerialize(t, e, mustParse(t, e, Omega)))
}

func TestEquations_AlreadyHolding(t *testing.T) {
	e, err := New(WithEquations([]Equation{
		{LHS: "APP I K", RHS: "K"},
	}))
	require.NoError(t, err)
	assert.Len(t, e.Equations(), 1)
	assert.Same(t, mustParse(t, e, "K"), mustParse(t, e, "APP I K"))
}

func TestEquations_Errors(t *testing.T) {
	tests := []struct {
		name      string
		equations []Equation
		reason    string
		parseErr  bool
	}{
		{
			name:      "two constants",
			equations: []Equation{{LHS: "K", RHS: "S"}},
			reason:    "equates two distinct constants",
		},
		{
			name:      "bad left side",
			equations: []Equation{{LHS: "APP K", RHS: "I"}},
			reason:    "parsing left-hand side",
			parseErr:  true,
		},
		{
			name:      "bad right side",
			equations: []Equation{{LHS: "APP K I", RHS: "NOPE"}},
			reason:    "parsing right-hand side",
			parseErr:  true,
		},
		{
			name: "second equation fails",
			equations: []Equation{
				{LHS: Omega, RHS: "BOT"},
				{LHS: "TOP", RHS: "BOT"},
			},
			reason: "equates two distinct constants",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(WithEquations(tt.equations))
			require.Error(t, err)
			assert.True(t, IsEquationError(err))
			assert.Equal(t, ErrCodeEquation, CodeOf(err))
			assert.Equal(t, tt.parseErr, IsParseError(err))

			var eqErr *EquationError
			require.ErrorAs(t, err, &eqErr)
			assert.Equal(t, tt.reason, eqErr.Reason)
			assert.Equal(t, len(tt.equations)-1, eqErr.Index)
		})
	}
}

func TestEquation_String(t *testing.T) {
	eq := Equation{LHS: Omega, RHS: "BOT"}
	assert.Equal(t, "APP APP APP S I I APP APP S I I = BOT", eq.String())
}
