package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fritzo/libhstar/internal/term"
)

// mustSerialize serializes t or fails the test.
func mustSerialize(t *testing.T, e *Engine, x *term.Term) string {
	t.Helper()
	s, err := e.Serialize(x)
	require.NoError(t, err)
	return s
}

// mustParse parses text with an empty budget or fails the test.
func mustParse(t *testing.T, e *Engine, text string) *term.Term {
	t.Helper()
	x, err := e.Parse(text)
	require.NoError(t, err, "parse %q", text)
	return x
}

func TestParse_Simplifies(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"I", "I"},
		{"K", "K"},
		{"B", "B"},
		{"C", "C"},
		{"S", "S"},
		{"TOP", "TOP"},
		{"BOT", "BOT"},
		{"APP I I", "I"},
		{"APP I K", "K"},
		{"APP K I", "APP K I"},
		{"APP K APP I I", "APP K I"},
		{"APP APP K B C", "B"},
		{"APP B I", "APP B I"},
		{"APP APP B I K", "APP APP B I K"},
		{"APP APP APP B I K B", "APP K B"},
		{"APP C I", "APP C I"},
		{"APP APP C I K", "APP APP C I K"},
		{"APP APP APP C I K B", "APP B K"},
		{"APP S I", "APP S I"},
		{"APP APP S I K", "APP APP S I K"},
		{"APP APP APP S I K B", "APP APP APP S I K B"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := MustNew()
			got := mustParse(t, e, tt.input)
			assert.Equal(t, tt.want, mustSerialize(t, e, got))
		})
	}
}

func TestNormalize_BudgetExactStepping(t *testing.T) {
	tests := []struct {
		input  string
		budget int
		want   string
	}{
		{"APP APP APP S I K B", 0, "APP APP APP S I K B"},
		{"APP APP APP S I K B", 1, "APP B APP K B"},
		{"APP APP APP S I K B", 2, "APP B APP K B"},
		{"APP APP APP S K K B", 1, "B"},
		{"APP APP APP S K K APP APP APP S K K C", 0, "APP APP APP S K K APP APP APP S K K C"},
		{"APP APP APP S K K APP APP APP S K K C", 1, "APP APP APP S K K C"},
		{"APP APP APP S K K APP APP APP S K K C", 2, "C"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e := MustNew()
			x := mustParse(t, e, tt.input)

			got, err := e.Normalize(x, NewBudget(tt.budget))
			require.NoError(t, err)
			assert.Equal(t, tt.want, mustSerialize(t, e, got))
		})
	}
}

func TestNormalize_PendingMarks(t *testing.T) {
	e := MustNew()
	x := mustParse(t, e, "APP APP APP S I K B")
	assert.True(t, e.IsPending(x), "S redex without budget is pending")

	got, err := e.Normalize(x, NewBudget(1))
	require.NoError(t, err)
	assert.False(t, e.IsPending(got))
	assert.False(t, e.IsPending(x), "the reduced key leaves the pending set")

	// Terms in normal form for lack of arguments are not pending.
	assert.False(t, e.IsPending(mustParse(t, e, "APP S I")))
	assert.False(t, e.IsPending(mustParse(t, e, "APP K I")))
	require.NoError(t, e.Validate())
}

func TestApply_StaleFoldMarkClears(t *testing.T) {
	e := MustNew()
	x := mustParse(t, e, "APP APP APP S I K B")
	si := x.Left().Left()
	require.Equal(t, "APP S I", mustSerialize(t, e, si))

	// Folding under the stuck redex marks S I along with its parents.
	assert.True(t, e.IsPending(si))

	// A pending S redex stays pending without budget.
	b := NewBudget(0)
	again, err := e.Normalize(x, b)
	require.NoError(t, err)
	assert.Same(t, x, again)
	assert.True(t, e.IsPending(again))
	assert.Equal(t, 0, b.Spent())

	// S with one argument is a normal form. Resuming from the marked entry
	// finds nothing to reduce and clears the mark at no cost.
	b = NewBudget(0)
	got, err := e.Apply(e.Atom(term.S), e.Atom(term.I), b)
	require.NoError(t, err)
	assert.Same(t, si, got)
	assert.False(t, e.IsPending(got))
	assert.Equal(t, 0, b.Spent())
	require.NoError(t, e.Validate())
}

func TestNormalize_ResumesIncrementally(t *testing.T) {
	e := MustNew()
	x := mustParse(t, e, "APP APP APP S K K APP APP APP S K K C")

	first, err := e.Normalize(x, NewBudget(1))
	require.NoError(t, err)
	assert.Equal(t, "APP APP APP S K K C", mustSerialize(t, e, first))
	assert.True(t, e.IsPending(first))

	// Re-normalizing the original term continues from the partial result.
	b := NewBudget(1)
	second, err := e.Normalize(x, b)
	require.NoError(t, err)
	assert.Equal(t, "C", mustSerialize(t, e, second))
	assert.Equal(t, 1, b.Spent(), "only the remaining S step is paid for")

	// Fully reduced results are served from the cache at no cost.
	b = NewBudget(0)
	third, err := e.Normalize(x, b)
	require.NoError(t, err)
	assert.Same(t, second, third)
	assert.Equal(t, 0, b.Spent())

	// The partial result itself now resolves to the normal form too.
	again, err := e.Normalize(first, NewBudget(0))
	require.NoError(t, err)
	assert.Same(t, second, again)
	require.NoError(t, e.Validate())
}

func TestApply_Absorption(t *testing.T) {
	args := []string{
		"I",
		"APP K I",
		"JOIN K S",
		"APP APP APP S I K B",
		Omega,
	}

	for _, absorber := range []string{"TOP", "BOT"} {
		for _, arg := range args {
			for _, budget := range []int{0, 1, 5} {
				e := MustNew(WithEquations(nil))
				x := mustParse(t, e, "APP "+absorber+" "+arg)

				got, err := e.Normalize(x, NewBudget(budget))
				require.NoError(t, err)
				assert.Equal(t, absorber, mustSerialize(t, e, got), "%s applied to %s at budget %d", absorber, arg, budget)
			}
		}
	}

	e := MustNew()
	assert.Equal(t, "TOP", mustSerialize(t, e, mustParse(t, e, "APP APP APP TOP K S B")))
}

// TestApply_KIsLazy checks that K never normalizes its discarded argument.
func TestApply_KIsLazy(t *testing.T) {
	e := MustNew()

	// Parses fine at budget 0 (the S redex is left pending), but normalizing
	// it puts a join in head position.
	bad := mustParse(t, e, "APP APP APP S APP K JOIN K S I I")
	_, err := e.Normalize(bad, NewBudget(1))
	require.Error(t, err)
	require.True(t, IsUnsupportedReduction(err))

	ki := mustParse(t, e, "APP K I")
	got, err := e.Apply(ki, bad, NewBudget(5))
	require.NoError(t, err)
	assert.Equal(t, "I", mustSerialize(t, e, got))

	parsed := mustParse(t, e, "APP APP K I APP APP APP S APP K JOIN K S I I")
	assert.Equal(t, "I", mustSerialize(t, e, parsed))
}

func TestApply_JoinHeadIsUnsupported(t *testing.T) {
	e := MustNew()

	_, err := e.Parse("APP JOIN K S I")
	require.Error(t, err)
	assert.True(t, IsUnsupportedReduction(err))
	assert.Equal(t, ErrCodeUnsupportedReduction, CodeOf(err))

	var ue *UnsupportedReductionError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "JOIN K S", ue.Head)
	assert.Equal(t, 1, ue.Args)

	// A join with no arguments is just returned.
	got := mustParse(t, e, "APP I JOIN K S")
	assert.Equal(t, "JOIN K S", mustSerialize(t, e, got))
}

func TestApply_Combinators(t *testing.T) {
	e := MustNew()
	i, k, b, c, s := e.Atom(term.I), e.Atom(term.K), e.Atom(term.B), e.Atom(term.C), e.Atom(term.S)

	apply := func(x, y *term.Term) *term.Term {
		t.Helper()
		got, err := e.Apply(x, y, NewBudget(10))
		require.NoError(t, err)
		return got
	}

	// B K I S = K (I S) = K S
	assert.Same(t, apply(k, s), apply(apply(apply(b, k), i), s))
	// C K I S = K S I = S
	assert.Same(t, s, apply(apply(apply(c, k), i), s))
	// S K I B = K B (I B) = B
	assert.Same(t, b, apply(apply(apply(s, k), i), b))
	// I x = x
	assert.Same(t, c, apply(i, c))
}

func TestNormalize_JoinOperands(t *testing.T) {
	e := MustNew()
	x := mustParse(t, e, "JOIN APP APP APP S K K B APP APP APP S K K C")
	assert.Equal(t, "JOIN APP APP APP S K K B APP APP APP S K K C", mustSerialize(t, e, x))
	assert.True(t, e.IsPending(x))

	got, err := e.Normalize(x, NewBudget(2))
	require.NoError(t, err)
	assert.Equal(t, "JOIN B C", mustSerialize(t, e, got))
	assert.False(t, e.IsPending(got))

	// Operands that normalize to the same term collapse.
	y := mustParse(t, e, "JOIN APP APP APP S K K B B")
	got, err = e.Normalize(y, NewBudget(1))
	require.NoError(t, err)
	assert.Equal(t, "B", mustSerialize(t, e, got))
}

func TestNormalize_DivergentTermStaysBounded(t *testing.T) {
	e := MustNew(WithEquations(nil))
	omega := mustParse(t, e, Omega)
	require.True(t, e.IsPending(omega))

	b := NewBudget(10)
	got, err := e.Normalize(omega, b)
	require.NoError(t, err)
	assert.Equal(t, Omega, mustSerialize(t, e, got))
	assert.True(t, e.IsPending(got))
	assert.Equal(t, 10, b.Spent())
	require.NoError(t, e.Validate())
}
