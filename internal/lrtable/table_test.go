package lrtable

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// arithGrammarWithPrecedence builds the same classic, genuinely-ambiguous-without-
// precedence expression grammar used by cfgrammar's tests, but expressed
// with operators folded flat (E -> E + E | E * E | ( E ) | int) and
// disambiguated via %left precedence declarations instead of the
// stratified E/T/F encoding, to exercise conflict resolution.
func arithGrammarWithPrecedence() *cfgrammar.Grammar {
	g := cfgrammar.New()
	plus := g.Token("+")
	star := g.Token("*")
	lparen := g.Token("(")
	rparen := g.Token(")")
	intTok := g.Token("int")

	g.SetPrecedence(plus, 1, cfgrammar.AssocLeft)
	g.SetPrecedence(star, 2, cfgrammar.AssocLeft)

	e := g.Nonterm("E")
	// Productions carry the precedence of their rightmost terminal, the
	// same inference the grammar-source frontend performs automatically
	// for a rule with no explicit %prec override.
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(e), cfgrammar.Tok(plus), cfgrammar.NT(e)}, g.Tok(plus).Prec, nil)
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(e), cfgrammar.Tok(star), cfgrammar.NT(e)}, g.Tok(star).Prec, nil)
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.Tok(lparen), cfgrammar.NT(e), cfgrammar.Tok(rparen)}, cfgrammar.NoPrec, nil)
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.Tok(intTok)}, cfgrammar.NoPrec, nil)

	g.SetStart(e)
	return g
}

func TestBuild_StratifiedGrammarHasNoConflicts(t *testing.T) {
	g := cfgrammar.New()
	plus := g.Token("+")
	star := g.Token("*")
	lparen := g.Token("(")
	rparen := g.Token(")")
	intTok := g.Token("int")

	e := g.Nonterm("E")
	tt := g.Nonterm("T")
	f := g.Nonterm("F")
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(e), cfgrammar.Tok(plus), cfgrammar.NT(tt)}, cfgrammar.NoPrec, nil)
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(tt)}, cfgrammar.NoPrec, nil)
	g.AddProduction(tt, []cfgrammar.Symbol{cfgrammar.NT(tt), cfgrammar.Tok(star), cfgrammar.NT(f)}, cfgrammar.NoPrec, nil)
	g.AddProduction(tt, []cfgrammar.Symbol{cfgrammar.NT(f)}, cfgrammar.NoPrec, nil)
	g.AddProduction(f, []cfgrammar.Symbol{cfgrammar.Tok(lparen), cfgrammar.NT(e), cfgrammar.Tok(rparen)}, cfgrammar.NoPrec, nil)
	g.AddProduction(f, []cfgrammar.Symbol{cfgrammar.Tok(intTok)}, cfgrammar.NoPrec, nil)
	g.SetStart(e)

	tables, errs := Build(g, BuildConfig{})
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
	assert.Empty(t, tables.Conflicts)
	assert.Greater(t, tables.NumStates(), 0)
}

// ambiguousGrammarWithoutPrecedence has a genuine, undeclared shift/reduce
// ambiguity (no %left/%right/%nonassoc for '+' at all), so every conflict
// it produces is resolved by the universal shift-wins default rather than
// by precedence.
func ambiguousGrammarWithoutPrecedence() *cfgrammar.Grammar {
	g := cfgrammar.New()
	plus := g.Token("+")
	intTok := g.Token("int")

	e := g.Nonterm("E")
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(e), cfgrammar.Tok(plus), cfgrammar.NT(e)}, cfgrammar.NoPrec, nil)
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.Tok(intTok)}, cfgrammar.NoPrec, nil)
	g.SetStart(e)
	return g
}

func TestBuild_FlatGrammarResolvedByPrecedence(t *testing.T) {
	// %left/%right disambiguation is not a real conflict for %expect
	// purposes: the default budget of 0 must accept it without the caller
	// having to opt in via AllowExtraConflicts.
	g := arithGrammarWithPrecedence()
	tables, errs := Build(g, BuildConfig{})
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
	assert.NotEmpty(t, tables.Conflicts)
	for _, c := range tables.Conflicts {
		assert.Equal(t, ResolutionPrecedence, c.Chosen.ResolvedBy)
	}
}

func TestBuild_ExpectMismatchReportsError(t *testing.T) {
	g := ambiguousGrammarWithoutPrecedence()
	g.Expect = 0
	_, errs := Build(g, BuildConfig{})
	assert.True(t, errs.HasErrors())
}

func TestBuild_ExpectBudgetCoveringUnresolvedConflictsSucceeds(t *testing.T) {
	probe := ambiguousGrammarWithoutPrecedence()
	tables, errs := Build(probe, BuildConfig{AllowExtraConflicts: true})
	assert.False(t, errs.HasErrors())

	unresolved := 0
	for _, c := range tables.Conflicts {
		assert.Equal(t, ResolutionShiftDefault, c.Chosen.ResolvedBy)
		unresolved++
	}
	assert.Greater(t, unresolved, 0)

	g := ambiguousGrammarWithoutPrecedence()
	g.Expect = unresolved
	_, errs = Build(g, BuildConfig{})
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
}

func TestSerialize_RoundTrip(t *testing.T) {
	g := arithGrammarWithPrecedence()
	tables, errs := Build(g, BuildConfig{AllowExtraConflicts: true})
	assert.False(t, errs.HasErrors())

	data, err := Serialize(tables)
	assert.NoError(t, err)

	restored, err := Deserialize(data, g)
	assert.NoError(t, err)
	assert.Equal(t, tables.NumStates(), restored.NumStates())
	assert.Equal(t, len(tables.Conflicts), len(restored.Conflicts))
}

func TestSerialize_DetectsStaleGrammar(t *testing.T) {
	g := arithGrammarWithPrecedence()
	tables, _ := Build(g, BuildConfig{AllowExtraConflicts: true})
	data, err := Serialize(tables)
	assert.NoError(t, err)

	other := arithGrammarWithPrecedence()
	other.Token("extra")
	_, err = Deserialize(data, other)
	assert.Error(t, err)
}
