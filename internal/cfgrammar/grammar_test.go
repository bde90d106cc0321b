package cfgrammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// arithGrammar builds the classic expression grammar used throughout this
// module's tests:
//
//	E -> E + T | T
//	T -> T * F | F
//	F -> ( E ) | int
func arithGrammar() *Grammar {
	g := New()
	plus := g.Token("+")
	star := g.Token("*")
	lparen := g.Token("(")
	rparen := g.Token(")")
	intTok := g.Token("int")

	e := g.Nonterm("E")
	t := g.Nonterm("T")
	f := g.Nonterm("F")

	g.AddProduction(e, []Symbol{NT(e), Tok(plus), NT(t)}, NoPrec, nil)
	g.AddProduction(e, []Symbol{NT(t)}, NoPrec, nil)
	g.AddProduction(t, []Symbol{NT(t), Tok(star), NT(f)}, NoPrec, nil)
	g.AddProduction(t, []Symbol{NT(f)}, NoPrec, nil)
	g.AddProduction(f, []Symbol{Tok(lparen), NT(e), Tok(rparen)}, NoPrec, nil)
	g.AddProduction(f, []Symbol{Tok(intTok)}, NoPrec, nil)

	g.SetStart(e)
	return g
}

func TestGrammar_Validate_OK(t *testing.T) {
	g := arithGrammar()
	errs := g.Validate()
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
}

func TestGrammar_Validate_NoStart(t *testing.T) {
	g := New()
	g.Nonterm("E")
	errs := g.Validate()
	assert.True(t, errs.HasErrors())
}

func TestGrammar_Validate_NonterminalWithNoProductions(t *testing.T) {
	g := arithGrammar()
	g.Nonterm("Unused")
	errs := g.Validate()
	assert.True(t, errs.HasErrors())
}

func TestGrammar_Validate_UnreachableIsWarningOnly(t *testing.T) {
	g := arithGrammar()
	dead := g.Nonterm("Dead")
	g.AddProduction(dead, []Symbol{Tok(g.Token("int"))}, NoPrec, nil)

	errs := g.Validate()
	assert.False(t, errs.HasErrors())
	assert.Len(t, errs.Warnings(), 1)
}

func TestGrammar_Augmented(t *testing.T) {
	g := arithGrammar()
	aug := g.Augmented()

	assert.Equal(t, g.NumProductions()+1, aug.NumProductions())
	assert.NotEqual(t, g.StartSymbol(), aug.StartSymbol())

	startProd := aug.Prod(aug.NT(aug.StartSymbol()).Productions[0])
	assert.Len(t, startProd.RHS, 1)
	assert.False(t, startProd.RHS[0].IsTerminal())
	assert.True(t, aug.IsAugmentedStart(startProd.Index))
}

func TestFirstFollow_Arith(t *testing.T) {
	g := arithGrammar().Augmented()
	ff := ComputeFirstFollow(g)

	e, _ := g.NontermIndexByName("E")
	f, _ := g.NontermIndexByName("F")
	lparen, _ := g.TokenIndexByName("(")
	intTok, _ := g.TokenIndexByName("int")
	plus, _ := g.TokenIndexByName("+")
	rparen, _ := g.TokenIndexByName(")")

	firstE := ff.First(e)
	assert.True(t, firstE.Has(int(lparen)))
	assert.True(t, firstE.Has(int(intTok)))
	assert.False(t, ff.Nullable(e))

	firstF := ff.First(f)
	assert.Equal(t, 2, firstF.Len())

	followE := ff.Follow(e)
	assert.True(t, followE.Has(int(plus)))
	assert.True(t, followE.Has(int(rparen)))
}

func TestFrontend_ParsesDeclarationsAndRules(t *testing.T) {
	src := `
%start E
%token int
%left '+'
%left '*'
%avoid_insert int
%expect 0

%%

E : E '+' T { $$ = add($1, $3) }
  | T
  ;
T : T '*' F { $$ = mul($1, $3) }
  | F
  ;
F : '(' E ')'
  | int
  ;
`
	g, errs := Parse([]byte(src))
	assert.False(t, errs.HasErrors(), "unexpected errors: %v", errs)
	assert.Equal(t, 0, g.Expect)

	e, ok := g.NontermIndexByName("E")
	assert.True(t, ok)
	assert.Equal(t, e, g.StartSymbol())

	intTok, ok := g.TokenIndexByName("int")
	assert.True(t, ok)
	assert.True(t, g.Tok(intTok).AvoidInsert)

	plus, ok := g.TokenIndexByName("'+'")
	assert.True(t, ok)
	assert.Equal(t, AssocLeft, g.Tok(plus).Assoc)

	validateErrs := g.Validate()
	assert.False(t, validateErrs.HasErrors())
}

func TestFrontend_ReportsMissingColon(t *testing.T) {
	src := "%%\nE int ;\n"
	_, errs := Parse([]byte(src))
	assert.True(t, errs.HasErrors())
}
