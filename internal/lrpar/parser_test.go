package lrpar

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
	"github.com/pachanoid/gudgeon/internal/diag"
	"github.com/pachanoid/gudgeon/internal/lexer"
	"github.com/pachanoid/gudgeon/internal/lrtable"
)

// arithTokens names the terminal indices the stratified arithmetic grammar
// below declares, returned alongside the built Tables so tests can build
// lexeme streams without re-deriving indices.
type arithTokens struct {
	plus, star, lparen, rparen, intTok, eof cfgrammar.TokenIndex
}

// buildArithTables constructs the classic stratified E/T/F expression
// grammar (E -> E + T | T; T -> T * F | F; F -> ( E ) | int), which is
// LALR(1) with no conflicts, so +/* associativity and precedence fall out
// of the grammar shape itself rather than needing %left/%right.
func buildArithTables(t *testing.T) (*lrtable.Tables, arithTokens) {
	t.Helper()
	g := cfgrammar.New()
	toks := arithTokens{
		plus:   g.Token("+"),
		star:   g.Token("*"),
		lparen: g.Token("("),
		rparen: g.Token(")"),
		intTok: g.Token("int"),
		eof:    g.EOF(),
	}

	e := g.Nonterm("E")
	tt := g.Nonterm("T")
	f := g.Nonterm("F")
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(e), cfgrammar.Tok(toks.plus), cfgrammar.NT(tt)}, cfgrammar.NoPrec, nil)
	g.AddProduction(e, []cfgrammar.Symbol{cfgrammar.NT(tt)}, cfgrammar.NoPrec, nil)
	g.AddProduction(tt, []cfgrammar.Symbol{cfgrammar.NT(tt), cfgrammar.Tok(toks.star), cfgrammar.NT(f)}, cfgrammar.NoPrec, nil)
	g.AddProduction(tt, []cfgrammar.Symbol{cfgrammar.NT(f)}, cfgrammar.NoPrec, nil)
	g.AddProduction(f, []cfgrammar.Symbol{cfgrammar.Tok(toks.lparen), cfgrammar.NT(e), cfgrammar.Tok(toks.rparen)}, cfgrammar.NoPrec, nil)
	g.AddProduction(f, []cfgrammar.Symbol{cfgrammar.Tok(toks.intTok)}, cfgrammar.NoPrec, nil)
	g.SetStart(e)

	tables, errs := lrtable.Build(g, lrtable.BuildConfig{})
	require.False(t, errs.HasErrors(), "unexpected build errors: %v", errs)
	require.Empty(t, tables.Conflicts)
	return tables, toks
}

// arithAction returns an ActionFunc evaluating reductions of the grammar
// buildArithTables builds, resolving an int leaf's literal value via lex.
// An inserted int token (synthesized by CPCT+ recovery, a zero-width span
// with no real source behind it) evaluates as zero rather than erroring.
func arithAction(lex lexer.Lexer) ActionFunc[int] {
	return func(prod cfgrammar.ProductionIndex, children []int, span diag.Span) (int, error) {
		switch int(prod) {
		case 0: // E -> E + T
			return children[0] + children[2], nil
		case 1: // E -> T
			return children[0], nil
		case 2: // T -> T * F
			return children[0] * children[2], nil
		case 3: // T -> F
			return children[0], nil
		case 4: // F -> ( E )
			return children[1], nil
		case 5: // F -> int
			text := lex.Text(span)
			if len(text) == 0 {
				return 0, nil
			}
			n, err := strconv.Atoi(string(text))
			if err != nil {
				return 0, nil
			}
			return n, nil
		default:
			return 0, nil
		}
	}
}

// lexemeBuilder assembles a []lexer.Lexeme alongside the source buffer its
// spans index into, so tests can build realistic byte-backed lexeme
// streams instead of lexemes whose spans point nowhere.
type lexemeBuilder struct {
	source []byte
	toks   []lexer.Lexeme
}

func (b *lexemeBuilder) push(tok cfgrammar.TokenIndex, text string) *lexemeBuilder {
	start := len(b.source)
	b.source = append(b.source, []byte(text)...)
	b.source = append(b.source, ' ')
	b.toks = append(b.toks, lexer.Lexeme{Token: tok, Span: lexer.Span{Start: start, End: start + len(text)}})
	return b
}

func (b *lexemeBuilder) int_(tok cfgrammar.TokenIndex, n int) *lexemeBuilder {
	return b.push(tok, strconv.Itoa(n))
}

func (b *lexemeBuilder) op(tok cfgrammar.TokenIndex, text string) *lexemeBuilder {
	return b.push(tok, text)
}

func (b *lexemeBuilder) lexer() *lexer.SliceLexer {
	return lexer.NewSliceLexerWithSource(b.source, b.toks)
}

func TestParser_EvaluatesArithmeticExpressions(t *testing.T) {
	tables, tk := buildArithTables(t)

	cases := []struct {
		name  string
		build func(*lexemeBuilder)
		want  int
	}{
		{
			name: "precedence: 2+3*4",
			build: func(b *lexemeBuilder) {
				b.int_(tk.intTok, 2).op(tk.plus, "+").int_(tk.intTok, 3).op(tk.star, "*").int_(tk.intTok, 4)
			},
			want: 14,
		},
		{
			name: "parens: (1+2)*3",
			build: func(b *lexemeBuilder) {
				b.op(tk.lparen, "(").int_(tk.intTok, 1).op(tk.plus, "+").int_(tk.intTok, 2).op(tk.rparen, ")").op(tk.star, "*").int_(tk.intTok, 3)
			},
			want: 9,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := &lexemeBuilder{}
			c.build(b)
			lex := b.lexer()
			stream := lexer.NewTokenStream(lex, tk.eof)
			p := New(tables, arithAction(lex))

			got, diags, err := p.Parse(stream)
			require.NoError(t, err)
			assert.Empty(t, diags)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParser_RecoversFromDoubledOperatorByDeleting(t *testing.T) {
	tables, tk := buildArithTables(t)
	// 2 + + 3 -- the second '+' can't start a T, so the cheapest repair is
	// deleting it, leaving 2+3 = 5.
	b := &lexemeBuilder{}
	b.int_(tk.intTok, 2).op(tk.plus, "+").op(tk.plus, "+").int_(tk.intTok, 3)
	lex := b.lexer()
	stream := lexer.NewTokenStream(lex, tk.eof)
	p := New(tables, arithAction(lex))

	got, diags, err := p.Parse(stream)
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
	assert.Equal(t, 5, got)
}

func TestParser_RecoversFromMissingClosingParen(t *testing.T) {
	tables, tk := buildArithTables(t)
	// (1+2 with no closing paren: CPCT+ should find a repair (inserting the
	// missing ')') and parsing should complete without a fatal error.
	b := &lexemeBuilder{}
	b.op(tk.lparen, "(").int_(tk.intTok, 1).op(tk.plus, "+").int_(tk.intTok, 2)
	lex := b.lexer()
	stream := lexer.NewTokenStream(lex, tk.eof)
	p := New(tables, arithAction(lex))

	_, diags, err := p.Parse(stream)
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
}

func TestParser_RecoversFromTrailingOperatorAtEndOfInput(t *testing.T) {
	tables, tk := buildArithTables(t)
	// 2+ with nothing after it: recovery has to either insert an int or
	// delete the trailing '+'; either way parsing must terminate cleanly.
	b := &lexemeBuilder{}
	b.int_(tk.intTok, 2).op(tk.plus, "+")
	lex := b.lexer()
	stream := lexer.NewTokenStream(lex, tk.eof)
	p := New(tables, arithAction(lex))

	_, diags, err := p.Parse(stream)
	require.NoError(t, err)
	assert.NotEmpty(t, diags)
}

func TestParser_BoundedRecoveryNeverHangsOnUnrecoverableInput(t *testing.T) {
	tables, tk := buildArithTables(t)
	// Four consecutive mismatched parens have no valid completion; the
	// search is bounded by RecoveryConfig.MaxSearchNodes/SearchBudget, so
	// Parse must still return (successfully resynced, or with a reported
	// unrecoverable error) rather than loop forever.
	b := &lexemeBuilder{}
	b.op(tk.rparen, ")").op(tk.rparen, ")").op(tk.lparen, "(").op(tk.lparen, "(")
	lex := b.lexer()
	stream := lexer.NewTokenStream(lex, tk.eof)
	p := New(tables, arithAction(lex))

	_, diags, _ := p.Parse(stream)
	assert.NotEmpty(t, diags)
}

func TestParser_ActionErrorPropagatesWithoutRecoveryAttempt(t *testing.T) {
	tables, tk := buildArithTables(t)
	b := &lexemeBuilder{}
	b.int_(tk.intTok, 2)
	lex := b.lexer()
	stream := lexer.NewTokenStream(lex, tk.eof)

	boom := assert.AnError
	action := func(prod cfgrammar.ProductionIndex, children []int, span diag.Span) (int, error) {
		if int(prod) == 5 {
			return 0, boom
		}
		return arithAction(lex)(prod, children, span)
	}
	p := New(tables, action)

	_, _, err := p.Parse(stream)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
