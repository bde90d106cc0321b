package lrpar

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
	"github.com/pachanoid/gudgeon/internal/lexer"
	"github.com/pachanoid/gudgeon/internal/lrtable"
)

// intLexeme and opLexeme build placeholder lexemes for search-only tests
// that never call Text on them, so their spans need not index any real
// source buffer.
func intLexeme(tok cfgrammar.TokenIndex, n int) lexer.Lexeme {
	text := strconv.Itoa(n)
	return lexer.Lexeme{Token: tok, Span: lexer.Span{Start: 0, End: len(text)}}
}

func opLexeme(tok cfgrammar.TokenIndex) lexer.Lexeme {
	return lexer.Lexeme{Token: tok, Span: lexer.Span{Start: 0, End: 1}}
}

func TestDefaultRecoveryConfig_HasSaneDefaults(t *testing.T) {
	cfg := DefaultRecoveryConfig()
	assert.Greater(t, cfg.LookaheadWindow, 0)
	assert.Greater(t, cfg.MaxSearchNodes, 0)
	assert.True(t, cfg.SearchBudget > 0)
	assert.Equal(t, 0, cfg.ShiftCost)
	assert.Equal(t, 1, cfg.InsertCost)
	assert.Equal(t, 1, cfg.DeleteCost)
}

func TestSearchRepair_PrefersDeleteOverInsertForSpuriousToken(t *testing.T) {
	tables, tk := buildArithTables(t)
	p := New(tables, arithAction(lexer.NewSliceLexer(nil)))

	// State stack as it would stand right after shifting "2" then "+":
	// the automaton is in the state expecting a T (int or '('); a second
	// '+' cannot start one, so the cheapest fix is to delete it.
	startStates, ok := shiftWith(tables, []lrtable.StateID{tables.Start}, tk.intTok)
	require.True(t, ok)
	startStates, ok = shiftWith(tables, startStates, tk.plus)
	require.True(t, ok)

	// The window holds LookaheadWindow real tokens beyond the one the
	// repair discards, so the repair is accepted on a full streak of
	// consecutive shifts rather than by running off the end of the window.
	window := []lexer.Lexeme{
		opLexeme(tk.plus),
		intLexeme(tk.intTok, 3),
		opLexeme(tk.star),
		intLexeme(tk.intTok, 4),
	}
	candidates, found := p.searchRepair(tables.Grammar, startStates, window, DefaultRecoveryConfig())
	require.True(t, found)
	require.NotEmpty(t, candidates)
	require.NotEmpty(t, candidates[0])
	assert.Equal(t, EditDelete, candidates[0][0].Kind)
}

func TestInsertableTokens_ExcludesAvoidInsertAndReserved(t *testing.T) {
	tables, tk := buildArithTables(t)
	g := tables.Grammar
	g.SetAvoidInsert(tk.intTok)

	candidates := insertableTokens(g)
	for _, c := range candidates {
		assert.NotEqual(t, tk.intTok, c)
		assert.NotEqual(t, g.EOF(), c)
		assert.NotEqual(t, g.ErrorToken(), c)
	}
}
