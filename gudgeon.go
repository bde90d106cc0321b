// Package gudgeon is a from-scratch LALR(1) parser toolkit: a Yacc-like
// grammar frontend, canonical-LR(1)/LALR(1) table construction with
// attributable conflict resolution, and a generic table-driven parser with
// CPCT+ best-first-search error recovery.
//
// It does not generate Go source for a grammar the way a classic yacc/bison
// tool does; instead CompileGrammar builds an in-memory Tables value a
// caller drives directly with lrpar.New, supplying whatever ActionFunc
// turns reductions into values of their own result type.
package gudgeon

import (
	"fmt"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
	"github.com/pachanoid/gudgeon/internal/lrpar"
	"github.com/pachanoid/gudgeon/internal/lrtable"
)

// Grammar is the parsed, validated intermediate representation of a Yacc-
// like grammar source.
type Grammar = cfgrammar.Grammar

// Tables is a built LALR(1) action/goto table, ready to drive a Parser.
type Tables = lrtable.Tables

// ActionFunc builds the value for a reduced nonterminal; see lrpar.ActionFunc.
type ActionFunc[V any] = lrpar.ActionFunc[V]

// Parser runs a Tables against a token stream; see lrpar.Parser.
type Parser[V any] = lrpar.Parser[V]

// ParseGrammar parses Yacc-like grammar source into a Grammar. Errors and
// warnings accumulated while parsing are returned alongside; the Grammar is
// returned even when errs.HasErrors() is true, so callers check errs before
// using it.
func ParseGrammar(src []byte) (*Grammar, cfgrammar.ErrorList) {
	return cfgrammar.Parse(src)
}

// CompileGrammar parses src and builds its LALR(1) tables in one step,
// returning every accumulated error/warning if construction failed (either
// because the grammar itself was malformed, or because it wasn't LALR(1)
// within its declared %expect budget).
func CompileGrammar(src []byte, cfg lrtable.BuildConfig) (*Grammar, *Tables, cfgrammar.ErrorList) {
	g, errs := cfgrammar.Parse(src)
	if errs.HasErrors() {
		return nil, nil, errs
	}

	tables, buildErrs := lrtable.Build(g, cfg)
	errs = append(errs, buildErrs...)
	if buildErrs.HasErrors() {
		return g, nil, errs
	}
	return g, tables, errs
}

// NewParser returns a Parser over tables that calls action on every reduce,
// with opts applied in order (see lrpar.WithTrace, lrpar.WithRecovery).
func NewParser[V any](tables *Tables, action ActionFunc[V], opts ...lrpar.Option[V]) *Parser[V] {
	return lrpar.New(tables, action, opts...)
}

// SaveTables serializes tables to the on-disk build-cache format.
func SaveTables(tables *Tables) ([]byte, error) {
	return lrtable.Serialize(tables)
}

// LoadTables deserializes data produced by SaveTables, validating it was
// built from a grammar matching g's structural fingerprint.
func LoadTables(data []byte, g *Grammar) (*Tables, error) {
	t, err := lrtable.Deserialize(data, g)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return t, nil
}
