package cfgrammar

import "fmt"

// LR0Item is a production paired with a dot position, e.g. `E -> E . + T`,
// referring to its production by dense ProductionIndex rather than by a
// name-and-symbol-slice pair.
type LR0Item struct {
	Production ProductionIndex
	Dot        int
}

// AtEnd reports whether the dot has reached the end of the production,
// i.e. the item is a completed item ready to reduce.
func (it LR0Item) AtEnd(g *Grammar) bool {
	return it.Dot >= g.Prod(it.Production).Len()
}

// NextSymbol returns the symbol immediately after the dot and true, or the
// zero Symbol and false if the dot is already at the end.
func (it LR0Item) NextSymbol(g *Grammar) (Symbol, bool) {
	rhs := g.Prod(it.Production).RHS
	if it.Dot >= len(rhs) {
		return Symbol{}, false
	}
	return rhs[it.Dot], true
}

// Advance returns the item with the dot moved one position to the right.
// Callers must ensure the item is not already at the end.
func (it LR0Item) Advance() LR0Item {
	return LR0Item{Production: it.Production, Dot: it.Dot + 1}
}

func (it LR0Item) String(g *Grammar) string {
	p := g.Prod(it.Production)
	lhs := g.NT(p.LHS).Name
	s := lhs + " ->"
	for i, sym := range p.RHS {
		if i == it.Dot {
			s += " ."
		}
		s += " " + symbolName(g, sym)
	}
	if it.Dot == len(p.RHS) {
		s += " ."
	}
	return s
}

func symbolName(g *Grammar, s Symbol) string {
	if s.IsTerminal() {
		return g.Tok(s.Token()).Name
	}
	return g.NT(s.Nonterm()).Name
}

// LR1Item is an LR0Item annotated with a single lookahead terminal. Item
// sets (closures and states of the canonical automaton) are built and
// merged in terms of LR1Item; LALR(1) collapse operates on the LR0Item
// "core" shared by a group of LR1Items with differing lookaheads.
type LR1Item struct {
	LR0Item
	Lookahead TokenIndex
}

// Core returns the LR0Item at the heart of the LR1Item, discarding its
// lookahead. Two LR1Items belong to the same LALR(1) state-merge group iff
// their cores are equal.
func (it LR1Item) Core() LR0Item { return it.LR0Item }

// Advance returns the LR1Item with the dot moved one position to the
// right, keeping the same lookahead.
func (it LR1Item) Advance() LR1Item {
	return LR1Item{LR0Item: it.LR0Item.Advance(), Lookahead: it.Lookahead}
}

func (it LR1Item) String(g *Grammar) string {
	return fmt.Sprintf("[%s, %s]", it.LR0Item.String(g), g.Tok(it.Lookahead).Name)
}

// ItemSet is an unordered collection of LR1Items, keyed by the item itself
// so that duplicate insertion is naturally idempotent. Construction
// (closure, goto) lives in lrtable, which owns the automaton; cfgrammar
// only defines the item vocabulary the automaton is built from.
type ItemSet map[LR1Item]struct{}

// NewItemSet returns an ItemSet containing the given items.
func NewItemSet(items ...LR1Item) ItemSet {
	s := make(ItemSet, len(items))
	for _, it := range items {
		s[it] = struct{}{}
	}
	return s
}

// Add inserts it into the set and reports whether the set changed.
func (s ItemSet) Add(it LR1Item) bool {
	if _, ok := s[it]; ok {
		return false
	}
	s[it] = struct{}{}
	return true
}

// Has reports whether it is a member of the set.
func (s ItemSet) Has(it LR1Item) bool {
	_, ok := s[it]
	return ok
}

// CoreSet returns the set of distinct LR0Item cores present in s,
// discarding lookaheads. Two ItemSets with equal CoreSets are candidates
// for LALR(1) merging.
func (s ItemSet) CoreSet() map[LR0Item]struct{} {
	cores := make(map[LR0Item]struct{}, len(s))
	for it := range s {
		cores[it.Core()] = struct{}{}
	}
	return cores
}

// EqualCores reports whether s and o contain exactly the same LR0Item
// cores, ignoring lookaheads. This is the equality relation the LALR(1)
// automaton merges canonical LR(1) states under, adapted from the
// teacher's EqualCoreSets (grammar/item.go).
func (s ItemSet) EqualCores(o ItemSet) bool {
	a, b := s.CoreSet(), o.CoreSet()
	if len(a) != len(b) {
		return false
	}
	for c := range a {
		if _, ok := b[c]; !ok {
			return false
		}
	}
	return true
}
