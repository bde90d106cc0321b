// Package lrtable builds canonical LR(1) item sets, collapses them into an
// LALR(1) automaton, resolves the conflicts that collapse exposes, and
// serializes the resulting action/goto tables. It is grounded on the
// teacher's automaton package (automaton/dfa.go's NewLR1ViablePrefixDFA and
// NewLALR1ViablePrefixDFA), adapted from string-keyed item sets to the
// dense-integer IR cfgrammar defines.
package lrtable

import (
	"fmt"
	"sort"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// StateID is a dense index into the automaton's state table.
type StateID int

// itemSetKey is a canonical, comparable representation of an LR1 item set,
// used to detect when closure/goto produces a state already seen.
type itemSetKey string

func keyOf(items []cfgrammar.LR1Item) itemSetKey {
	sorted := append([]cfgrammar.LR1Item(nil), items...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Production != b.Production {
			return a.Production < b.Production
		}
		if a.Dot != b.Dot {
			return a.Dot < b.Dot
		}
		return a.Lookahead < b.Lookahead
	})
	var k itemSetKey
	for _, it := range sorted {
		k += itemSetKey(fmt.Sprintf("%d.%d.%d|", it.Production, it.Dot, it.Lookahead))
	}
	return k
}

// itemsOf returns the sorted items of an ItemSet for deterministic
// downstream processing.
func itemsOf(s cfgrammar.ItemSet) []cfgrammar.LR1Item {
	items := make([]cfgrammar.LR1Item, 0, len(s))
	for it := range s {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Production != b.Production {
			return a.Production < b.Production
		}
		if a.Dot != b.Dot {
			return a.Dot < b.Dot
		}
		return a.Lookahead < b.Lookahead
	})
	return items
}

// Closure computes the LR(1) closure of a seed item set: repeatedly adding,
// for every item `A -> α . B β, a` with B a nonterminal, one item
// `B -> . γ, b` per production of B and per terminal b in
// FIRST(βa) (FIRST(β) if β is non-nullable, unioned with {a} if it is).
func Closure(g *cfgrammar.Grammar, ff *cfgrammar.FirstFollow, seed cfgrammar.ItemSet) cfgrammar.ItemSet {
	closure := cfgrammar.NewItemSet()
	for it := range seed {
		closure.Add(it)
	}

	changed := true
	for changed {
		changed = false
		for it := range closure {
			sym, ok := it.NextSymbol(g)
			if !ok || sym.IsTerminal() {
				continue
			}
			nt := sym.Nonterm()
			prod := g.Prod(it.Production)
			rest := append([]cfgrammar.Symbol(nil), prod.RHS[it.Dot+1:]...)

			restFirst, restEpsilon := ff.FirstOfSequence(rest)
			lookaheads := restFirst.Elements()
			if restEpsilon {
				lookaheads = append(lookaheads, int(it.Lookahead))
			}

			for _, pIdx := range g.NT(nt).Productions {
				for _, la := range lookaheads {
					newItem := cfgrammar.LR1Item{
						LR0Item:   cfgrammar.LR0Item{Production: pIdx, Dot: 0},
						Lookahead: cfgrammar.TokenIndex(la),
					}
					if closure.Add(newItem) {
						changed = true
					}
				}
			}
		}
	}
	return closure
}

// Goto computes the LR(1) goto of item set s on symbol sym: advance every
// item in s whose next symbol is sym, then close the result.
func Goto(g *cfgrammar.Grammar, ff *cfgrammar.FirstFollow, s cfgrammar.ItemSet, sym cfgrammar.Symbol) cfgrammar.ItemSet {
	moved := cfgrammar.NewItemSet()
	for it := range s {
		next, ok := it.NextSymbol(g)
		if !ok || next != sym {
			continue
		}
		moved.Add(it.Advance())
	}
	if len(moved) == 0 {
		return moved
	}
	return Closure(g, ff, moved)
}

// Automaton is the canonical LR(1) (or, after Collapse, LALR(1)) viable-
// prefix automaton: a numbered set of states, each holding an item set,
// with transitions keyed by grammar symbol.
type Automaton struct {
	States      []cfgrammar.ItemSet
	Transitions []map[cfgrammar.Symbol]StateID
	Start       StateID
}

// BuildCanonicalLR1 constructs the canonical LR(1) automaton for g (which
// must already be Validate()-clean; it is augmented internally). Grounded
// on NewLR1ViablePrefixDFA: a worklist of states discovered by closure/goto
// from the single augmented start item.
func BuildCanonicalLR1(g *cfgrammar.Grammar) (*Automaton, *cfgrammar.Grammar, *cfgrammar.FirstFollow) {
	aug := g.Augmented()
	ff := cfgrammar.ComputeFirstFollow(aug)

	startProdIdx := aug.NT(aug.StartSymbol()).Productions[0]
	startItem := cfgrammar.LR1Item{
		LR0Item:   cfgrammar.LR0Item{Production: startProdIdx, Dot: 0},
		Lookahead: aug.EOF(),
	}
	startSet := Closure(aug, ff, cfgrammar.NewItemSet(startItem))

	a := &Automaton{Start: 0}
	index := map[itemSetKey]StateID{}

	addState := func(s cfgrammar.ItemSet) StateID {
		k := keyOf(itemsOf(s))
		if id, ok := index[k]; ok {
			return id
		}
		id := StateID(len(a.States))
		index[k] = id
		a.States = append(a.States, s)
		a.Transitions = append(a.Transitions, map[cfgrammar.Symbol]StateID{})
		return id
	}

	addState(startSet)

	worklist := []StateID{0}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]

		symbols := outgoingSymbols(aug, a.States[id])
		for _, sym := range symbols {
			next := Goto(aug, ff, a.States[id], sym)
			if len(next) == 0 {
				continue
			}
			k := keyOf(itemsOf(next))
			_, existed := index[k]
			nid := addState(next)
			a.Transitions[id][sym] = nid
			if !existed {
				worklist = append(worklist, nid)
			}
		}
	}

	return a, aug, ff
}

func outgoingSymbols(g *cfgrammar.Grammar, s cfgrammar.ItemSet) []cfgrammar.Symbol {
	seen := map[cfgrammar.Symbol]struct{}{}
	var syms []cfgrammar.Symbol
	for it := range s {
		sym, ok := it.NextSymbol(g)
		if !ok {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		if syms[i].Kind != syms[j].Kind {
			return syms[i].Kind < syms[j].Kind
		}
		return syms[i].Index < syms[j].Index
	})
	return syms
}
