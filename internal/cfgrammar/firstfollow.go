package cfgrammar

import "github.com/pachanoid/gudgeon/internal/util"

// FirstFollow holds the result of running the FIRST/FOLLOW fixpoint over a
// Grammar: nullability and FIRST sets per nonterminal, plus FOLLOW sets per
// nonterminal. It is computed once by ComputeFirstFollow and reused by the
// LR(1) item-set closure in lrtable.
//
// Sets are keyed by TokenIndex-as-int and stored as util.IntSet rather than
// a string-keyed set, matching the indices-over-references design used
// throughout this package.
type FirstFollow struct {
	g *Grammar

	nullable []bool
	first    []util.IntSet // indexed by NontermIndex
	follow   []util.IntSet // indexed by NontermIndex
}

// Nullable reports whether nonterminal nt can derive the empty string.
func (ff *FirstFollow) Nullable(nt NontermIndex) bool { return ff.nullable[nt] }

// First returns the FIRST set of nonterminal nt, as token indices.
func (ff *FirstFollow) First(nt NontermIndex) util.IntSet { return ff.first[nt] }

// Follow returns the FOLLOW set of nonterminal nt, as token indices.
func (ff *FirstFollow) Follow(nt NontermIndex) util.IntSet { return ff.follow[nt] }

// FirstOfSequence computes FIRST(seq), the set of terminals (and, if seq is
// entirely nullable, implicitly epsilon) that can begin a string derived
// from the symbol sequence seq. If seq is fully nullable, the returned
// epsilon flag is true and callers should fold in whatever follows seq in
// context (e.g. the lookahead of the item being closed).
func (ff *FirstFollow) FirstOfSequence(seq []Symbol) (first util.IntSet, epsilon bool) {
	first = util.NewIntSet()
	epsilon = true
	for _, sym := range seq {
		if sym.IsTerminal() {
			first.Add(int(sym.Token()))
			epsilon = false
			break
		}
		nt := sym.Nonterm()
		first.AddAll(ff.first[nt])
		if !ff.nullable[nt] {
			epsilon = false
			break
		}
	}
	return first, epsilon
}

// ComputeFirstFollow runs the standard worklist fixpoint for nullability,
// FIRST, and FOLLOW over g (assumed augmented, i.e. already carrying its
// single synthesized start production). Computing the whole table up front
// once, rather than re-deriving FIRST of a right-hand side on every item-set
// closure step, lets the automaton builder just look the sets up.
func ComputeFirstFollow(g *Grammar) *FirstFollow {
	ff := &FirstFollow{
		g:        g,
		nullable: make([]bool, g.NumNonterms()),
		first:    make([]util.IntSet, g.NumNonterms()),
		follow:   make([]util.IntSet, g.NumNonterms()),
	}
	for i := range ff.first {
		ff.first[i] = util.NewIntSet()
		ff.follow[i] = util.NewIntSet()
	}

	// Nullability fixpoint.
	changed := true
	for changed {
		changed = false
		for _, p := range g.prods {
			if ff.nullable[p.LHS] {
				continue
			}
			allNullable := true
			for _, sym := range p.RHS {
				if sym.IsTerminal() {
					allNullable = false
					break
				}
				if !ff.nullable[sym.Nonterm()] {
					allNullable = false
					break
				}
			}
			if allNullable {
				ff.nullable[p.LHS] = true
				changed = true
			}
		}
	}

	// FIRST fixpoint.
	changed = true
	for changed {
		changed = false
		for _, p := range g.prods {
			for _, sym := range p.RHS {
				if sym.IsTerminal() {
					if ff.first[p.LHS].AddAll(util.NewIntSet(int(sym.Token()))) {
						changed = true
					}
					break
				}
				nt := sym.Nonterm()
				if ff.first[p.LHS].AddAll(ff.first[nt]) {
					changed = true
				}
				if !ff.nullable[nt] {
					break
				}
			}
		}
	}

	// FOLLOW fixpoint. The augmented start production's FOLLOW seeds
	// nothing extra: the completed augmented item's lookahead is the
	// grammar's own EOF token, threaded in directly by the item-set
	// builder rather than via FOLLOW.
	changed = true
	for changed {
		changed = false
		for _, p := range g.prods {
			for i, sym := range p.RHS {
				if sym.IsTerminal() {
					continue
				}
				nt := sym.Nonterm()
				rest := p.RHS[i+1:]
				restFirst, restEpsilon := ff.FirstOfSequence(rest)
				if ff.follow[nt].AddAll(restFirst) {
					changed = true
				}
				if restEpsilon {
					if ff.follow[nt].AddAll(ff.follow[p.LHS]) {
						changed = true
					}
				}
			}
		}
	}

	return ff
}
