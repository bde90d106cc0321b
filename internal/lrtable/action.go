package lrtable

import "github.com/pachanoid/gudgeon/internal/cfgrammar"

// ActionKind distinguishes the four things an LR parser can do on a given
// (state, lookahead) pair.
type ActionKind int

const (
	ActError ActionKind = iota
	ActShift
	ActReduce
	ActAccept
)

func (k ActionKind) String() string {
	switch k {
	case ActShift:
		return "shift"
	case ActReduce:
		return "reduce"
	case ActAccept:
		return "accept"
	default:
		return "error"
	}
}

// Action is a single ACTION-table cell. For ActShift, Target is the state
// to shift into. For ActReduce, Production names the production to reduce
// by. ActAccept and ActError carry no payload beyond their kind.
//
// ResolvedBy records, for cells that were ambiguous in the canonical
// automaton before resolution, which rule broke the tie, so every resolved
// conflict stays individually attributable in diagnostics and table dumps;
// it is the zero Resolution for cells that were never ambiguous.
type Action struct {
	Kind       ActionKind
	Target     StateID
	Production cfgrammar.ProductionIndex
	ResolvedBy Resolution
}

// Resolution names the rule a conflict was resolved by.
type Resolution int

const (
	// ResolutionNone means the cell had only one candidate action; no
	// conflict resolution ran.
	ResolutionNone Resolution = iota
	// ResolutionPrecedence means precedence/associativity comparison
	// between the production's and the token's declared levels picked the
	// winner.
	ResolutionPrecedence
	// ResolutionShiftDefault means an unresolved shift/reduce conflict was
	// broken in shift's favor, per the universal default.
	ResolutionShiftDefault
	// ResolutionFirstProduction means an unresolved reduce/reduce
	// conflict was broken by picking the production appearing earliest in
	// the grammar source.
	ResolutionFirstProduction
)

func (r Resolution) String() string {
	switch r {
	case ResolutionPrecedence:
		return "precedence"
	case ResolutionShiftDefault:
		return "shift-default"
	case ResolutionFirstProduction:
		return "first-production"
	default:
		return "none"
	}
}
