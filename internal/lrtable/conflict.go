package lrtable

import (
	"fmt"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// Conflict records one ambiguous ACTION-table cell and how it was
// resolved; every conflict is individually attributable, never silently
// merged into a count.
type Conflict struct {
	State      StateID
	Lookahead  cfgrammar.TokenIndex
	Candidates []Action
	Chosen     Action
}

func (c Conflict) String(g *cfgrammar.Grammar) string {
	kind := "shift/reduce"
	if c.Candidates[0].Kind == ActReduce && c.Candidates[1].Kind == ActReduce {
		kind = "reduce/reduce"
	}
	return fmt.Sprintf("state %d, lookahead %s: %s conflict resolved by %s",
		c.State, g.Tok(c.Lookahead).Name, kind, c.Chosen.ResolvedBy)
}

// resolve picks the winning Action among two or more candidates proposed
// for the same (state, lookahead) cell, following the classic Yacc
// precedence/associativity rule set:
//
//   - shift/reduce: compare the shifted token's declared precedence against
//     the reducing production's precedence (explicit %prec override, or the
//     rightmost terminal's precedence). Higher precedence wins; equal
//     precedence defers to the token's associativity (left favors reduce,
//     right favors shift, nonassoc is a hard error); either side lacking a
//     declared precedence falls back to the universal shift-wins default.
//   - reduce/reduce: the production declared earliest in the grammar
//     source wins.
//
// Every cell resolved by anything other than an outright absence of
// ambiguity returns a non-nil *Conflict for the caller's report.
func resolve(g *cfgrammar.Grammar, state StateID, la cfgrammar.TokenIndex, candidates []Action) (Action, *Conflict) {
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	// Accept always wins outright: it only ever appears alongside a reduce
	// candidate for the same augmented-start item, never a genuine
	// ambiguity.
	for _, c := range candidates {
		if c.Kind == ActAccept {
			return c, nil
		}
	}

	var shift *Action
	var reduces []Action
	for i := range candidates {
		switch candidates[i].Kind {
		case ActShift:
			shift = &candidates[i]
		case ActReduce:
			reduces = append(reduces, candidates[i])
		}
	}

	if shift != nil && len(reduces) > 0 {
		reduce := reduces[0]
		prod := g.Prod(reduce.Production)
		tokPrec := g.Tok(la).Prec
		prodPrec := prod.Prec

		var chosen Action
		switch {
		case tokPrec == cfgrammar.NoPrec || prodPrec == cfgrammar.NoPrec:
			chosen = *shift
			chosen.ResolvedBy = ResolutionShiftDefault
		case tokPrec > prodPrec:
			chosen = *shift
			chosen.ResolvedBy = ResolutionPrecedence
		case tokPrec < prodPrec:
			chosen = reduce
			chosen.ResolvedBy = ResolutionPrecedence
		default:
			switch g.Tok(la).Assoc {
			case cfgrammar.AssocRight:
				chosen = *shift
				chosen.ResolvedBy = ResolutionPrecedence
			case cfgrammar.AssocNonAssoc:
				chosen = Action{Kind: ActError, ResolvedBy: ResolutionPrecedence}
			default:
				chosen = reduce
				chosen.ResolvedBy = ResolutionPrecedence
			}
		}
		return chosen, &Conflict{State: state, Lookahead: la, Candidates: candidates, Chosen: chosen}
	}

	// reduce/reduce: earliest-declared production wins.
	winner := reduces[0]
	for _, r := range reduces[1:] {
		if r.Production < winner.Production {
			winner = r
		}
	}
	winner.ResolvedBy = ResolutionFirstProduction
	return winner, &Conflict{State: state, Lookahead: la, Candidates: candidates, Chosen: winner}
}
