package lrtable

import (
	"fmt"
	"sort"

	"github.com/dekarrin/rosed"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// BuildConfig controls table construction. Its one option decides whether
// unresolved conflicts beyond a grammar's own %expect count are reported
// as an error; resolution itself always applies the default rules.
type BuildConfig struct {
	// AllowExtraConflicts lets callers override a grammar's own %expect
	// budget for tooling that wants to build a table regardless (e.g. a
	// "show me the conflicts" diagnostic mode).
	AllowExtraConflicts bool `toml:"allow_extra_conflicts"`
}

// Tables is the finished LALR(1) action/goto table plus everything needed
// to interpret it: the grammar it was built from (augmented), the
// automaton it was collapsed from, and the list of conflicts encountered
// during construction.
type Tables struct {
	Grammar   *cfgrammar.Grammar // augmented
	Automaton *Automaton         // nil after Deserialize; only Build populates it
	Start     StateID

	action [][]Action  // [state][token]
	goto_  [][]StateID // [state][nonterm]; -1 means no entry
	valid  [][]bool    // goto_ validity, parallel to goto_

	Conflicts []Conflict
}

// Action returns the ACTION-table entry for (state, token).
func (t *Tables) Action(s StateID, tok cfgrammar.TokenIndex) Action {
	return t.action[s][tok]
}

// Goto returns the GOTO-table entry for (state, nonterm) and whether one
// exists.
func (t *Tables) Goto(s StateID, nt cfgrammar.NontermIndex) (StateID, bool) {
	if !t.valid[s][nt] {
		return 0, false
	}
	return t.goto_[s][nt], true
}

// NumStates returns the number of states in the collapsed automaton.
func (t *Tables) NumStates() int { return len(t.action) }

// Build runs the full LALR(1) pipeline over g: canonical LR(1) item sets,
// LALR(1) collapse, and action/goto table population with conflict
// resolution. g need not be pre-augmented; Build augments it internally
// and the returned Tables.Grammar is the augmented grammar every StateID
// and Action refers to.
func Build(g *cfgrammar.Grammar, cfg BuildConfig) (*Tables, cfgrammar.ErrorList) {
	if errs := g.Validate(); errs.HasErrors() {
		return nil, errs
	}

	canon, aug, _ := BuildCanonicalLR1(g)
	merged, _ := Collapse(aug, canon)

	t := &Tables{
		Grammar:   aug,
		Automaton: merged,
		Start:     merged.Start,
	}

	numStates := len(merged.States)
	numTokens := aug.NumTokens()
	numNonterms := aug.NumNonterms()

	t.action = make([][]Action, numStates)
	t.goto_ = make([][]StateID, numStates)
	t.valid = make([][]bool, numStates)
	for s := 0; s < numStates; s++ {
		t.action[s] = make([]Action, numTokens)
		t.goto_[s] = make([]StateID, numNonterms)
		t.valid[s] = make([]bool, numNonterms)
	}

	cellCandidates := make(map[[2]int][]Action)

	for sid, items := range merged.States {
		s := StateID(sid)
		for _, it := range itemsOf(items) {
			if it.AtEnd(aug) {
				var act Action
				if aug.IsAugmentedStart(it.Production) {
					act = Action{Kind: ActAccept}
				} else {
					act = Action{Kind: ActReduce, Production: it.Production}
				}
				key := [2]int{sid, int(it.Lookahead)}
				cellCandidates[key] = append(cellCandidates[key], act)
				continue
			}
			sym, _ := it.NextSymbol(aug)
			if sym.IsTerminal() {
				target := merged.Transitions[s][sym]
				act := Action{Kind: ActShift, Target: target}
				key := [2]int{sid, int(sym.Token())}
				cellCandidates[key] = append(cellCandidates[key], act)
			}
		}
		for sym, target := range merged.Transitions[s] {
			if !sym.IsTerminal() {
				t.goto_[sid][sym.Nonterm()] = target
				t.valid[sid][sym.Nonterm()] = true
			}
		}
	}

	// Visit cells in (state, token) order so Conflicts comes out in a stable
	// order from one build to the next.
	keys := make([][2]int, 0, len(cellCandidates))
	for key := range cellCandidates {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, key := range keys {
		cands := cellCandidates[key]
		sid, tokIdx := key[0], cfgrammar.TokenIndex(key[1])
		chosen, conflict := resolve(aug, StateID(sid), tokIdx, dedupeActions(cands))
		t.action[sid][tokIdx] = chosen
		if conflict != nil {
			t.Conflicts = append(t.Conflicts, *conflict)
		}
	}

	var errs cfgrammar.ErrorList
	expect := aug.Expect
	if expect < 0 {
		expect = 0
	}
	unresolved := 0
	for _, c := range t.Conflicts {
		if c.Chosen.ResolvedBy != ResolutionPrecedence {
			unresolved++
		}
	}
	if unresolved > expect && !cfg.AllowExtraConflicts {
		errs = append(errs, cfgrammar.Errf(cfgrammar.Pos{},
			"grammar has %d unresolved conflict(s), but %%expect declared %d", unresolved, expect))
	}

	return t, errs
}

func dedupeActions(cands []Action) []Action {
	seen := map[Action]bool{}
	var out []Action
	for _, c := range cands {
		key := Action{Kind: c.Kind, Target: c.Target, Production: c.Production}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

// String renders the action/goto tables as a bordered text grid by feeding
// a [][]string grid through rosed.Edit(...).InsertTableOpts.
func (t *Tables) String() string {
	g := t.Grammar
	terms := g.Terminals()
	nonterms := g.Nonterminals()

	headers := []string{"S", "|"}
	for _, tok := range terms {
		headers = append(headers, "A:"+g.Tok(tok).Name)
	}
	headers = append(headers, "|")
	for _, nt := range nonterms {
		headers = append(headers, "G:"+g.NT(nt).Name)
	}

	data := [][]string{headers}
	for s := 0; s < t.NumStates(); s++ {
		row := []string{fmt.Sprintf("%d", s), "|"}
		for _, tok := range terms {
			act := t.Action(StateID(s), tok)
			cell := ""
			switch act.Kind {
			case ActAccept:
				cell = "acc"
			case ActReduce:
				cell = fmt.Sprintf("r%d", act.Production)
			case ActShift:
				cell = fmt.Sprintf("s%d", act.Target)
			}
			row = append(row, cell)
		}
		row = append(row, "|")
		for _, nt := range nonterms {
			cell := ""
			if target, ok := t.Goto(StateID(s), nt); ok {
				cell = fmt.Sprintf("%d", target)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}
