package lrpar

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
	"github.com/pachanoid/gudgeon/internal/diag"
	"github.com/pachanoid/gudgeon/internal/lexer"
	"github.com/pachanoid/gudgeon/internal/lrtable"
	"github.com/pachanoid/gudgeon/internal/util"
)

// RecoveryConfig tunes the CPCT+ best-first search a Parser runs when it
// hits a syntax error. The search looks for the cheapest sequence of
// insert/delete/shift edits that lets parsing resume and stay in sync for
// LookaheadWindow consecutive real tokens.
type RecoveryConfig struct {
	// LookaheadWindow is how many consecutive tokens a candidate repair
	// must successfully shift before it is accepted.
	LookaheadWindow int `toml:"lookahead_window"`
	// MaxRepairsReported bounds how many equally-cheap repair sequences
	// are attached to the emitted Diagnostic.
	MaxRepairsReported int `toml:"max_repairs_reported"`
	// MaxSearchNodes bounds the number of configurations the search will
	// expand before giving up and falling back to token-skipping. Acts as
	// a deterministic secondary bound alongside SearchBudget so recovery
	// behavior doesn't vary with machine speed in tests.
	MaxSearchNodes int `toml:"max_search_nodes"`
	// SearchBudget bounds wall-clock time spent searching before falling
	// back to token-skipping.
	SearchBudget time.Duration `toml:"search_budget"`
	// InsertCost, DeleteCost, and ShiftCost weight the three edit kinds.
	// %avoid_insert tokens are never proposed for insertion regardless of
	// InsertCost.
	InsertCost, DeleteCost, ShiftCost int
}

// DefaultRecoveryConfig returns the standard CPCT+ tuning: unit
// insert/delete cost, free shift, a 3-token lookahead acceptance window,
// and up to 3 reported repair candidates.
func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		LookaheadWindow:    3,
		MaxRepairsReported: 3,
		MaxSearchNodes:     20000,
		SearchBudget:       2 * time.Second,
		InsertCost:         1,
		DeleteCost:         1,
		ShiftCost:          0,
	}
}

// EditKind, Edit, and RepairSequence are defined in package diag (not
// here) so that a Diagnostic can carry a []RepairSequence without diag and
// lrpar importing each other; aliased here under their natural home for
// everything that constructs and searches over them.
type (
	EditKind       = diag.EditKind
	Edit           = diag.Edit
	RepairSequence = diag.RepairSequence
)

const (
	EditShift  = diag.EditShift
	EditDelete = diag.EditDelete
	EditInsert = diag.EditInsert
)

func describeEdit(g *cfgrammar.Grammar, e Edit) string {
	name := g.Tok(e.Token).Name
	switch e.Kind {
	case EditDelete:
		return fmt.Sprintf("delete %s", name)
	case EditInsert:
		return fmt.Sprintf("insert %s", name)
	default:
		return fmt.Sprintf("shift %s", name)
	}
}

// searchConfig is one node of the CPCT+ best-first search: a candidate
// parser state stack, how far into the lookahead window it has consumed,
// the edits taken to get there, their total cost, and how many
// consecutive real shifts it has just performed (reset by any edit).
type searchConfig struct {
	states       []lrtable.StateID
	windowPos    int
	edits        []Edit
	cost         int
	streakShifts int
	index        int // heap bookkeeping
}

type configHeap []*searchConfig

func (h configHeap) Len() int { return len(h) }
func (h configHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	// Deterministic tiebreak: prefer the node discovered first.
	return h[i].index < h[j].index
}
func (h configHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *configHeap) Push(x interface{}) {
	*h = append(*h, x.(*searchConfig))
}
func (h *configHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// simulateShift drives the parser's automaton purely at the state-stack
// level (no semantic actions, no value stack) to decide whether tok can
// be shifted from the top of states, reducing as many times as needed
// first. This is the same reduce-then-shift loop Parser.Parse runs, with
// the action-calling and value-tracking stripped out, since the search
// only needs to know whether a hypothetical edit sequence keeps the
// automaton in a live state.
func simulateShift(tables *lrtable.Tables, states []lrtable.StateID, tok cfgrammar.TokenIndex) ([]lrtable.StateID, bool) {
	g := tables.Grammar
	cur := append([]lrtable.StateID(nil), states...)

	for steps := 0; steps < len(g.Productions())+1; steps++ {
		top := cur[len(cur)-1]
		act := tables.Action(top, tok)
		switch act.Kind {
		case lrtable.ActShift:
			return append(cur, act.Target), true
		case lrtable.ActAccept:
			return cur, true
		case lrtable.ActReduce:
			prod := g.Prod(act.Production)
			n := prod.Len()
			cur = cur[:len(cur)-n]
			t := cur[len(cur)-1]
			target, ok := tables.Goto(t, prod.LHS)
			if !ok {
				return states, false
			}
			cur = append(cur, target)
		default:
			return states, false
		}
	}
	return states, false
}

// recoverFromError runs CPCT+ starting from the state/frame stacks as
// they stood when the error was detected (with badTok as the offending
// lookahead), and returns a diagnostic describing the repair plus the
// lexeme the caller should resume parsing from. The real state and frame
// stacks are mutated in place to reflect the chosen repair's shift/delete
// edits (inserted tokens are synthesized zero-value frames; the caller's
// ActionFunc never runs for them, since an inserted token has no real
// lexeme backing it).
func (p *Parser[V]) recoverFromError(
	g *cfgrammar.Grammar,
	states *util.Stack[lrtable.StateID],
	frames *util.Stack[symbolFrame[V]],
	stream *lexer.TokenStream,
	badTok lexer.Lexeme,
) (*diag.Diagnostic, lexer.Lexeme, error) {
	cfg := p.recovery
	window := []lexer.Lexeme{badTok}
	for len(window) < cfg.LookaheadWindow+4 {
		lx, err := p.next(stream)
		if err != nil {
			break
		}
		window = append(window, lx)
		if lx.Token == g.EOF() {
			break
		}
	}

	expected := expectedString(expectedTokenNames(g, p.tables, states.Peek()))
	candidateEdits, found := p.searchRepair(g, states.Of, window, cfg)

	if !found {
		return p.fallbackSkip(g, states, frames, stream, window, badTok)
	}

	applied := p.applyRepair(g, states, frames, stream, window, candidateEdits[0])

	repairs := make([]RepairSequence, len(candidateEdits))
	descriptions := make([]string, len(candidateEdits))
	for i, edits := range candidateEdits {
		desc := describeEdits(g, edits)
		descriptions[i] = desc
		repairs[i] = RepairSequence{Edits: edits, Description: desc}
	}
	msg := fmt.Sprintf("unexpected %s, %s (candidate repairs: %s)",
		g.Tok(badTok.Token).Name, expected, util.MakeTextList(descriptions))
	d := diag.New(badTok.Span, msg, repairs...)
	return d, applied, nil
}

// searchRepair runs the CPCT+ best-first search over insert/delete/shift
// edits, returning up to cfg.MaxRepairsReported edit sequences that let the
// automaton shift LookaheadWindow consecutive tokens from window (or shift
// cleanly through to the end of window), cheapest first. The caller applies
// only the first; the rest are reported as alternatives on the resulting
// Diagnostic.
func (p *Parser[V]) searchRepair(g *cfgrammar.Grammar, states []lrtable.StateID, window []lexer.Lexeme, cfg RecoveryConfig) ([][]Edit, bool) {
	start := &searchConfig{states: append([]lrtable.StateID(nil), states...)}
	h := &configHeap{start}
	heap.Init(h)

	seen := map[string]int{} // memoization: (state stack, windowPos) -> best cost seen
	deadline := time.Now().Add(cfg.SearchBudget)
	nodeCount := 0
	nextIndex := 1
	var found [][]Edit

	insertCandidates := insertableTokens(g)

	for h.Len() > 0 && len(found) < cfg.MaxRepairsReported {
		nodeCount++
		if nodeCount > cfg.MaxSearchNodes || time.Now().After(deadline) {
			break
		}

		node := heap.Pop(h).(*searchConfig)
		// Accept once LookaheadWindow consecutive real tokens shift clean,
		// or once the repair has shifted cleanly all the way through to
		// the last lexeme the window holds (there may be fewer than
		// LookaheadWindow real tokens left before end-of-input, in which
		// case demanding a full streak would make every error near the
		// end of input unrecoverable).
		if node.streakShifts >= cfg.LookaheadWindow ||
			(node.windowPos >= len(window) && node.streakShifts > 0) {
			found = append(found, node.edits)
			continue
		}

		key := fmt.Sprintf("%v|%d", node.states, node.windowPos)
		if best, ok := seen[key]; ok && best <= node.cost {
			continue
		}
		seen[key] = node.cost

		// Shift the real next token, if any remain in the window, or
		// delete it and try again from the same state.
		if node.windowPos < len(window) {
			tok := window[node.windowPos].Token
			if newStates, ok := shiftWith(p.tables, node.states, tok); ok {
				heap.Push(h, &searchConfig{
					states:       newStates,
					windowPos:    node.windowPos + 1,
					edits:        appendEdit(node.edits, Edit{Kind: EditShift, Token: tok}),
					cost:         node.cost + cfg.ShiftCost,
					streakShifts: node.streakShifts + 1,
					index:        nextIndex,
				})
				nextIndex++
			}

			// Delete: drop the offending token and try again at the same
			// state.
			heap.Push(h, &searchConfig{
				states:       node.states,
				windowPos:    node.windowPos + 1,
				edits:        appendEdit(node.edits, Edit{Kind: EditDelete, Token: tok}),
				cost:         node.cost + cfg.DeleteCost,
				streakShifts: 0,
				index:        nextIndex,
			})
			nextIndex++
		}

		// Insert: try every token CPCT+ is allowed to insert.
		for _, tok := range insertCandidates {
			if newStates, ok := shiftWith(p.tables, node.states, tok); ok {
				heap.Push(h, &searchConfig{
					states:       newStates,
					windowPos:    node.windowPos,
					edits:        appendEdit(node.edits, Edit{Kind: EditInsert, Token: tok}),
					cost:         node.cost + cfg.InsertCost,
					streakShifts: 0,
					index:        nextIndex,
				})
				nextIndex++
			}
		}
	}

	if len(found) == 0 {
		return nil, false
	}
	return found, true
}

func shiftWith(tables *lrtable.Tables, states []lrtable.StateID, tok cfgrammar.TokenIndex) ([]lrtable.StateID, bool) {
	return simulateShift(tables, states, tok)
}

func appendEdit(edits []Edit, e Edit) []Edit {
	out := make([]Edit, len(edits)+1)
	copy(out, edits)
	out[len(edits)] = e
	return out
}

func insertableTokens(g *cfgrammar.Grammar) []cfgrammar.TokenIndex {
	var out []cfgrammar.TokenIndex
	for _, t := range g.Terminals() {
		tok := g.Tok(t)
		if tok.AvoidInsert || t == g.EOF() || t == g.ErrorToken() {
			continue
		}
		out = append(out, t)
	}
	return out
}

// applyRepair mutates the real state/frame stacks according to edits,
// consuming and discarding tokens from window as deletes and shifts
// dictate, and pushes back whatever window tokens the edit sequence never
// reached so the caller's next real Next() sees them again. It returns
// the lexeme the main parse loop should treat as the current lookahead.
func (p *Parser[V]) applyRepair(
	g *cfgrammar.Grammar,
	states *util.Stack[lrtable.StateID],
	frames *util.Stack[symbolFrame[V]],
	stream *lexer.TokenStream,
	window []lexer.Lexeme,
	edits []Edit,
) lexer.Lexeme {
	pos := 0
	var resumeTok lexer.Lexeme
	haveResume := false

	for _, e := range edits {
		switch e.Kind {
		case EditShift:
			lx := window[pos]
			pos++
			// The end-of-input lexeme marks acceptance, not a grammar
			// terminal with a value slot; simulateShift pushes no state for
			// it (see its ActAccept case), so replay leaves both stacks as
			// they are and lets the main loop perform the final reductions.
			if lx.Token == g.EOF() {
				continue
			}
			newStates, _ := shiftWith(p.tables, states.Of, lx.Token)
			*states = util.Stack[lrtable.StateID]{Of: newStates}
			frames.Push(symbolFrame[V]{span: lx.Span})
		case EditDelete:
			pos++
		case EditInsert:
			at := window[minInt(pos, len(window)-1)].Span.Start
			newStates, _ := shiftWith(p.tables, states.Of, e.Token)
			*states = util.Stack[lrtable.StateID]{Of: newStates}
			frames.Push(symbolFrame[V]{span: lexer.Span{Start: at, End: at}})
		}
	}

	if pos < len(window) {
		resumeTok = window[pos]
		haveResume = true
		// Push back everything after the resume token for the main loop
		// to see again via p.next.
		p.pending = append(append([]lexer.Lexeme(nil), window[pos+1:]...), p.pending...)
	} else if len(window) > 0 && window[len(window)-1].Token == g.EOF() {
		// The repair consumed the window's trailing end-of-input lexeme
		// already drawn from the stream; hand it back rather than asking
		// the stream for a second one (TokenStream only synthesizes it
		// once, and would report an error on a second request).
		resumeTok = window[len(window)-1]
		haveResume = true
	}
	if !haveResume {
		// The whole window was consumed by the repair, short of input's
		// actual end; pull one more token to resume from.
		lx, err := p.next(stream)
		if err == nil {
			resumeTok = lx
		}
	}
	return resumeTok
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// fallbackSkip is the recovery-exhausted fallback: discard tokens from the
// window (and, if necessary, the live stream) until one is found that the
// current state can shift, following the panic-mode convention every
// classic LR recovery scheme falls back to when a smarter search can't
// find a bounded repair in budget.
func (p *Parser[V]) fallbackSkip(
	g *cfgrammar.Grammar,
	states *util.Stack[lrtable.StateID],
	frames *util.Stack[symbolFrame[V]],
	stream *lexer.TokenStream,
	window []lexer.Lexeme,
	badTok lexer.Lexeme,
) (*diag.Diagnostic, lexer.Lexeme, error) {
	// Reaching end-of-input while still in an error state can never be
	// resynced by discarding more tokens: there is nothing left to
	// discard. Treat it as genuinely unrecoverable instead of handing the
	// same EOF lexeme back to the caller, which would just re-trigger the
	// same error forever.
	for i, lx := range window {
		if lx.Token == g.EOF() {
			break
		}
		if _, ok := shiftWith(p.tables, states.Of, lx.Token); ok {
			// Anything still unconsumed past the resync point is real
			// lookahead, not part of what's being skipped; queue it back
			// up for the main loop instead of letting it evaporate.
			p.pending = append(append([]lexer.Lexeme(nil), window[i+1:]...), p.pending...)
			desc := fmt.Sprintf("skip to %s (fallback: recovery search exhausted its budget)", g.Tok(lx.Token).Name)
			return diag.New(badTok.Span, fmt.Sprintf("unexpected %s", g.Tok(badTok.Token).Name),
				RepairSequence{Description: desc}), lx, nil
		}
	}
	if badTok.Token == g.EOF() {
		return diag.Unrecoverable(badTok.Span, "unexpected end of input and no resync point was found"), lexer.Lexeme{}, fmt.Errorf("unrecoverable syntax error at %s", badTok.Span)
	}
	return diag.Unrecoverable(badTok.Span, "recovery search exhausted its budget and no resync point was found before end of input"), lexer.Lexeme{}, fmt.Errorf("unrecoverable syntax error at %s", badTok.Span)
}

func describeEdits(g *cfgrammar.Grammar, edits []Edit) string {
	parts := make([]string, len(edits))
	for i, e := range edits {
		parts[i] = describeEdit(g, e)
	}
	out := ""
	for i, part := range parts {
		if i > 0 {
			out += ", then "
		}
		out += part
	}
	return out
}
