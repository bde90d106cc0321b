// Package lrpar runs the LALR(1) table a lrtable.Tables describes against
// a token stream, invoking caller-supplied semantic actions as it reduces,
// and falls back to CPCT+ error recovery (recovery.go) when it hits a
// syntax error. The stack machine itself — the classic dragon-book
// Algorithm 4.44 shift/reduce/goto loop over a state stack plus a value
// stack — is generalized from a hard-coded parse-tree result to a
// caller-chosen value type V, since code generation for user semantic
// actions is out of scope here: the parser only ever calls the ActionFunc
// it was given and returns whatever that produces.
package lrpar

import (
	"fmt"
	"strings"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
	"github.com/pachanoid/gudgeon/internal/diag"
	"github.com/pachanoid/gudgeon/internal/lexer"
	"github.com/pachanoid/gudgeon/internal/lrtable"
	"github.com/pachanoid/gudgeon/internal/util"
)

// ActionFunc builds the value for a reduced nonterminal out of the values
// of its production's right-hand side: children[i] holds the computed
// value of RHS position i (a terminal position contributes V's zero value,
// since a shifted token carries no action result of its own). span is the
// merged span of the whole production: the union of its children's spans,
// or a zero-width span positioned at the current lookahead for an empty
// production. Raw source text for a terminal child, when an action needs
// it, is retrieved from span via the Lexer that produced the tokens being
// parsed (commonly captured by the action's closure), not passed here
// directly. Action bodies themselves are never parsed or interpreted by
// this module (cfgrammar.Production.Action is carried only as an opaque
// byte span, for whatever outer tool wants to compile it into exactly this
// kind of function).
//
// An action may fail; its error is propagated to the caller of Parse
// without being treated as a syntax error (no recovery is attempted for
// it), since by construction the table already says this reduction is
// grammatically valid — only semantic validity is in question.
type ActionFunc[V any] func(prod cfgrammar.ProductionIndex, children []V, span diag.Span) (V, error)

// Parser runs tables against a lexer.TokenStream, calling action on every
// reduce.
type Parser[V any] struct {
	tables   *lrtable.Tables
	action   ActionFunc[V]
	trace    func(string)
	recovery RecoveryConfig

	// pending holds lookahead lexemes CPCT+ pulled ahead during recovery
	// search but didn't consume as part of the chosen repair; next drains
	// this before reading the real stream so those tokens aren't lost.
	pending []lexer.Lexeme
}

// next returns the next lexeme to feed the parser: anything recovery left
// pending, otherwise the next real token off stream.
func (p *Parser[V]) next(stream *lexer.TokenStream) (lexer.Lexeme, error) {
	if len(p.pending) > 0 {
		lx := p.pending[0]
		p.pending = p.pending[1:]
		return lx, nil
	}
	return stream.Next()
}

// Option configures a Parser at construction time.
type Option[V any] func(*Parser[V])

// WithTrace registers a callback invoked with a human-readable line for
// every notable step the stack machine takes, a lighter-weight convention
// than wiring a structured logging dependency into a parser's inner loop.
func WithTrace[V any](fn func(string)) Option[V] {
	return func(p *Parser[V]) { p.trace = fn }
}

// WithRecovery overrides the default CPCT+ recovery configuration.
func WithRecovery[V any](cfg RecoveryConfig) Option[V] {
	return func(p *Parser[V]) { p.recovery = cfg }
}

// New returns a Parser over tables that calls action on every reduce.
func New[V any](tables *lrtable.Tables, action ActionFunc[V], opts ...Option[V]) *Parser[V] {
	p := &Parser[V]{tables: tables, action: action, recovery: DefaultRecoveryConfig()}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *Parser[V]) notify(format string, a ...interface{}) {
	if p.trace != nil {
		p.trace(fmt.Sprintf(format, a...))
	}
}

// symbolFrame is a single entry pushed onto the parser's value stack: the
// action result for a reduced nonterminal (the zero value for a shifted
// terminal), plus the span it covers in the source. Reduces compute their
// merged span from the spans of the frames they pop, so every frame on the
// stack carries one regardless of whether it came from a shift or an
// action result.
type symbolFrame[V any] struct {
	value V
	span  lexer.Span
}

// Parse runs the parser to completion over stream, returning the root
// value the start production's action produced. Diagnostics describe
// every syntax error encountered, in order; a non-nil error is returned
// when an error proved unrecoverable and parsing had to stop short, when a
// semantic action itself failed, or when reading a token from stream
// failed. A lexer error is not turned into a diagnostic: it ends the parse
// and is returned as that error.
func (p *Parser[V]) Parse(stream *lexer.TokenStream) (V, []*diag.Diagnostic, error) {
	var zero V
	g := p.tables.Grammar

	states := util.Stack[lrtable.StateID]{Of: []lrtable.StateID{p.tables.Start}}
	frames := util.Stack[symbolFrame[V]]{}
	var diags []*diag.Diagnostic

	a, err := p.next(stream)
	if err != nil {
		return zero, diags, fmt.Errorf("read first token: %w", err)
	}
	p.notify("next token: %s", a)

	for {
		s := states.Peek()
		act := p.tables.Action(s, a.Token)
		p.notify("state %d, lookahead %s -> %s", s, g.Tok(a.Token).Name, act.Kind)

		switch act.Kind {
		case lrtable.ActShift:
			frames.Push(symbolFrame[V]{span: a.Span})
			states.Push(act.Target)
			p.notify("shift -> state %d", act.Target)

			a, err = p.next(stream)
			if err != nil {
				return zero, diags, fmt.Errorf("read next token: %w", err)
			}
			p.notify("next token: %s", a)

		case lrtable.ActReduce:
			prod := g.Prod(act.Production)
			n := prod.Len()

			values := make([]V, n)
			spans := make([]lexer.Span, n)
			for i := n - 1; i >= 0; i-- {
				states.Pop()
				fr := frames.Pop()
				values[i] = fr.value
				spans[i] = fr.span
			}

			var span lexer.Span
			if n == 0 {
				span = lexer.Span{Start: a.Span.Start, End: a.Span.Start}
			} else {
				span = lexer.MergeSpans(spans)
			}

			result, actErr := p.action(act.Production, values, span)
			if actErr != nil {
				return zero, diags, fmt.Errorf("action for production %d (%s): %w", act.Production, g.NT(prod.LHS).Name, actErr)
			}
			frames.Push(symbolFrame[V]{value: result, span: span})

			t := states.Peek()
			target, ok := p.tables.Goto(t, prod.LHS)
			if !ok {
				return zero, diags, fmt.Errorf("no GOTO[%d, %s]: grammar/table inconsistency", t, g.NT(prod.LHS).Name)
			}
			states.Push(target)
			p.notify("reduce by production %d (%s) -> state %d", act.Production, g.NT(prod.LHS).Name, target)

		case lrtable.ActAccept:
			result := frames.Pop()
			return result.value, diags, nil

		case lrtable.ActError:
			d, recovered, rerr := p.recoverFromError(g, &states, &frames, stream, a)
			diags = append(diags, d)
			if rerr != nil {
				return zero, diags, rerr
			}
			a = recovered
			p.notify("recovered, resuming at token: %s", a)
		}
	}
}

func expectedTokenNames(g *cfgrammar.Grammar, tables *lrtable.Tables, s lrtable.StateID) []string {
	var names []string
	for _, t := range g.Terminals() {
		if tables.Action(s, t).Kind != lrtable.ActError {
			names = append(names, g.Tok(t).Name)
		}
	}
	return names
}

// expectedString renders a human list like "expected an int or ')'".
func expectedString(names []string) string {
	if len(names) == 0 {
		return "expected nothing (this state should be unreachable)"
	}
	var sb strings.Builder
	sb.WriteString("expected ")
	for i, n := range names {
		if i == 0 {
			sb.WriteString(util.ArticleFor(n, false))
			sb.WriteRune(' ')
		} else if i == len(names)-1 {
			sb.WriteString(" or ")
		} else {
			sb.WriteString(", ")
		}
		sb.WriteString(n)
	}
	return sb.String()
}
