// Package lexer defines the token-source contract the parsing engine reads
// from and a couple of small reference implementations. Compiling a
// grammar's lexical rules into a regex/DFA-based scanner is explicitly out
// of scope; callers supply tokens however they see fit and this package
// only standardizes the shape a Lexer and the Lexeme it produces take.
package lexer

import (
	"fmt"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// Span is a half-open byte range [Start, End) into a source buffer. It is
// the one positional representation every lexeme, parse-stack entry, and
// diagnostic in this module shares, rather than each layer carrying its own
// ad hoc notion of "where".
type Span struct {
	Start, End int
}

// Length reports the number of bytes the span covers.
func (s Span) Length() int { return s.End - s.Start }

// Union returns the smallest span covering both s and o.
func (s Span) Union(o Span) Span {
	start, end := s.Start, s.End
	if o.Start < start {
		start = o.Start
	}
	if o.End > end {
		end = o.End
	}
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// MergeSpans returns the union of every span in spans, the rule a reduce
// uses to compute the span of the nonterminal it produces from the spans of
// the popped entries.
func MergeSpans(spans []Span) Span {
	if len(spans) == 0 {
		return Span{}
	}
	merged := spans[0]
	for _, s := range spans[1:] {
		merged = merged.Union(s)
	}
	return merged
}

// Lexeme is one scanned token: its grammar classification and the source
// span it occupies. The literal text, when needed (by a semantic action or
// a diagnostic), is retrieved on demand via the producing Lexer's Text
// method rather than carried on every Lexeme.
type Lexeme struct {
	Token cfgrammar.TokenIndex
	Span  Span
}

func (l Lexeme) String() string {
	return fmt.Sprintf("%s@%s", l.Token, l.Span)
}

// Lexer produces one Lexeme at a time from some underlying source. Next
// returns ErrSourceExhausted once the source is consumed, and must keep
// returning it if called again (TokenStream may call it again after the
// end-of-input lexeme has been synthesized). Text and
// LineCol let callers downstream of the Lexer (diagnostics, recovery,
// semantic actions) resolve a Span back into source material without the
// Lexer having to stuff that material into every Lexeme up front.
type Lexer interface {
	Next() (Lexeme, error)

	// Text returns the source bytes a span covers. Callers must not retain
	// or mutate the returned slice.
	Text(span Span) []byte

	// LineCol converts a byte offset into a 1-based (line, col) pair, for
	// rendering a human-readable position.
	LineCol(offset int) (line, col int)
}

// LexError reports a byte sequence no classification rule recognized.
type LexError struct {
	Span Span
	Rune byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: unrecognized input starting with %q", e.Span, e.Rune)
}

// ErrSourceExhausted is returned by a Lexer's Next once there is no more
// input to scan. TokenStream treats this specially: it is not a lex
// error, it is the trigger to synthesize the end-of-input lexeme the
// augmented grammar's accept item waits on.
var ErrSourceExhausted = fmt.Errorf("lexer: source exhausted")

// TokenStream wraps a Lexer with one-lexeme-of-lookahead buffering and
// synthesizes a single end-of-input Lexeme (classified as the grammar's
// reserved EOF token) once the underlying Lexer reports
// ErrSourceExhausted, so that parser code can treat "ran out of real
// input" uniformly with any other lookahead token instead of special-
// casing stream exhaustion. Next is error-aware since, unlike a purely
// in-memory token source, a scanning Lexer can fail mid-scan.
type TokenStream struct {
	lex      Lexer
	eof      cfgrammar.TokenIndex
	buffered *Lexeme
	sentEOF  bool
	lastSpan Span
}

// NewTokenStream returns a TokenStream reading from lex, synthesizing eof
// as the final lexeme once lex is exhausted.
func NewTokenStream(lex Lexer, eof cfgrammar.TokenIndex) *TokenStream {
	return &TokenStream{lex: lex, eof: eof}
}

func (ts *TokenStream) fill() (Lexeme, error) {
	if ts.buffered != nil {
		return *ts.buffered, nil
	}
	lx, err := ts.lex.Next()
	if err != nil {
		if err == ErrSourceExhausted {
			if ts.sentEOF {
				return Lexeme{}, ErrSourceExhausted
			}
			ts.sentEOF = true
			lx = Lexeme{Token: ts.eof, Span: Span{Start: ts.lastSpan.End, End: ts.lastSpan.End}}
			ts.buffered = &lx
			return lx, nil
		}
		return Lexeme{}, err
	}
	ts.lastSpan = lx.Span
	ts.buffered = &lx
	return lx, nil
}

// Peek returns the next Lexeme without consuming it.
func (ts *TokenStream) Peek() (Lexeme, error) {
	return ts.fill()
}

// Next returns the next Lexeme and advances the stream past it.
func (ts *TokenStream) Next() (Lexeme, error) {
	lx, err := ts.fill()
	if err != nil {
		return Lexeme{}, err
	}
	ts.buffered = nil
	return lx, nil
}

// HasNext reports whether the stream has at least one more lexeme
// (including the synthesized end-of-input lexeme, exactly once).
func (ts *TokenStream) HasNext() bool {
	_, err := ts.fill()
	return err == nil
}

// lineColAt converts a byte offset into data to a 1-based (line, col) pair,
// the implementation ScanLexer and SliceLexer's LineCol share.
func lineColAt(data []byte, offset int) (int, int) {
	limit := offset
	if limit > len(data) {
		limit = len(data)
	}
	line, col := 1, 1
	for i := 0; i < limit; i++ {
		if data[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
