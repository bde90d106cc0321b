package lexer

import "github.com/pachanoid/gudgeon/internal/cfgrammar"

// SliceLexer is a reference Lexer over an already-tokenized slice of
// Lexeme, useful for tests and for callers who classify input by their own
// means and only need a Lexer shim to hand results to a TokenStream. The
// source buffer the lexemes' spans index into is optional: it is only
// needed if something downstream (a semantic action, a diagnostic) ever
// calls Text.
type SliceLexer struct {
	source  []byte
	lexemes []Lexeme
	pos     int
}

// NewSliceLexer returns a Lexer that yields lexemes in order, then reports
// ErrSourceExhausted. Text returns nil for every span, since there is no
// backing source buffer.
func NewSliceLexer(lexemes []Lexeme) *SliceLexer {
	return &SliceLexer{lexemes: lexemes}
}

// NewSliceLexerWithSource is like NewSliceLexer but also retains source, so
// Text and LineCol resolve to real source material rather than degrading to
// their source-less defaults.
func NewSliceLexerWithSource(source []byte, lexemes []Lexeme) *SliceLexer {
	return &SliceLexer{source: source, lexemes: lexemes}
}

// Next implements Lexer.
func (s *SliceLexer) Next() (Lexeme, error) {
	if s.pos >= len(s.lexemes) {
		return Lexeme{}, ErrSourceExhausted
	}
	lx := s.lexemes[s.pos]
	s.pos++
	return lx, nil
}

// Text implements Lexer.
func (s *SliceLexer) Text(span Span) []byte {
	if s.source == nil || span.Start < 0 || span.End > len(s.source) || span.Start > span.End {
		return nil
	}
	return s.source[span.Start:span.End]
}

// LineCol implements Lexer.
func (s *SliceLexer) LineCol(offset int) (int, int) {
	return lineColAt(s.source, offset)
}

// ClassifyFunc attempts to match a token at the start of data, returning
// the number of bytes consumed and the token it classified as. It should
// return (0, _, false) when no rule of the caller's matches at this
// position, in which case ScanLexer reports a lex error rather than
// looping forever.
type ClassifyFunc func(data []byte) (consumed int, tok cfgrammar.TokenIndex, ok bool)

// ScanLexer is a reference Lexer that repeatedly applies a caller-supplied
// ClassifyFunc (and an optional whitespace skipper) over a fixed byte
// slice. It exists to give callers a working Lexer without requiring them
// to write their own scanning boilerplate; it is deliberately not a
// rule-table or regex-compiled scanner; compiling a grammar's own lexical
// rules into a DFA is out of scope here (see the package doc).
type ScanLexer struct {
	data      []byte
	pos       int
	classify  ClassifyFunc
	skipSpace func(b byte) bool
}

// NewScanLexer returns a ScanLexer over data. skipSpace, if non-nil, is
// consulted before each classification attempt and any bytes it accepts
// are skipped without producing a lexeme (and without being offered to
// classify).
func NewScanLexer(data []byte, classify ClassifyFunc, skipSpace func(b byte) bool) *ScanLexer {
	return &ScanLexer{data: data, classify: classify, skipSpace: skipSpace}
}

// Next implements Lexer.
func (s *ScanLexer) Next() (Lexeme, error) {
	for s.skipSpace != nil && s.pos < len(s.data) && s.skipSpace(s.data[s.pos]) {
		s.pos++
	}
	if s.pos >= len(s.data) {
		return Lexeme{}, ErrSourceExhausted
	}

	start := s.pos
	n, tok, ok := s.classify(s.data[s.pos:])
	if !ok || n <= 0 {
		return Lexeme{}, &LexError{Span: Span{Start: start, End: start}, Rune: s.data[s.pos]}
	}

	s.pos += n
	return Lexeme{Token: tok, Span: Span{Start: start, End: start + n}}, nil
}

// Text implements Lexer.
func (s *ScanLexer) Text(span Span) []byte {
	if span.Start < 0 || span.End > len(s.data) || span.Start > span.End {
		return nil
	}
	return s.data[span.Start:span.End]
}

// LineCol implements Lexer.
func (s *ScanLexer) LineCol(offset int) (int, int) {
	return lineColAt(s.data, offset)
}
