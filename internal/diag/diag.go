// Package diag collects and renders the diagnostics the parsing engine
// produces when it hits and recovers from a syntax error: wrapped,
// human-readable errors with an optional underlying cause, a source span,
// and the repair sequence(s) found for it.
package diag

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"

	"github.com/pachanoid/gudgeon/internal/lexer"
)

// Span is a half-open byte range into the source text a Diagnostic (or an
// ActionFunc's merged-span argument) refers to. It is an alias for
// lexer.Span, not a second type, so a Lexeme's span and a Diagnostic's span
// are always interchangeable.
type Span = lexer.Span

// Kind classifies a Diagnostic.
type Kind int

const (
	// KindRecovered means CPCT+ found a repair sequence and parsing
	// continued.
	KindRecovered Kind = iota
	// KindUnrecoverable means the recovery search exhausted its budget
	// without finding an accepting repair and the parser gave up.
	KindUnrecoverable
)

func (k Kind) String() string {
	if k == KindUnrecoverable {
		return "unrecoverable"
	}
	return "recovered"
}

// Diagnostic is a single syntax error report, optionally carrying the
// repair sequence(s) CPCT+ found for it.
type Diagnostic struct {
	Kind    Kind
	Span    Span
	Message string
	Repairs []RepairSequence // best first
	wrap    error
}

func (d *Diagnostic) Error() string {
	return fmt.Sprintf("%s: %s: %s", d.Span, d.Kind, d.Message)
}

// Unwrap gives the error d wraps, if any.
func (d *Diagnostic) Unwrap() error { return d.wrap }

// New returns a new KindRecovered Diagnostic.
func New(span Span, message string, repairs ...RepairSequence) *Diagnostic {
	return &Diagnostic{Span: span, Kind: KindRecovered, Message: message, Repairs: repairs}
}

// Unrecoverable returns a new KindUnrecoverable Diagnostic.
func Unrecoverable(span Span, message string) *Diagnostic {
	return &Diagnostic{Span: span, Kind: KindUnrecoverable, Message: message}
}

// Wrap returns a copy of d wrapping cause.
func Wrap(d *Diagnostic, cause error) *Diagnostic {
	cp := *d
	cp.wrap = cause
	return &cp
}

// Render formats a batch of diagnostics as a readable report: one
// paragraph per diagnostic, each listing its byte span, message, and repair
// candidates in a table built with rosed's InsertTableOpts rather than
// hand-aligning columns with fmt.Sprintf padding. Construction and
// rendering are deliberately separate steps: a Diagnostic only ever carries
// a byte Span, never a resolved line/column, so the same value can be
// rendered either this way or, with source access, via RenderWithSource.
func Render(diags []*Diagnostic) string {
	var out strings.Builder
	for i, d := range diags {
		if i > 0 {
			out.WriteString("\n\n")
		}
		out.WriteString(fmt.Sprintf("%s at %s: %s", d.Kind, d.Span, d.Message))
		out.WriteString(renderRepairTable(d.Repairs))
	}
	return out.String()
}

// RenderWithSource is like Render, but resolves each diagnostic's span to a
// line:col position and an inline source snippet via lex, instead of raw
// byte offsets.
func RenderWithSource(diags []*Diagnostic, lex lexer.Lexer) string {
	var out strings.Builder
	for i, d := range diags {
		if i > 0 {
			out.WriteString("\n\n")
		}
		line, col := lex.LineCol(d.Span.Start)
		snippet := string(lex.Text(d.Span))
		out.WriteString(fmt.Sprintf("%s at %d:%d (%q): %s", d.Kind, line, col, snippet, d.Message))
		out.WriteString(renderRepairTable(d.Repairs))
	}
	return out.String()
}

func renderRepairTable(repairs []RepairSequence) string {
	if len(repairs) == 0 {
		return ""
	}
	data := [][]string{{"#", "repair"}}
	for i, r := range repairs {
		data = append(data, []string{fmt.Sprintf("%d", i+1), r.Description})
	}
	table := rosed.Edit("").
		InsertTableOpts(0, data, 80, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
	return "\n" + table
}
