package cfgrammar

import (
	"fmt"
	"strings"
)

// Severity classifies a grammar diagnostic. Warnings (e.g. an unreachable
// nonterminal) are reported but never prevent a Grammar from being used;
// errors (e.g. an undefined start symbol) do.
type Severity int

const (
	SevWarning Severity = iota
	SevError
)

func (s Severity) String() string {
	if s == SevError {
		return "error"
	}
	return "warning"
}

// Pos locates a diagnostic within grammar source text. Line and Col are
// 1-based; Offset is the 0-based byte offset. A Pos with Line == 0 means no
// source position is available (e.g. a diagnostic produced purely from the
// in-memory IR, with no originating source span).
type Pos struct {
	Line, Col, Offset int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// Error is a single grammar diagnostic: a severity, a source position, a
// message, and an optional wrapped cause. A grammar diagnostic has only one
// audience, the grammar author, so there's no separate user-facing/
// technical message split here.
type Error struct {
	Pos      Pos
	Severity Severity
	msg      string
	wrap     error
}

func (e *Error) Error() string {
	if e.Pos.Line == 0 {
		return fmt.Sprintf("%s: %s", e.Severity, e.msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Pos, e.Severity, e.msg)
}

// Unwrap gives the error e wraps, if any.
func (e *Error) Unwrap() error { return e.wrap }

// Errf returns a new error-severity Error at pos.
func Errf(pos Pos, format string, a ...interface{}) *Error {
	return &Error{Pos: pos, Severity: SevError, msg: fmt.Sprintf(format, a...)}
}

// Warnf returns a new warning-severity Error at pos.
func Warnf(pos Pos, format string, a ...interface{}) *Error {
	return &Error{Pos: pos, Severity: SevWarning, msg: fmt.Sprintf(format, a...)}
}

// WrapErrf returns a new error-severity Error at pos that wraps cause.
func WrapErrf(cause error, pos Pos, format string, a ...interface{}) *Error {
	return &Error{Pos: pos, Severity: SevError, msg: fmt.Sprintf(format, a...), wrap: cause}
}

// ErrorList is a batch of grammar diagnostics, the return type of Validate
// and of the grammar-source frontend. A non-nil, non-empty ErrorList whose
// HasErrors is false contains only warnings and does not prevent use of the
// Grammar it was produced from.
type ErrorList []*Error

func (el ErrorList) Error() string {
	lines := make([]string, len(el))
	for i, e := range el {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// HasErrors reports whether el contains at least one error-severity
// diagnostic (as opposed to only warnings).
func (el ErrorList) HasErrors() bool {
	for _, e := range el {
		if e.Severity == SevError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics in el.
func (el ErrorList) Errors() ErrorList {
	var out ErrorList
	for _, e := range el {
		if e.Severity == SevError {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics in el.
func (el ErrorList) Warnings() ErrorList {
	var out ErrorList
	for _, e := range el {
		if e.Severity == SevWarning {
			out = append(out, e)
		}
	}
	return out
}
