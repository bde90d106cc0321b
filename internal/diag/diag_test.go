package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pachanoid/gudgeon/internal/lexer"
)

func TestDiagnostic_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	d := Wrap(New(Span{Start: 2, End: 5}, "unexpected token", RepairSequence{Description: "delete '+'"}), cause)

	assert.Contains(t, d.Error(), "[2,5)")
	assert.Contains(t, d.Error(), "unexpected token")
	assert.Equal(t, cause, errors.Unwrap(d))
}

func TestRender_IncludesRepairTable(t *testing.T) {
	d := New(Span{Start: 1, End: 2}, "unexpected '+'",
		RepairSequence{Description: "delete '+'"},
		RepairSequence{Description: "insert int before '+'"},
	)
	out := Render([]*Diagnostic{d})
	assert.Contains(t, out, "delete '+'")
	assert.Contains(t, out, "insert int before '+'")
}

func TestRender_UnrecoverableHasNoRepairTable(t *testing.T) {
	d := Unrecoverable(Span{Start: 9, End: 9}, "recovery budget exhausted")
	out := Render([]*Diagnostic{d})
	assert.Contains(t, out, "unrecoverable")
	assert.NotContains(t, out, "repair")
}

func TestRenderWithSource_ResolvesLineColAndSnippet(t *testing.T) {
	source := []byte("1 + +2")
	lex := lexer.NewSliceLexerWithSource(source, nil)
	d := New(Span{Start: 4, End: 5}, "unexpected '+'", RepairSequence{Description: "delete '+'"})

	out := RenderWithSource([]*Diagnostic{d}, lex)
	assert.Contains(t, out, "1:5")
	assert.Contains(t, out, `"+"`)
}
