package diag

import "github.com/pachanoid/gudgeon/internal/cfgrammar"

// EditKind is one of the edit operations a repair sequence may apply.
type EditKind int

const (
	EditShift EditKind = iota
	EditDelete
	EditInsert
)

func (k EditKind) String() string {
	switch k {
	case EditDelete:
		return "delete"
	case EditInsert:
		return "insert"
	default:
		return "shift"
	}
}

// Edit is one step of a candidate repair: shift, delete, or insert a given
// token. It lives here rather than in lrpar (where the search that
// produces it runs) so that Diagnostic can reference it without lrpar and
// diag importing each other.
type Edit struct {
	Kind  EditKind
	Token cfgrammar.TokenIndex
}

// RepairSequence is one candidate fix the recovery search found for a
// syntax error: the ordered edits it applies, plus a human-readable
// rendering of the whole sequence for display.
type RepairSequence struct {
	Edits       []Edit
	Description string
}
