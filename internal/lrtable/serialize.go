package lrtable

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cnf/structhash"
	"github.com/dekarrin/rezi"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// FormatVersion is bumped whenever the on-disk shape of a serialized table
// changes in a way that breaks compatibility with previously written
// files.
const FormatVersion = 1

// magicPrefix opens every serialized table file, followed by a tab, the
// format version, a tab, the grammar fingerprint in hex, and a newline,
// before the rezi-encoded binary payload begins: a small text header
// scanned ahead of the real payload rather than a fixed-width binary magic
// number.
const magicPrefix = "GUDGEON"

// GrammarFingerprint returns a stable content hash of g's structural
// shape (tokens, nonterminals, productions, precedences) suitable for
// detecting whether a serialized table was built from a different grammar
// than the one currently in hand. It is computed with structhash the same
// way the Earley parser's item hashing is (lr/earley/earley.go), applied
// here to the grammar's declared surface instead of per-item state.
func GrammarFingerprint(g *cfgrammar.Grammar) (string, error) {
	type tokenShape struct {
		Name  string
		Prec  int
		Assoc cfgrammar.Assoc
	}
	type prodShape struct {
		LHS  int
		RHS  []cfgrammar.Symbol
		Prec int
	}

	shape := struct {
		Tokens   []tokenShape
		Nonterms []string
		Prods    []prodShape
		Start    int
	}{
		Start: int(g.StartSymbol()),
	}
	for _, t := range g.Terminals() {
		tok := g.Tok(t)
		shape.Tokens = append(shape.Tokens, tokenShape{Name: tok.Name, Prec: tok.Prec, Assoc: tok.Assoc})
	}
	for _, nt := range g.Nonterminals() {
		shape.Nonterms = append(shape.Nonterms, g.NT(nt).Name)
	}
	for _, p := range g.Productions() {
		prod := g.Prod(p)
		shape.Prods = append(shape.Prods, prodShape{LHS: int(prod.LHS), RHS: prod.RHS, Prec: prod.Prec})
	}

	return structhash.Hash(shape, 1)
}

// tablePayload is the exported mirror of Tables that rezi actually
// serializes: the state count, start state, action/goto grids, and conflict
// list. Token and nonterminal names and per-production metadata are not
// stored; they come from the Grammar that Deserialize is handed, checked
// against the header's fingerprint.
type tablePayload struct {
	NumStates int
	Start     StateID
	Action    [][]Action
	Goto      [][]StateID
	GotoValid [][]bool
	Conflicts []Conflict
}

// MarshalBinary implements encoding.BinaryMarshaler over the table grids,
// composed with rezi's value encoders field by field rather than
// hand-rolling a byte layout.
func (p tablePayload) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	for _, enc := range []func() ([]byte, error){
		func() ([]byte, error) { return rezi.Enc(p.NumStates) },
		func() ([]byte, error) { return rezi.Enc(p.Start) },
		func() ([]byte, error) { return rezi.Enc(p.Action) },
		func() ([]byte, error) { return rezi.Enc(p.Goto) },
		func() ([]byte, error) { return rezi.Enc(p.GotoValid) },
		func() ([]byte, error) { return rezi.Enc(p.Conflicts) },
	} {
		b, err := enc()
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler, decoding fields
// back out in the same order MarshalBinary wrote them.
func (p *tablePayload) UnmarshalBinary(data []byte) error {
	offset := 0
	decodeNext := func(target interface{}) error {
		n, err := rezi.Dec(data[offset:], target)
		if err != nil {
			return err
		}
		offset += n
		return nil
	}

	if err := decodeNext(&p.NumStates); err != nil {
		return fmt.Errorf("decode NumStates: %w", err)
	}
	if err := decodeNext(&p.Start); err != nil {
		return fmt.Errorf("decode Start: %w", err)
	}
	if err := decodeNext(&p.Action); err != nil {
		return fmt.Errorf("decode Action: %w", err)
	}
	if err := decodeNext(&p.Goto); err != nil {
		return fmt.Errorf("decode Goto: %w", err)
	}
	if err := decodeNext(&p.GotoValid); err != nil {
		return fmt.Errorf("decode GotoValid: %w", err)
	}
	if err := decodeNext(&p.Conflicts); err != nil {
		return fmt.Errorf("decode Conflicts: %w", err)
	}
	return nil
}

// Serialize encodes t into the on-disk table format: a text header naming
// the format version and the fingerprint of the grammar it was built from,
// followed by the rezi-encoded grid payload.
func Serialize(t *Tables) ([]byte, error) {
	fp, err := GrammarFingerprint(t.Grammar)
	if err != nil {
		return nil, fmt.Errorf("fingerprint grammar: %w", err)
	}

	payload := tablePayload{
		NumStates: t.NumStates(),
		Start:     t.Start,
		Action:    t.action,
		Goto:      t.goto_,
		GotoValid: t.valid,
		Conflicts: t.Conflicts,
	}
	body, err := rezi.EncBinary(payload)
	if err != nil {
		return nil, fmt.Errorf("encode table payload: %w", err)
	}

	header := fmt.Sprintf("%s\t%d\t%s\n", magicPrefix, FormatVersion, fp)
	return append([]byte(header), body...), nil
}

// Deserialize decodes data (as produced by Serialize) back into a Tables
// bound to g's augmented form, the same grammar Build derives from g. It
// returns an error if the header is malformed, the format
// version is unsupported, or g's fingerprint does not match the one the
// table was built from — the staleness case a build cache must detect
// before trusting a table it didn't just construct.
func Deserialize(data []byte, g *cfgrammar.Grammar) (*Tables, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return nil, fmt.Errorf("malformed table file: no header line")
	}
	header := string(data[:nl])
	fields := strings.Split(header, "\t")
	if len(fields) != 3 || fields[0] != magicPrefix {
		return nil, fmt.Errorf("malformed table file: bad magic header %q", header)
	}
	version, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("malformed table file: bad version field %q", fields[1])
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported table format version %d (want %d)", version, FormatVersion)
	}

	aug := g.Augmented()
	wantFP, err := GrammarFingerprint(aug)
	if err != nil {
		return nil, fmt.Errorf("fingerprint grammar: %w", err)
	}
	if fields[2] != wantFP {
		return nil, fmt.Errorf("stale table file: built from a different grammar (fingerprint %s, want %s)", fields[2], wantFP)
	}

	var payload tablePayload
	n, err := rezi.DecBinary(data[nl+1:], &payload)
	if err != nil {
		return nil, fmt.Errorf("decode table payload: %w", err)
	}
	if n != len(data[nl+1:]) {
		return nil, fmt.Errorf("decoded byte count mismatch: consumed %d/%d bytes", n, len(data[nl+1:]))
	}

	return &Tables{
		Grammar:   aug,
		Start:     payload.Start,
		action:    payload.Action,
		goto_:     payload.Goto,
		valid:     payload.GotoValid,
		Conflicts: payload.Conflicts,
	}, nil
}
