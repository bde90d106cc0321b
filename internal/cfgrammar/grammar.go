package cfgrammar

import "fmt"

// EOFTokenName and ErrorTokenName are the reserved display names of the two
// tokens every Grammar carries implicitly: the end-of-input sentinel and the
// synchronization token productions can reference for recovery. Neither can
// be declared again with %token.
const (
	EOFTokenName   = "$"
	ErrorTokenName = "error"
)

// Grammar is the canonical, index-based intermediate representation built
// from a parsed grammar source. It is constructed incrementally via Token,
// Nonterm, and AddProduction, then finalized and checked with Validate.
//
// A Grammar is immutable once Validate has succeeded: callers should treat
// the value as read-only and share it freely across goroutines.
// Non-augmented Grammars always carry their own start nonterminal;
// Augmented returns a derived Grammar with a synthesized start rule for use
// by the LR item-set builder.
type Grammar struct {
	tokens   []Token
	nonterms []Nonterminal
	prods    []Production

	tokenByName   map[string]TokenIndex
	nontermByName map[string]NontermIndex

	start    NontermIndex
	hasStart bool
	eof      TokenIndex
	errorTok TokenIndex

	// Expect is the count of shift/reduce and reduce/reduce conflicts the
	// grammar author has declared as acceptable via %expect. -1 means no
	// %expect declaration was present (zero conflicts tolerated).
	Expect int
}

// New returns an empty Grammar with its two reserved tokens (end-of-input
// and the synchronization "error" token) already registered.
func New() *Grammar {
	g := &Grammar{
		tokenByName:   map[string]TokenIndex{},
		nontermByName: map[string]NontermIndex{},
		Expect:        -1,
	}
	g.eof = g.internToken(EOFTokenName)
	g.errorTok = g.internToken(ErrorTokenName)
	return g
}

func (g *Grammar) internToken(name string) TokenIndex {
	if idx, ok := g.tokenByName[name]; ok {
		return idx
	}
	idx := TokenIndex(len(g.tokens))
	g.tokens = append(g.tokens, Token{Index: idx, Name: name})
	g.tokenByName[name] = idx
	return idx
}

// Token declares (or fetches, if already declared) a terminal by name and
// returns its index. Declaring the same name twice is not an error; it
// returns the existing index, matching Yacc's tolerance of repeated %token
// lines for the same symbol.
func (g *Grammar) Token(name string) TokenIndex {
	return g.internToken(name)
}

// SetPrecedence sets the precedence level and associativity of an
// already-declared token, as done by %left/%right/%nonassoc. Level must be
// strictly increasing across successive declaration lines by convention of
// the frontend; the grammar package itself does not enforce that ordering.
func (g *Grammar) SetPrecedence(t TokenIndex, level int, assoc Assoc) {
	g.tokens[t].Prec = level
	g.tokens[t].Assoc = assoc
}

// SetAvoidInsert marks t as a token CPCT+ must never propose inserting.
func (g *Grammar) SetAvoidInsert(t TokenIndex) {
	g.tokens[t].AvoidInsert = true
}

// Nonterm declares (or fetches) a nonterminal by name and returns its
// index.
func (g *Grammar) Nonterm(name string) NontermIndex {
	if idx, ok := g.nontermByName[name]; ok {
		return idx
	}
	idx := NontermIndex(len(g.nonterms))
	g.nonterms = append(g.nonterms, Nonterminal{Index: idx, Name: name})
	g.nontermByName[name] = idx
	return idx
}

// HasToken reports whether name has already been declared as a token.
func (g *Grammar) HasToken(name string) bool {
	_, ok := g.tokenByName[name]
	return ok
}

// HasNonterm reports whether name has already been declared as a
// nonterminal.
func (g *Grammar) HasNonterm(name string) bool {
	_, ok := g.nontermByName[name]
	return ok
}

// SetStart marks nt as the grammar's start symbol.
func (g *Grammar) SetStart(nt NontermIndex) {
	g.start = nt
	g.hasStart = true
}

// AddProduction appends a new production LHS -> RHS and returns its index.
// Prec is the production's precedence override (from %prec); pass NoPrec to
// let the conflict resolver derive it from the rightmost terminal in RHS.
func (g *Grammar) AddProduction(lhs NontermIndex, rhs []Symbol, prec int, action []byte) ProductionIndex {
	idx := ProductionIndex(len(g.prods))
	g.prods = append(g.prods, Production{
		Index:  idx,
		LHS:    lhs,
		RHS:    append([]Symbol(nil), rhs...),
		Prec:   prec,
		Action: action,
	})
	g.nonterms[lhs].Productions = append(g.nonterms[lhs].Productions, idx)
	return idx
}

// StartSymbol returns the grammar's declared start nonterminal.
func (g *Grammar) StartSymbol() NontermIndex { return g.start }

// EOF returns the index of the reserved end-of-input token.
func (g *Grammar) EOF() TokenIndex { return g.eof }

// ErrorToken returns the index of the reserved "error" synchronization
// token.
func (g *Grammar) ErrorToken() TokenIndex { return g.errorTok }

// Tok returns the Token registered at index t.
func (g *Grammar) Tok(t TokenIndex) Token { return g.tokens[t] }

// NT returns the Nonterminal registered at index nt.
func (g *Grammar) NT(nt NontermIndex) Nonterminal { return g.nonterms[nt] }

// Prod returns the Production registered at index p.
func (g *Grammar) Prod(p ProductionIndex) Production { return g.prods[p] }

// NumTokens returns the number of distinct terminals, including the two
// reserved ones.
func (g *Grammar) NumTokens() int { return len(g.tokens) }

// NumNonterms returns the number of distinct nonterminals.
func (g *Grammar) NumNonterms() int { return len(g.nonterms) }

// NumProductions returns the number of productions across all
// nonterminals.
func (g *Grammar) NumProductions() int { return len(g.prods) }

// TokenIndexByName returns the index of a previously-declared token and
// whether it was found.
func (g *Grammar) TokenIndexByName(name string) (TokenIndex, bool) {
	idx, ok := g.tokenByName[name]
	return idx, ok
}

// NontermIndexByName returns the index of a previously-declared nonterminal
// and whether it was found.
func (g *Grammar) NontermIndexByName(name string) (NontermIndex, bool) {
	idx, ok := g.nontermByName[name]
	return idx, ok
}

// Augmented returns a derived Grammar identical to g but with a synthesized
// start nonterminal S' whose only production is `S' -> S`, where S is g's
// own start symbol. The LR(1) item-set builder always operates on an
// augmented grammar; the end-of-input token itself is carried as the
// lookahead of the completed augmented item rather than as a literal
// shifted RHS symbol, following the classical dragon-book formulation —
// see DESIGN.md for why a literal `S' -> S $` reading was not taken.
func (g *Grammar) Augmented() *Grammar {
	cp := *g
	cp.tokens = append([]Token(nil), g.tokens...)
	cp.nonterms = append([]Nonterminal(nil), g.nonterms...)
	cp.prods = append([]Production(nil), g.prods...)
	cp.tokenByName = make(map[string]TokenIndex, len(g.tokenByName))
	for k, v := range g.tokenByName {
		cp.tokenByName[k] = v
	}
	cp.nontermByName = make(map[string]NontermIndex, len(g.nontermByName))
	for k, v := range g.nontermByName {
		cp.nontermByName[k] = v
	}

	augName := "$augstart"
	for cp.HasNonterm(augName) {
		augName = augName + "'"
	}
	augStart := cp.Nonterm(augName)
	cp.AddProduction(augStart, []Symbol{NT(g.start)}, NoPrec, nil)
	cp.SetStart(augStart)

	return &cp
}

// IsAugmentedStart reports whether prod is the single synthesized
// production of an augmented grammar.
func (g *Grammar) IsAugmentedStart(p ProductionIndex) bool {
	prod := g.prods[p]
	return prod.LHS == g.start && len(prod.RHS) == 1 && prod.RHS[0].Kind == SymNonterm
}

// Terminals returns the indices of every declared token, including the
// reserved end-of-input and error tokens, in ascending (declaration) order.
func (g *Grammar) Terminals() []TokenIndex {
	out := make([]TokenIndex, len(g.tokens))
	for i := range g.tokens {
		out[i] = TokenIndex(i)
	}
	return out
}

// Nonterminals returns the indices of every declared nonterminal in
// ascending (declaration) order.
func (g *Grammar) Nonterminals() []NontermIndex {
	out := make([]NontermIndex, len(g.nonterms))
	for i := range g.nonterms {
		out[i] = NontermIndex(i)
	}
	return out
}

// Productions returns the indices of every production in declaration
// order.
func (g *Grammar) Productions() []ProductionIndex {
	out := make([]ProductionIndex, len(g.prods))
	for i := range g.prods {
		out[i] = ProductionIndex(i)
	}
	return out
}

func (g *Grammar) String() string {
	return fmt.Sprintf("Grammar{tokens: %d, nonterms: %d, productions: %d, start: %q}",
		len(g.tokens), len(g.nonterms), len(g.prods), g.nonterms[g.start].Name)
}
