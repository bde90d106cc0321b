package cfgrammar

import (
	"strconv"
	"strings"
)

// Parse reads Yacc-like grammar source and returns the resulting Grammar
// along with any diagnostics collected along the way. Source is split into
// a declarations section and a rules section by a line containing only
// "%%", mirroring the classic Yacc file shape; a second "%%" line and
// anything after it (a literal trailer, e.g. driver glue) is accepted but
// ignored, since this module's scope is grammar analysis, not code
// generation for user semantic actions.
//
// Recognized declarations: %start, %token, %left, %right, %nonassoc,
// %avoid_insert, %expect, %actiontype, %epp, %implicit_tokens. Rules are of
// the form `lhs : alt1 | alt2 | ... ;`, where each alternative is a
// whitespace-separated sequence of symbol names, an optional `%prec TOK`
// override, and an optional brace-delimited action body, e.g. `{ $$ = $1 }`.
// Action bodies are captured as opaque byte spans (brace-depth matched) and
// never interpreted, per the Production.Action contract in symbol.go.
func Parse(src []byte) (*Grammar, ErrorList) {
	p := &frontendParser{
		g:    New(),
		errs: nil,
	}
	decls, rules := splitSections(string(src))
	p.parseDeclarations(decls)
	p.parseRules(rules)

	if !p.g.hasStart && len(p.g.nonterms) > 0 {
		// Yacc convention: if %start was never given, the LHS of the first
		// rule is the start symbol.
		p.g.SetStart(p.firstRuleLHS)
	}

	return p.g, p.errs
}

type frontendParser struct {
	g            *Grammar
	errs         ErrorList
	line         int
	precLevel    int
	firstRuleLHS NontermIndex
	sawFirstRule bool
}

func (p *frontendParser) errf(format string, a ...interface{}) {
	p.errs = append(p.errs, Errf(Pos{Line: p.line}, format, a...))
}

// splitSections finds the first top-level "%%" line and returns the text
// before it (declarations) and the text after it up to a second "%%" line,
// if any (rules). A trailer section after a second "%%" is discarded.
func splitSections(src string) (decls, rules string) {
	lines := strings.Split(src, "\n")
	sep := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == "%%" {
			sep = i
			break
		}
	}
	if sep == -1 {
		return src, ""
	}
	decls = strings.Join(lines[:sep], "\n")
	rest := lines[sep+1:]
	second := -1
	for i, l := range rest {
		if strings.TrimSpace(l) == "%%" {
			second = i
			break
		}
	}
	if second == -1 {
		rules = strings.Join(rest, "\n")
	} else {
		rules = strings.Join(rest[:second], "\n")
	}
	return decls, rules
}

func (p *frontendParser) parseDeclarations(decls string) {
	for _, raw := range strings.Split(decls, "\n") {
		p.line++
		line := strings.TrimSpace(stripComment(raw))
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		directive := fields[0]
		args := fields[1:]

		switch directive {
		case "%start":
			if len(args) != 1 {
				p.errf("%%start requires exactly one nonterminal name")
				continue
			}
			p.g.SetStart(p.g.Nonterm(args[0]))
		case "%token":
			for _, name := range args {
				p.g.Token(name)
			}
		case "%left", "%right", "%nonassoc":
			p.precLevel++
			assoc := AssocLeft
			if directive == "%right" {
				assoc = AssocRight
			} else if directive == "%nonassoc" {
				assoc = AssocNonAssoc
			}
			for _, name := range args {
				tok := p.g.Token(name)
				p.g.SetPrecedence(tok, p.precLevel, assoc)
			}
		case "%avoid_insert":
			for _, name := range args {
				if !p.g.HasToken(name) {
					p.g.Token(name)
				}
				tok, _ := p.g.TokenIndexByName(name)
				p.g.SetAvoidInsert(tok)
			}
		case "%expect":
			if len(args) != 1 {
				p.errf("%%expect requires exactly one integer argument")
				continue
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				p.errf("%%expect argument %q is not an integer", args[0])
				continue
			}
			p.g.Expect = n
		case "%actiontype", "%epp", "%implicit_tokens":
			// Recognized and otherwise ignored: their arguments are
			// discarded and nothing in this module reads them. Quoted
			// literals in rules are interned as tokens by resolveSymbol
			// whether or not %implicit_tokens is present.
		default:
			p.errf("unrecognized declaration %q", directive)
		}
	}
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i >= 0 {
		return line[:i]
	}
	return line
}

func (p *frontendParser) parseRules(rules string) {
	// Join continuation lines into whole rule statements, splitting only on
	// ';' at brace-depth 0, so that multi-line alternatives and action
	// bodies spanning several lines are handled uniformly.
	joined := stripAllComments(rules)
	depth := 0
	var cur strings.Builder
	var stmts []string
	lineOfStmtStart := 1
	curLine := 1
	for _, r := range joined {
		if r == '\n' {
			curLine++
		}
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		cur.WriteRune(r)
		if r == ';' && depth == 0 {
			stmts = append(stmts, cur.String())
			cur.Reset()
			lineOfStmtStart = curLine
			_ = lineOfStmtStart
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		stmts = append(stmts, cur.String())
	}

	for _, stmt := range stmts {
		p.parseRuleStatement(stmt)
	}
}

func stripAllComments(src string) string {
	lines := strings.Split(src, "\n")
	for i, l := range lines {
		lines[i] = stripComment(l)
	}
	return strings.Join(lines, "\n")
}

// parseRuleStatement parses a single `lhs : alt1 | alt2 | ... ;` statement.
func (p *frontendParser) parseRuleStatement(stmt string) {
	stmt = strings.TrimSpace(stmt)
	stmt = strings.TrimSuffix(stmt, ";")
	colon := strings.Index(stmt, ":")
	if colon < 0 {
		if strings.TrimSpace(stmt) == "" {
			return
		}
		p.errf("rule missing ':' separator: %q", truncate(stmt))
		return
	}
	lhsName := strings.TrimSpace(stmt[:colon])
	if lhsName == "" {
		p.errf("rule has empty left-hand side")
		return
	}
	lhs := p.g.Nonterm(lhsName)
	if !p.sawFirstRule {
		p.sawFirstRule = true
		p.firstRuleLHS = lhs
	}

	body := stmt[colon+1:]
	for _, alt := range splitAlternatives(body) {
		p.parseAlternative(lhs, alt)
	}
}

// splitAlternatives splits a rule body on top-level '|' characters, i.e.
// those not enclosed in an action body's braces.
func splitAlternatives(body string) []string {
	depth := 0
	var cur strings.Builder
	var alts []string
	for _, r := range body {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		if r == '|' && depth == 0 {
			alts = append(alts, cur.String())
			cur.Reset()
			continue
		}
		cur.WriteRune(r)
	}
	alts = append(alts, cur.String())
	return alts
}

func (p *frontendParser) parseAlternative(lhs NontermIndex, alt string) {
	var action []byte
	if i := strings.IndexByte(alt, '{'); i >= 0 {
		if j := strings.LastIndexByte(alt, '}'); j > i {
			action = []byte(strings.TrimSpace(alt[i+1 : j]))
			alt = alt[:i] + " " + alt[j+1:]
		}
	}

	fields := strings.Fields(alt)
	var rhs []Symbol
	prec := NoPrec
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		if tok == "%prec" {
			i++
			if i >= len(fields) {
				p.errf("%%prec in rule for %q requires an argument", p.g.NT(lhs).Name)
				break
			}
			precTok := p.g.Token(fields[i])
			prec = p.g.Tok(precTok).Prec
			continue
		}
		if tok == "%empty" {
			continue
		}
		rhs = append(rhs, p.resolveSymbol(tok))
	}

	if prec == NoPrec {
		for i := len(rhs) - 1; i >= 0; i-- {
			if rhs[i].IsTerminal() {
				prec = p.g.Tok(rhs[i].Token()).Prec
				break
			}
		}
	}

	p.g.AddProduction(lhs, rhs, prec, action)
}

// resolveSymbol maps a bare identifier or a quoted literal to a Symbol,
// following Yacc's own convention: anything already declared as a token is
// a terminal, a quoted literal is interned as a token on first sight, and
// everything else is treated as a nonterminal (declared implicitly if this
// is its first occurrence).
func (p *frontendParser) resolveSymbol(name string) Symbol {
	if len(name) >= 2 && (name[0] == '\'' || name[0] == '"') && name[len(name)-1] == name[0] {
		return Tok(p.g.Token(name))
	}
	if p.g.HasToken(name) {
		tok, _ := p.g.TokenIndexByName(name)
		return Tok(tok)
	}
	return NT(p.g.Nonterm(name))
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
