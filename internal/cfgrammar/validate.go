package cfgrammar

// Validate checks g against the structural invariants a usable grammar
// requires: a declared and existing start symbol, every nonterminal backed
// by at least one production, every symbol reference in range, and every
// nonterminal reachable from the start symbol. Unreachable nonterminals are
// reported as warnings rather than silently dropped: analysis is
// non-destructive, so Validate never prunes the IR it is handed.
//
// A non-nil return with HasErrors() true means g must not be passed to the
// LR table builder; warnings alone do not block further analysis.
func (g *Grammar) Validate() ErrorList {
	var errs ErrorList

	if !g.hasStart {
		errs = append(errs, Errf(Pos{}, "no start symbol declared"))
		return errs
	}
	if int(g.start) < 0 || int(g.start) >= len(g.nonterms) {
		errs = append(errs, Errf(Pos{}, "start symbol index %d out of range", g.start))
		return errs
	}

	for _, nt := range g.nonterms {
		if len(nt.Productions) == 0 {
			errs = append(errs, Errf(Pos{}, "nonterminal %q has no productions", nt.Name))
		}
	}

	for _, p := range g.prods {
		if int(p.LHS) < 0 || int(p.LHS) >= len(g.nonterms) {
			errs = append(errs, Errf(Pos{}, "production %d has out-of-range LHS index %d", p.Index, p.LHS))
			continue
		}
		for _, sym := range p.RHS {
			if sym.IsTerminal() {
				if int(sym.Token()) < 0 || int(sym.Token()) >= len(g.tokens) {
					errs = append(errs, Errf(Pos{}, "production %q references out-of-range token index %d",
						g.NT(p.LHS).Name, sym.Token()))
				}
			} else {
				if int(sym.Nonterm()) < 0 || int(sym.Nonterm()) >= len(g.nonterms) {
					errs = append(errs, Errf(Pos{}, "production %q references out-of-range nonterminal index %d",
						g.NT(p.LHS).Name, sym.Nonterm()))
				}
			}
		}
	}

	if errs.HasErrors() {
		return errs
	}

	reachable := g.reachableNonterms()
	for _, nt := range g.nonterms {
		if _, ok := reachable[nt.Index]; !ok {
			errs = append(errs, Warnf(Pos{}, "nonterminal %q is unreachable from start symbol %q",
				nt.Name, g.nonterms[g.start].Name))
		}
	}

	return errs
}

func (g *Grammar) reachableNonterms() map[NontermIndex]struct{} {
	seen := map[NontermIndex]struct{}{g.start: {}}
	worklist := []NontermIndex{g.start}
	for len(worklist) > 0 {
		nt := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, pIdx := range g.nonterms[nt].Productions {
			for _, sym := range g.prods[pIdx].RHS {
				if sym.IsTerminal() {
					continue
				}
				next := sym.Nonterm()
				if _, ok := seen[next]; !ok {
					seen[next] = struct{}{}
					worklist = append(worklist, next)
				}
			}
		}
	}
	return seen
}
