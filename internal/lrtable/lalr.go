package lrtable

import (
	"fmt"
	"sort"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"github.com/pachanoid/gudgeon/internal/cfgrammar"
)

// coreKey canonicalizes the LR0Item core of an item set for grouping,
// independent of the lookaheads attached to each item.
func coreKey(g *cfgrammar.Grammar, s cfgrammar.ItemSet) itemSetKey {
	cores := s.CoreSet()
	items := make([]cfgrammar.LR0Item, 0, len(cores))
	for c := range cores {
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Production != items[j].Production {
			return items[i].Production < items[j].Production
		}
		return items[i].Dot < items[j].Dot
	})
	var k itemSetKey
	for _, it := range items {
		k += itemSetKey(fmt.Sprintf("%d.%d|", it.Production, it.Dot))
	}
	return k
}

// Collapse merges the states of a canonical LR(1) automaton into an
// LALR(1) automaton by combining every group of states sharing the same
// LR0Item core into a single state whose items carry the union of the
// group's lookaheads. Since group membership here depends only on core
// equality (not on incremental DFA mutation as states are discovered), the
// whole partition can be computed in one pass instead of an
// iterate-until-no-merge loop.
//
// Per-group membership is held in a gods treeset (ordered by canonical
// StateID) so that the union of a group's item sets is always built by
// visiting members in a stable order, and the set of distinct core groups
// themselves is accumulated in a gods arraylist before the merged states
// and transition table are materialized.
func Collapse(g *cfgrammar.Grammar, canon *Automaton) (*Automaton, map[StateID]StateID) {
	idComparator := func(a, b interface{}) int {
		return utils.IntComparator(a, b)
	}

	groupOf := map[itemSetKey]int{}
	groups := arraylist.New() // each element is a *treeset.Set of StateID (as int)

	for id := range canon.States {
		k := coreKey(g, canon.States[id])
		gi, ok := groupOf[k]
		if !ok {
			gi = groups.Size()
			groupOf[k] = gi
			groups.Add(treeset.NewWith(idComparator))
		}
		grpVal, _ := groups.Get(gi)
		grp := grpVal.(*treeset.Set)
		grp.Add(int(id))
	}

	// canonical -> merged mapping, derived directly from groupOf via each
	// canonical state's core key.
	mapping := map[StateID]StateID{}
	for id := range canon.States {
		k := coreKey(g, canon.States[id])
		mapping[StateID(id)] = StateID(groupOf[k])
	}

	merged := &Automaton{
		States:      make([]cfgrammar.ItemSet, groups.Size()),
		Transitions: make([]map[cfgrammar.Symbol]StateID, groups.Size()),
		Start:       mapping[canon.Start],
	}

	for gi := 0; gi < groups.Size(); gi++ {
		grpVal, _ := groups.Get(gi)
		grp := grpVal.(*treeset.Set)
		union := cfgrammar.NewItemSet()
		for _, v := range grp.Values() {
			memberID := StateID(v.(int))
			for it := range canon.States[memberID] {
				union.Add(it)
			}
		}
		merged.States[gi] = union
		merged.Transitions[gi] = map[cfgrammar.Symbol]StateID{}
	}

	for id := range canon.States {
		from := mapping[StateID(id)]
		for sym, to := range canon.Transitions[id] {
			merged.Transitions[from][sym] = mapping[to]
		}
	}

	return merged, mapping
}
