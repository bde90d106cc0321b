package util

import (
	"fmt"
	"strings"
)

// IntSet is a set of small non-negative integers, the index-keyed analogue
// of a string-keyed set type. Tokens, nonterminals, and states in this
// module are all dense integer indices, so sets of them are backed by a
// bitset rather than a map for fast union/membership and for deterministic
// ascending iteration (FIRST/FOLLOW sets and the closure lookaheads drawn
// from them).
type IntSet struct {
	bits []uint64
}

// NewIntSet returns a new, empty IntSet.
func NewIntSet(of ...int) IntSet {
	var s IntSet
	for _, v := range of {
		s.Add(v)
	}
	return s
}

func wordIndex(v int) (word, bit int) {
	return v / 64, v % 64
}

func (s *IntSet) ensure(word int) {
	if word >= len(s.bits) {
		grown := make([]uint64, word+1)
		copy(grown, s.bits)
		s.bits = grown
	}
}

// Add adds v to the set. No effect if v is already present.
func (s *IntSet) Add(v int) {
	w, b := wordIndex(v)
	s.ensure(w)
	s.bits[w] |= 1 << uint(b)
}

// AddAll adds every element of o to s and reports whether s changed.
func (s *IntSet) AddAll(o IntSet) (changed bool) {
	for _, v := range o.Elements() {
		if !s.Has(v) {
			s.Add(v)
			changed = true
		}
	}
	return changed
}

// Has returns whether v is in the set.
func (s IntSet) Has(v int) bool {
	w, b := wordIndex(v)
	if w >= len(s.bits) {
		return false
	}
	return s.bits[w]&(1<<uint(b)) != 0
}

// Remove removes v from the set, if present.
func (s *IntSet) Remove(v int) {
	w, b := wordIndex(v)
	if w >= len(s.bits) {
		return
	}
	s.bits[w] &^= 1 << uint(b)
}

// Len returns the number of elements in the set.
func (s IntSet) Len() int {
	n := 0
	for _, w := range s.bits {
		for w != 0 {
			n += int(w & 1)
			w >>= 1
		}
	}
	return n
}

// Empty returns whether the set has no elements.
func (s IntSet) Empty() bool {
	for _, w := range s.bits {
		if w != 0 {
			return false
		}
	}
	return true
}

// Elements returns the set's members in ascending order.
func (s IntSet) Elements() []int {
	elems := make([]int, 0, s.Len())
	for w, word := range s.bits {
		if word == 0 {
			continue
		}
		for b := 0; b < 64; b++ {
			if word&(1<<uint(b)) != 0 {
				elems = append(elems, w*64+b)
			}
		}
	}
	return elems
}

// Copy returns a duplicate of s.
func (s IntSet) Copy() IntSet {
	cp := make([]uint64, len(s.bits))
	copy(cp, s.bits)
	return IntSet{bits: cp}
}

// Equal returns whether s and o contain exactly the same elements.
func (s IntSet) Equal(o IntSet) bool {
	n := len(s.bits)
	if len(o.bits) > n {
		n = len(o.bits)
	}
	for i := 0; i < n; i++ {
		var a, b uint64
		if i < len(s.bits) {
			a = s.bits[i]
		}
		if i < len(o.bits) {
			b = o.bits[i]
		}
		if a != b {
			return false
		}
	}
	return true
}

// String renders the set's elements in ascending order, e.g. "{1, 4, 7}".
func (s IntSet) String() string {
	elems := s.Elements()
	strs := make([]string, len(elems))
	for i, v := range elems {
		strs[i] = fmt.Sprintf("%d", v)
	}
	return "{" + strings.Join(strs, ", ") + "}"
}
