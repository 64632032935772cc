package models

import "sort"

// IntSet is a set of week or period numbers.
type IntSet map[int]struct{}

// NewIntSet returns a set holding values.
func NewIntSet(values ...int) IntSet {
	s := make(IntSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts v.
func (s IntSet) Add(v int) {
	s[v] = struct{}{}
}

// Has reports whether v is a member. A nil set has no members.
func (s IntSet) Has(v int) bool {
	_, ok := s[v]
	return ok
}

// Intersects reports whether s and other share at least one member.
func (s IntSet) Intersects(other IntSet) bool {
	small, large := s, other
	if len(small) > len(large) {
		small, large = large, small
	}
	for v := range small {
		if large.Has(v) {
			return true
		}
	}
	return false
}

// Sorted returns the members in ascending order.
func (s IntSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s IntSet) Equal(other IntSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Has(v) {
			return false
		}
	}
	return true
}
