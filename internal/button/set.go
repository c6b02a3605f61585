package button

import (
	"sort"
	"strings"
)

// Set is an order-free collection of buttons, used for chord
// membership. The representation is a bitmask so equality and subset
// checks are single integer operations.
type Set uint32

// NewSet builds a set from the given buttons. Invalid buttons are
// ignored.
func NewSet(buttons ...Button) Set {
	var s Set
	for _, b := range buttons {
		s = s.Add(b)
	}
	return s
}

// Add returns the set with b included.
func (s Set) Add(b Button) Set {
	if !b.Valid() {
		return s
	}
	return s | 1<<uint(b)
}

// Remove returns the set with b excluded.
func (s Set) Remove(b Button) Set {
	if !b.Valid() {
		return s
	}
	return s &^ (1 << uint(b))
}

// Contains reports whether b is in the set.
func (s Set) Contains(b Button) bool {
	return s&(1<<uint(b)) != 0
}

// Len returns the number of buttons in the set.
func (s Set) Len() int {
	n := 0
	for v := s; v != 0; v &= v - 1 {
		n++
	}
	return n
}

// IsEmpty reports whether the set contains no buttons.
func (s Set) IsEmpty() bool {
	return s == 0
}

// ContainsAll reports whether every button of other is in s.
func (s Set) ContainsAll(other Set) bool {
	return s&other == other
}

// Buttons returns the members in declaration order.
func (s Set) Buttons() []Button {
	out := make([]Button, 0, s.Len())
	for b := A; b < buttonCount; b++ {
		if s.Contains(b) {
			out = append(out, b)
		}
	}
	return out
}

// String returns the members joined by "+", e.g. "a+leftBumper".
func (s Set) String() string {
	members := s.Buttons()
	names := make([]string, len(members))
	for i, b := range members {
		names[i] = b.String()
	}
	sort.Strings(names)
	return strings.Join(names, "+")
}
