package ecs

import (
	"math/bits"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

const wordBits = 64

// Bitmask is a set of component type bits backed by a bitset.BitSet. It grows
// as needed, so the number of registered component types is not capped by an
// integer width.
//
// Bitmask values are treated as immutable: every operation returns a new
// value and never writes through to its operands. The zero value is empty,
// and a mask whose last bit is cleared goes back to the zero value.
type Bitmask struct {
	set *bitset.BitSet
}

// BitAt returns a bitmask with only bit n set.
func BitAt(n int) Bitmask {
	return Bitmask{set: bitset.New(uint(n) + 1).Set(uint(n))}
}

func wrap(s *bitset.BitSet) Bitmask {
	if s == nil || s.None() {
		return Bitmask{}
	}
	return Bitmask{set: s}
}

func (b Bitmask) words() []uint64 {
	if b.set == nil {
		return nil
	}
	return b.set.Bytes()
}

// IsZero reports whether no bits are set.
func (b Bitmask) IsZero() bool {
	return b.set == nil
}

// Has reports whether bit n is set.
func (b Bitmask) Has(n int) bool {
	return b.set != nil && b.set.Test(uint(n))
}

// Or returns the union of b and o.
func (b Bitmask) Or(o Bitmask) Bitmask {
	switch {
	case b.set == nil:
		return o
	case o.set == nil:
		return b
	}
	return Bitmask{set: b.set.Union(o.set)}
}

// And returns the intersection of b and o.
func (b Bitmask) And(o Bitmask) Bitmask {
	if b.set == nil || o.set == nil {
		return Bitmask{}
	}
	return wrap(b.set.Intersection(o.set))
}

// AndNot returns the bits of b that are not set in o.
func (b Bitmask) AndNot(o Bitmask) Bitmask {
	if b.set == nil || o.set == nil {
		return b
	}
	return wrap(b.set.Difference(o.set))
}

// Intersects reports whether b and o share at least one bit.
func (b Bitmask) Intersects(o Bitmask) bool {
	if b.set == nil || o.set == nil {
		return false
	}
	return b.set.IntersectionCardinality(o.set) > 0
}

// ContainsAll reports whether every bit of o is set in b.
func (b Bitmask) ContainsAll(o Bitmask) bool {
	if o.set == nil {
		return true
	}
	return b.set != nil && b.set.IsSuperSet(o.set)
}

// Equal reports whether b and o hold the same bits. The backing sets may
// differ in length.
func (b Bitmask) Equal(o Bitmask) bool {
	if b.set == nil || o.set == nil {
		return b.set == o.set
	}
	return b.set.SymmetricDifferenceCardinality(o.set) == 0
}

// MaskedEqual reports whether b & selector == value without allocating.
func (b Bitmask) MaskedEqual(selector, value Bitmask) bool {
	have, sel, want := b.words(), selector.words(), value.words()
	for i := range max(len(sel), len(want)) {
		var got, exp uint64
		if i < len(sel) && i < len(have) {
			got = have[i] & sel[i]
		}
		if i < len(want) {
			exp = want[i]
		}
		if got != exp {
			return false
		}
	}
	return true
}

// Count returns the number of set bits.
func (b Bitmask) Count() int {
	if b.set == nil {
		return 0
	}
	return int(b.set.Count())
}

// Len returns the index of the highest set bit plus one.
func (b Bitmask) Len() int {
	words := b.words()
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] != 0 {
			return i*wordBits + bits.Len64(words[i])
		}
	}
	return 0
}

// ForEach calls fn with the index of each set bit in ascending order.
func (b Bitmask) ForEach(fn func(n int)) {
	if b.set == nil {
		return
	}
	for i, ok := b.set.NextSet(0); ok; i, ok = b.set.NextSet(i + 1) {
		fn(int(i))
	}
}

// String renders the mask in binary, most significant bit first.
func (b Bitmask) String() string {
	return b.format(b.Len())
}

func (b Bitmask) format(width int) string {
	if width == 0 {
		return "0"
	}
	var sb strings.Builder
	sb.Grow(width)
	for i := width - 1; i >= 0; i-- {
		if b.Has(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
