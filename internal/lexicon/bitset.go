package lexicon

import "math/bits"

// Bitset is a fixed-width bit-vector sized when a hierarchy is frozen.
type Bitset []uint64

func newBitset(n int) Bitset {
	return make(Bitset, (n+63)/64)
}

// Set sets bit i.
func (b Bitset) Set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

// Test reports whether bit i is set. Out-of-range bits are unset.
func (b Bitset) Test(i int) bool {
	if i < 0 || i/64 >= len(b) {
		return false
	}
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

// Or merges other into b. Both must have the same width.
func (b Bitset) Or(other Bitset) {
	for i := range b {
		if i < len(other) {
			b[i] |= other[i]
		}
	}
}

// Intersects reports whether b and other share a set bit.
func (b Bitset) Intersects(other Bitset) bool {
	n := min(len(b), len(other))
	for i := 0; i < n; i++ {
		if b[i]&other[i] != 0 {
			return true
		}
	}
	return false
}

// Count returns the number of set bits.
func (b Bitset) Count() int {
	c := 0
	for _, w := range b {
		c += bits.OnesCount64(w)
	}
	return c
}
