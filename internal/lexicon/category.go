package lexicon

import "sync/atomic"

// Category is an atom that takes part in the category hierarchy.
//
// The sub-category list is written only while the owning Hierarchy is being
// built. The bit-vectors are published atomically by Hierarchy.AssignBits and
// cleared again if the hierarchy changes shape, so readers always see either
// a complete pair or none.
type Category struct {
	*Atom
	subs []*Category
	root bool
	bits atomic.Pointer[categoryBits]
}

type categoryBits struct {
	index   int
	own     Bitset
	subtree Bitset
}

// Subs returns the immediate sub-categories.
func (c *Category) Subs() []*Category {
	out := make([]*Category, len(c.subs))
	copy(out, c.subs)
	return out
}

// IsRoot reports whether c was defined as a root of the hierarchy.
func (c *Category) IsRoot() bool {
	return c.root
}

// Index returns the bit position assigned to c, or -1 before AssignBits.
func (c *Category) Index() int {
	if b := c.bits.Load(); b != nil {
		return b.index
	}
	return -1
}

// OwnBits returns c's own bit-vector, or nil before AssignBits.
func (c *Category) OwnBits() Bitset {
	if b := c.bits.Load(); b != nil {
		return b.own
	}
	return nil
}

// SubtreeBits returns the union of the own bits of c and everything it
// subsumes, or nil before AssignBits.
func (c *Category) SubtreeBits() Bitset {
	if b := c.bits.Load(); b != nil {
		return b.subtree
	}
	return nil
}

// Subsumes reports whether child is parent or one of its transitive
// sub-categories. A nil argument yields false.
//
// When both categories carry bits from the same AssignBits pass the answer
// is a single bit-vector AND; otherwise the sub-category graph is walked.
func Subsumes(parent, child *Category) bool {
	if parent == nil || child == nil {
		return false
	}
	if parent == child {
		return true
	}
	if ok, known := SubsumesBits(parent, child); known {
		return ok
	}
	return SubsumesDFS(parent, child)
}

// SubsumesBits answers subsumption from the bit-vectors alone. known is
// false when either side has no bits assigned.
func SubsumesBits(parent, child *Category) (ok, known bool) {
	if parent == nil || child == nil {
		return false, true
	}
	pb, cb := parent.bits.Load(), child.bits.Load()
	if pb == nil || cb == nil || len(pb.subtree) != len(cb.own) {
		return false, false
	}
	return pb.subtree.Intersects(cb.own), true
}

// SubsumesDFS answers subsumption by walking sub-category lists. The tried
// set makes shared and cyclic structure terminate.
func SubsumesDFS(parent, child *Category) bool {
	if parent == nil || child == nil {
		return false
	}
	tried := make(map[*Category]struct{})
	return subsumesDFS(parent, child, tried)
}

func subsumesDFS(parent, child *Category, tried map[*Category]struct{}) bool {
	if parent == child {
		return true
	}
	if _, seen := tried[parent]; seen {
		return false
	}
	tried[parent] = struct{}{}
	for _, sub := range parent.subs {
		if subsumesDFS(sub, child, tried) {
			return true
		}
	}
	return false
}

// SubsumesAny reports whether parent subsumes at least one of cats.
func SubsumesAny(parent *Category, cats []*Category) bool {
	for _, c := range cats {
		if Subsumes(parent, c) {
			return true
		}
	}
	return false
}
