package lexicon

import (
	"fmt"
	"sync"
)

// Hierarchy is the set of categories for one table. Build it with Define and
// DefineRoot, then call AssignBits once the shape is final.
type Hierarchy struct {
	atoms *AtomTable

	mu     sync.RWMutex
	byName map[string]*Category
	order  []*Category
	frozen bool
}

// NewHierarchy creates an empty hierarchy that interns category names in
// atoms. A nil table gets a private one.
func NewHierarchy(atoms *AtomTable) *Hierarchy {
	if atoms == nil {
		atoms = NewAtomTable()
	}
	return &Hierarchy{
		atoms:  atoms,
		byName: make(map[string]*Category),
	}
}

// Atoms returns the intern table used for category names.
func (h *Hierarchy) Atoms() *AtomTable {
	return h.atoms
}

// Define creates or extends category name with the given immediate
// sub-categories, creating any that do not exist yet.
func (h *Hierarchy) Define(name string, subs ...string) *Category {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.define(name, false, subs)
}

// DefineRoot is Define for a root category.
func (h *Hierarchy) DefineRoot(name string, subs ...string) *Category {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.define(name, true, subs)
}

func (h *Hierarchy) define(name string, root bool, subs []string) *Category {
	c := h.category(name)
	if root {
		c.root = true
	}
	for _, s := range subs {
		sub := h.category(s)
		if !containsCategory(c.subs, sub) {
			c.subs = append(c.subs, sub)
			h.thaw()
		}
	}
	return c
}

func (h *Hierarchy) category(name string) *Category {
	if c, ok := h.byName[name]; ok {
		return c
	}
	c := &Category{Atom: h.atoms.Intern(name)}
	h.byName[name] = c
	h.order = append(h.order, c)
	h.thaw()
	return c
}

// thaw drops published bits after a shape change so subsumption falls back
// to the graph walk until AssignBits runs again.
func (h *Hierarchy) thaw() {
	if !h.frozen {
		return
	}
	for _, c := range h.order {
		c.bits.Store(nil)
	}
	h.frozen = false
}

// Lookup returns the category called name.
func (h *Hierarchy) Lookup(name string) (*Category, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.byName[name]
	return c, ok
}

// Resolve looks up every name, reporting the first unknown one.
func (h *Hierarchy) Resolve(names ...string) ([]*Category, error) {
	out := make([]*Category, 0, len(names))
	for _, n := range names {
		c, ok := h.Lookup(n)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", n)
		}
		out = append(out, c)
	}
	return out, nil
}

// Categories returns all categories in definition order.
func (h *Hierarchy) Categories() []*Category {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Category, len(h.order))
	copy(out, h.order)
	return out
}

// Roots returns the root categories in definition order.
func (h *Hierarchy) Roots() []*Category {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var out []*Category
	for _, c := range h.order {
		if c.root {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of categories.
func (h *Hierarchy) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.order)
}

// Frozen reports whether bits are currently assigned.
func (h *Hierarchy) Frozen() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.frozen
}

// AssignBits gives every category one bit, in definition order, and
// computes each subtree union as the OR over everything reachable through
// sub-category lists.
func (h *Hierarchy) AssignBits() {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.order)
	index := make(map[*Category]int, n)
	for i, c := range h.order {
		index[c] = i
	}

	computed := make([]*categoryBits, n)
	for i, c := range h.order {
		own := newBitset(n)
		own.Set(i)
		subtree := newBitset(n)
		reach(c, func(r *Category) {
			subtree.Set(index[r])
		})
		computed[i] = &categoryBits{index: i, own: own, subtree: subtree}
	}
	for i, c := range h.order {
		c.bits.Store(computed[i])
	}
	h.frozen = true
}

// reach calls fn once for c and every category reachable from it.
func reach(c *Category, fn func(*Category)) {
	seen := map[*Category]struct{}{c: {}}
	stack := []*Category{c}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(top)
		for _, s := range top.subs {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			stack = append(stack, s)
		}
	}
}

func containsCategory(cats []*Category, c *Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}
