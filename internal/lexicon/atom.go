package lexicon

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Atom is an interned symbol. Two atoms from the same AtomTable are equal
// iff their pointers are equal.
type Atom struct {
	name     string
	value    int64
	hasValue bool
	props    *xsync.MapOf[string, any]
}

func newAtom(name string) *Atom {
	return &Atom{name: name, props: xsync.NewMapOf[string, any]()}
}

// Name returns the symbol text.
func (a *Atom) Name() string {
	return a.name
}

// Value returns the numeric value attached at intern time, if any.
func (a *Atom) Value() (int64, bool) {
	return a.value, a.hasValue
}

// Prop returns a property value.
func (a *Atom) Prop(key string) (any, bool) {
	return a.props.Load(key)
}

// SetProp stores a property value. Safe for concurrent use.
func (a *Atom) SetProp(key string, value any) {
	a.props.Store(key, value)
}

func (a *Atom) String() string {
	return a.name
}

// AtomTable interns atoms by name.
//
// Thread-safety: all methods are safe for concurrent use. Concurrent Intern
// calls for the same name return the same *Atom.
type AtomTable struct {
	atoms *xsync.MapOf[string, *Atom]
}

// NewAtomTable creates an empty table.
func NewAtomTable() *AtomTable {
	return &AtomTable{atoms: xsync.NewMapOf[string, *Atom]()}
}

// Intern returns the atom for name, creating it on first reference.
func (t *AtomTable) Intern(name string) *Atom {
	a, _ := t.atoms.LoadOrCompute(name, func() *Atom {
		return newAtom(name)
	})
	return a
}

// InternValue interns name with a numeric value. The value is only recorded
// when the atom is created by this call; an existing atom keeps its value.
func (t *AtomTable) InternValue(name string, value int64) *Atom {
	a, _ := t.atoms.LoadOrCompute(name, func() *Atom {
		a := newAtom(name)
		a.value = value
		a.hasValue = true
		return a
	})
	return a
}

// Lookup returns an existing atom without creating one.
func (t *AtomTable) Lookup(name string) (*Atom, bool) {
	return t.atoms.Load(name)
}

// Len returns the number of interned atoms.
func (t *AtomTable) Len() int {
	return t.atoms.Size()
}
