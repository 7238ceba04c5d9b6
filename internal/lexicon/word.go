package lexicon

import (
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// Level is the confidence tier at which a category is recorded on a word.
type Level int

const (
	Likely     Level = 0
	Plausible  Level = 1
	Possible   Level = 2
	Unlikely   Level = 3
	NumLevels        = 4
)

// Valid reports whether l is one of the four penalty levels.
func (l Level) Valid() bool {
	return l >= Likely && l < NumLevels
}

// Word is a lexicon entry.
//
// Category sets and derivational links live in an immutable snapshot that is
// replaced with compare-and-swap. Every mutator is therefore atomic with
// respect to other mutators and readers: moving a category from one level to
// another is never observed half done. Properties are kept separately in a
// concurrent map.
type Word struct {
	name    string
	scratch bool
	state   atomic.Pointer[wordState]
	props   *xsync.MapOf[string, any]
}

type wordState struct {
	levels        [NumLevels][]*Category
	roots         []string
	prefixes      []string
	suffixes      []string
	compoundOf    [][]string
	variants      []string
	abbreviations []string
	nicknames     []string
	guessed       bool
}

// NewWord creates an empty word.
func NewWord(name string) *Word {
	w := &Word{name: name, props: xsync.NewMapOf[string, any]()}
	w.state.Store(&wordState{})
	return w
}

// NewScratchWord creates a transient word for a string the lexicon does not
// know. Scratch words live only as long as the analysis that made them.
func NewScratchWord(name string) *Word {
	w := NewWord(name)
	w.scratch = true
	return w
}

// Name returns the word string.
func (w *Word) Name() string {
	return w.name
}

// IsScratch reports whether w was created for a single analysis.
func (w *Word) IsScratch() bool {
	return w.scratch
}

func (w *Word) load() *wordState {
	return w.state.Load()
}

// update applies fn to a private copy of the current snapshot and publishes
// it, retrying if another writer got there first.
func (w *Word) update(fn func(s *wordState) bool) {
	for {
		old := w.state.Load()
		next := old.clone()
		if !fn(next) {
			return
		}
		if w.state.CompareAndSwap(old, next) {
			return
		}
	}
}

func (s *wordState) clone() *wordState {
	c := &wordState{guessed: s.guessed}
	for i := range s.levels {
		c.levels[i] = append([]*Category(nil), s.levels[i]...)
	}
	c.roots = append([]string(nil), s.roots...)
	c.prefixes = append([]string(nil), s.prefixes...)
	c.suffixes = append([]string(nil), s.suffixes...)
	c.compoundOf = make([][]string, len(s.compoundOf))
	for i, parts := range s.compoundOf {
		c.compoundOf[i] = append([]string(nil), parts...)
	}
	c.variants = append([]string(nil), s.variants...)
	c.abbreviations = append([]string(nil), s.abbreviations...)
	c.nicknames = append([]string(nil), s.nicknames...)
	return c
}

// AddCategory records cat at level, removing it from any other level. It
// reports whether the word changed.
func (w *Word) AddCategory(cat *Category, level Level) bool {
	if cat == nil || !level.Valid() {
		return false
	}
	changed := false
	w.update(func(s *wordState) bool {
		changed = false
		for l := range s.levels {
			if Level(l) == level {
				continue
			}
			if i := indexCategory(s.levels[l], cat); i >= 0 {
				s.levels[l] = append(s.levels[l][:i], s.levels[l][i+1:]...)
				changed = true
			}
		}
		if indexCategory(s.levels[level], cat) < 0 {
			s.levels[level] = append(s.levels[level], cat)
			changed = true
		}
		return changed
	})
	return changed
}

// Promote records cat at level unless the word already holds it at level
// or a more likely one. It reports whether the word changed.
func (w *Word) Promote(cat *Category, level Level) bool {
	if cat == nil || !level.Valid() {
		return false
	}
	changed := false
	w.update(func(s *wordState) bool {
		changed = false
		cur, ok := levelOf(s, cat)
		if ok && cur <= level {
			return false
		}
		if ok {
			i := indexCategory(s.levels[cur], cat)
			s.levels[cur] = append(s.levels[cur][:i], s.levels[cur][i+1:]...)
		}
		s.levels[level] = append(s.levels[level], cat)
		changed = true
		return true
	})
	return changed
}

// RemoveCategory drops cat from whichever level holds it.
func (w *Word) RemoveCategory(cat *Category) {
	w.update(func(s *wordState) bool {
		for l := range s.levels {
			if i := indexCategory(s.levels[l], cat); i >= 0 {
				s.levels[l] = append(s.levels[l][:i], s.levels[l][i+1:]...)
				return true
			}
		}
		return false
	})
}

// Categories returns the categories recorded at level.
func (w *Word) Categories(level Level) []*Category {
	if !level.Valid() {
		return nil
	}
	s := w.load()
	return append([]*Category(nil), s.levels[level]...)
}

// CategoriesUpTo returns the categories recorded at levels 0..max.
func (w *Word) CategoriesUpTo(max Level) []*Category {
	s := w.load()
	var out []*Category
	for l := Likely; l <= max && l < NumLevels; l++ {
		out = append(out, s.levels[l]...)
	}
	return out
}

// AllCategories returns every recorded category, most likely first.
func (w *Word) AllCategories() []*Category {
	return w.CategoriesUpTo(Unlikely)
}

// LevelOf returns the level cat is recorded at.
func (w *Word) LevelOf(cat *Category) (Level, bool) {
	s := w.load()
	for l := range s.levels {
		if indexCategory(s.levels[l], cat) >= 0 {
			return Level(l), true
		}
	}
	return 0, false
}

// IsA reports whether any category at levels 0..max is subsumed by parent.
func (w *Word) IsA(parent *Category, max Level) bool {
	return SubsumesAny(parent, w.CategoriesUpTo(max))
}

// Known reports whether the word carries any category at all.
func (w *Word) Known() bool {
	s := w.load()
	for l := range s.levels {
		if len(s.levels[l]) > 0 {
			return true
		}
	}
	return false
}

// Guessable reports whether the word has no category at the likely or
// plausible levels, which leaves it eligible for guessed marking.
func (w *Word) Guessable() bool {
	s := w.load()
	return len(s.levels[Likely]) == 0 && len(s.levels[Plausible]) == 0
}

// MarkGuessed flags the word as having been categorized by guessing.
func (w *Word) MarkGuessed() {
	w.update(func(s *wordState) bool {
		if s.guessed {
			return false
		}
		s.guessed = true
		return true
	})
}

// Guessed reports whether MarkGuessed was called.
func (w *Word) Guessed() bool {
	return w.load().guessed
}

// AddRoot records a root word string.
func (w *Word) AddRoot(root string) {
	w.addString(root, func(s *wordState) *[]string { return &s.roots })
}

// AddPrefix records a stripped prefix.
func (w *Word) AddPrefix(p string) {
	w.addString(p, func(s *wordState) *[]string { return &s.prefixes })
}

// AddSuffix records a stripped suffix.
func (w *Word) AddSuffix(sfx string) {
	w.addString(sfx, func(s *wordState) *[]string { return &s.suffixes })
}

// AddVariant records a spelling variant.
func (w *Word) AddVariant(v string) {
	w.addString(v, func(s *wordState) *[]string { return &s.variants })
}

// AddAbbreviation records an abbreviation of the word.
func (w *Word) AddAbbreviation(a string) {
	w.addString(a, func(s *wordState) *[]string { return &s.abbreviations })
}

// AddNickname records a nickname.
func (w *Word) AddNickname(n string) {
	w.addString(n, func(s *wordState) *[]string { return &s.nicknames })
}

func (w *Word) addString(v string, field func(*wordState) *[]string) {
	if v == "" {
		return
	}
	w.update(func(s *wordState) bool {
		f := field(s)
		for _, x := range *f {
			if x == v {
				return false
			}
		}
		*f = append(*f, v)
		return true
	})
}

// AddCompound records that the word is the concatenation of parts.
func (w *Word) AddCompound(parts ...string) {
	if len(parts) == 0 {
		return
	}
	w.update(func(s *wordState) bool {
		for _, existing := range s.compoundOf {
			if equalStrings(existing, parts) {
				return false
			}
		}
		s.compoundOf = append(s.compoundOf, append([]string(nil), parts...))
		return true
	})
}

func (w *Word) Roots() []string         { return append([]string(nil), w.load().roots...) }
func (w *Word) Prefixes() []string      { return append([]string(nil), w.load().prefixes...) }
func (w *Word) Suffixes() []string      { return append([]string(nil), w.load().suffixes...) }
func (w *Word) Variants() []string      { return append([]string(nil), w.load().variants...) }
func (w *Word) Abbreviations() []string { return append([]string(nil), w.load().abbreviations...) }
func (w *Word) Nicknames() []string     { return append([]string(nil), w.load().nicknames...) }

// CompoundOf returns the recorded decompositions.
func (w *Word) CompoundOf() [][]string {
	s := w.load()
	out := make([][]string, len(s.compoundOf))
	for i, parts := range s.compoundOf {
		out[i] = append([]string(nil), parts...)
	}
	return out
}

// Prop returns a free-form property.
func (w *Word) Prop(key string) (any, bool) {
	return w.props.Load(key)
}

// SetProp stores a free-form property.
func (w *Word) SetProp(key string, value any) {
	w.props.Store(key, value)
}

// Senses returns a sense name for every category at the likely level.
func (w *Word) Senses() []string {
	cats := w.Categories(Likely)
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, SenseName(c.Name(), w.name))
	}
	return out
}

func (w *Word) String() string {
	return w.name
}

func indexCategory(cats []*Category, c *Category) int {
	for i, x := range cats {
		if x == c {
			return i
		}
	}
	return -1
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
