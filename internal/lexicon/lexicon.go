package lexicon

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// Lexicon is the word lookup the analysis engine consumes. Implementations
// must be safe for concurrent use.
type Lexicon interface {
	GetWord(name string) (*Word, bool)
}

// MemoryLexicon is an in-memory Lexicon.
type MemoryLexicon struct {
	words *xsync.MapOf[string, *Word]
}

// NewMemoryLexicon creates an empty lexicon.
func NewMemoryLexicon() *MemoryLexicon {
	return &MemoryLexicon{words: xsync.NewMapOf[string, *Word]()}
}

// GetWord implements Lexicon.
func (m *MemoryLexicon) GetWord(name string) (*Word, bool) {
	return m.words.Load(name)
}

// GetOrCreate returns the word for name, creating an empty one on first
// reference. created reports whether this call made it.
func (m *MemoryLexicon) GetOrCreate(name string) (w *Word, created bool) {
	w, loaded := m.words.LoadOrCompute(name, func() *Word {
		return NewWord(name)
	})
	return w, !loaded
}

// Add stores w, replacing any word with the same name.
func (m *MemoryLexicon) Add(w *Word) {
	m.words.Store(w.Name(), w)
}

// Len returns the number of words.
func (m *MemoryLexicon) Len() int {
	return m.words.Size()
}

// Range calls fn for every word until fn returns false.
func (m *MemoryLexicon) Range(fn func(w *Word) bool) {
	m.words.Range(func(_ string, w *Word) bool {
		return fn(w)
	})
}
