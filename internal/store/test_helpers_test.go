package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/morph/internal/lexicon"
)

// testHierarchy builds a small frozen category hierarchy.
func testHierarchy() *lexicon.Hierarchy {
	h := lexicon.NewHierarchy(nil)
	h.DefineRoot("word", "noun", "verb")
	h.Define("noun", "plural")
	h.AssignBits()
	return h
}

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, testHierarchy(), opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestWord creates a word with one category per level given.
func createTestWord(t *testing.T, h *lexicon.Hierarchy, name string, cats map[lexicon.Level]string) *lexicon.Word {
	t.Helper()
	w := lexicon.NewWord(name)
	for level, cat := range cats {
		c, ok := h.Lookup(cat)
		if !ok {
			t.Fatalf("unknown category %q", cat)
		}
		w.AddCategory(c, level)
	}
	return w
}
