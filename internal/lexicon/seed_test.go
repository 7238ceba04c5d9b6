package lexicon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `
words:
  - word: Horse
    categories:
      0: [noun]
  - word: shoe
    categories:
      0: [noun]
      2: [verb]
    variants: [shoo]
`

func TestLoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	h := buildHierarchy()
	lex, err := LoadSeedFile(path, h)
	require.NoError(t, err)
	assert.Equal(t, 2, lex.Len())

	horse, ok := lex.GetWord("horse")
	require.True(t, ok, "seed words are normalized")
	assert.True(t, horse.Known())

	shoe, ok := lex.GetWord("shoe")
	require.True(t, ok)
	assert.Equal(t, []string{"shoo"}, shoe.Variants())
	verb, _ := h.Lookup("verb")
	lvl, _ := shoe.LevelOf(verb)
	assert.Equal(t, Possible, lvl)
}

func TestParseSeed_RejectsUnknownFields(t *testing.T) {
	_, err := ParseSeed([]byte("words:\n  - word: x\n    catgories: {}\n"))
	assert.Error(t, err)
}

func TestParseSeed_RequiresWord(t *testing.T) {
	_, err := ParseSeed([]byte("words:\n  - roots: [x]\n"))
	assert.ErrorContains(t, err, "words[0]: word is required")
}

func TestMemoryLexicon_GetOrCreate(t *testing.T) {
	lex := NewMemoryLexicon()
	w, created := lex.GetOrCreate("new")
	assert.True(t, created)
	again, created := lex.GetOrCreate("new")
	assert.False(t, created)
	assert.Same(t, w, again)

	n := 0
	lex.Range(func(*Word) bool { n++; return true })
	assert.Equal(t, 1, n)
}

func TestSenseName(t *testing.T) {
	assert.Equal(t, "!noun/bank", SenseName("noun", "bank"))
	assert.Equal(t, "!noun/bank/river", SenseName("noun", "bank", "river"))

	cat, word, tail, ok := ParseSenseName("!noun/bank/river/edge")
	require.True(t, ok)
	assert.Equal(t, "noun", cat)
	assert.Equal(t, "bank", word)
	assert.Equal(t, "river/edge", tail)

	_, _, _, ok = ParseSenseName("noun/bank")
	assert.False(t, ok)
	_, _, _, ok = ParseSenseName("!noun")
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "straße", Normalize("  Straße "))
	// "e" + combining acute composes to a single rune.
	assert.Equal(t, "caf\u00e9", Normalize("Cafe\u0301"))
}
