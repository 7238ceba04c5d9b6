// Package testutil holds shared fixtures for package tests.
package testutil

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/lexicon"
)

// EnglishDir returns the directory holding the English sample tables and
// lexicon.
func EnglishDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "testdata", "english")
}

// EnglishTablesPath returns the path of the English sample tables.
func EnglishTablesPath() string {
	return filepath.Join(EnglishDir(), "tables.cue")
}

// EnglishLexiconPath returns the path of the English sample lexicon.
func EnglishLexiconPath() string {
	return filepath.Join(EnglishDir(), "lexicon.yaml")
}

// LoadEnglish compiles the English sample tables against cat and loads the
// sample lexicon into a fresh MemoryLexicon. The tables must compile
// without warnings.
func LoadEnglish(t testing.TB, cat ir.Catalogue) (*ir.Tables, *lexicon.MemoryLexicon) {
	t.Helper()

	tables, warnings, err := compiler.LoadTables(EnglishTablesPath(), compiler.Options{Catalogue: cat})
	require.NoError(t, err)
	require.Empty(t, warnings, "sample tables should compile cleanly")

	lex, err := lexicon.LoadSeedFile(EnglishLexiconPath(), tables.Hierarchy())
	require.NoError(t, err)
	return tables, lex
}

// MustCompile compiles CUE table source, failing the test on error.
func MustCompile(t testing.TB, src string, cat ir.Catalogue) *ir.Tables {
	t.Helper()

	tables, _, err := compiler.CompileTablesSource("test.cue", []byte(src), compiler.Options{Catalogue: cat})
	require.NoError(t, err)
	return tables
}

// MustSeed builds a lexicon from seed YAML against tables' hierarchy.
func MustSeed(t testing.TB, tables *ir.Tables, seedYAML string) *lexicon.MemoryLexicon {
	t.Helper()

	seed, err := lexicon.ParseSeed([]byte(seedYAML))
	require.NoError(t, err)
	lex, err := seed.Build(tables.Hierarchy())
	require.NoError(t, err)
	return lex
}
