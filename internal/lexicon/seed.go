package lexicon

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Seed is the YAML form of a lexicon file: a list of entries.
//
//	words:
//	  - word: horse
//	    categories: {0: [noun]}
//	  - word: shoe
//	    categories: {0: [noun, verb]}
type Seed struct {
	Words []Entry `yaml:"words"`
}

// ParseSeed decodes seed YAML. Unknown fields are rejected so typos in hand
// written files surface early.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	for i, e := range s.Words {
		if e.Word == "" {
			return nil, fmt.Errorf("words[%d]: word is required", i)
		}
	}
	return &s, nil
}

// LoadSeedFile reads a seed file and builds a MemoryLexicon against h.
// Entries with unknown category names are still loaded; the problems are
// returned joined in the error alongside the lexicon.
func LoadSeedFile(path string, h *Hierarchy) (*MemoryLexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	return seed.Build(h)
}

// Build reconstitutes every entry into a new MemoryLexicon.
func (s *Seed) Build(h *Hierarchy) (*MemoryLexicon, error) {
	lex := NewMemoryLexicon()
	var errs []error
	for _, e := range s.Words {
		e.Word = Normalize(e.Word)
		w, err := Reconstitute(e, h)
		if err != nil {
			errs = append(errs, err)
		}
		lex.Add(w)
	}
	return lex, errors.Join(errs...)
}
