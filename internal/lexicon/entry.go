package lexicon

import (
	"errors"
	"fmt"
	"sort"
)

// Entry is the detached form of a Word. Category references are stored by
// name so an Entry can be persisted and later reconstituted against a
// Hierarchy.
type Entry struct {
	Word          string             `json:"word" yaml:"word"`
	Categories    map[Level][]string `json:"categories,omitempty" yaml:"categories,omitempty"`
	Roots         []string           `json:"roots,omitempty" yaml:"roots,omitempty"`
	Prefixes      []string           `json:"prefixes,omitempty" yaml:"prefixes,omitempty"`
	Suffixes      []string           `json:"suffixes,omitempty" yaml:"suffixes,omitempty"`
	CompoundOf    [][]string         `json:"compound_of,omitempty" yaml:"compound_of,omitempty"`
	Variants      []string           `json:"variants,omitempty" yaml:"variants,omitempty"`
	Abbreviations []string           `json:"abbreviations,omitempty" yaml:"abbreviations,omitempty"`
	Nicknames     []string           `json:"nicknames,omitempty" yaml:"nicknames,omitempty"`
	Properties    map[string]any     `json:"properties,omitempty" yaml:"properties,omitempty"`
	Guessed       bool               `json:"guessed,omitempty" yaml:"guessed,omitempty"`
}

// Crush detaches the word into an Entry. The word itself is left intact.
func (w *Word) Crush() Entry {
	s := w.load()
	e := Entry{
		Word:          w.name,
		Roots:         append([]string(nil), s.roots...),
		Prefixes:      append([]string(nil), s.prefixes...),
		Suffixes:      append([]string(nil), s.suffixes...),
		Variants:      append([]string(nil), s.variants...),
		Abbreviations: append([]string(nil), s.abbreviations...),
		Nicknames:     append([]string(nil), s.nicknames...),
		Guessed:       s.guessed,
	}
	for l := range s.levels {
		if len(s.levels[l]) == 0 {
			continue
		}
		if e.Categories == nil {
			e.Categories = make(map[Level][]string)
		}
		for _, c := range s.levels[l] {
			e.Categories[Level(l)] = append(e.Categories[Level(l)], c.Name())
		}
	}
	for _, parts := range s.compoundOf {
		e.CompoundOf = append(e.CompoundOf, append([]string(nil), parts...))
	}
	w.props.Range(func(k string, v any) bool {
		if e.Properties == nil {
			e.Properties = make(map[string]any)
		}
		e.Properties[k] = v
		return true
	})
	return e
}

// Reconstitute rebuilds a Word from an Entry. Category names missing from h
// are skipped and reported in the returned error; the word is still usable.
func Reconstitute(e Entry, h *Hierarchy) (*Word, error) {
	w := NewWord(e.Word)
	var errs []error

	levels := make([]Level, 0, len(e.Categories))
	for l := range e.Categories {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })

	w.update(func(s *wordState) bool {
		for _, l := range levels {
			if !l.Valid() {
				errs = append(errs, fmt.Errorf("%s: invalid penalty level %d", e.Word, l))
				continue
			}
			for _, name := range e.Categories[l] {
				c, ok := h.Lookup(name)
				if !ok {
					errs = append(errs, fmt.Errorf("%s: unknown category %q", e.Word, name))
					continue
				}
				if _, dup := levelOf(s, c); dup {
					continue
				}
				s.levels[l] = append(s.levels[l], c)
			}
		}
		s.roots = append(s.roots, e.Roots...)
		s.prefixes = append(s.prefixes, e.Prefixes...)
		s.suffixes = append(s.suffixes, e.Suffixes...)
		for _, parts := range e.CompoundOf {
			s.compoundOf = append(s.compoundOf, append([]string(nil), parts...))
		}
		s.variants = append(s.variants, e.Variants...)
		s.abbreviations = append(s.abbreviations, e.Abbreviations...)
		s.nicknames = append(s.nicknames, e.Nicknames...)
		s.guessed = e.Guessed
		return true
	})
	for k, v := range e.Properties {
		w.SetProp(k, v)
	}
	return w, errors.Join(errs...)
}

func levelOf(s *wordState, c *Category) (Level, bool) {
	for l := range s.levels {
		if indexCategory(s.levels[l], c) >= 0 {
			return Level(l), true
		}
	}
	return 0, false
}
