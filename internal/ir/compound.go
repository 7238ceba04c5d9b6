package ir

import (
	"strings"

	"github.com/roach88/morph/internal/lexicon"
)

// CompoundResult is one action of a compound rule: record a category on the
// compound word. Binding 1 or 2 means "the category the left or right half
// matched with" and leaves Category nil.
type CompoundResult struct {
	Category *lexicon.Category
	Binding  int
	Penalty  lexicon.Level
}

// CompoundRule pairs a category pattern for the two halves of a compound
// with the categories the whole word receives.
type CompoundRule struct {
	Source  string
	Left    *lexicon.Category
	Right   *lexicon.Category
	Results []CompoundResult
}

// DefaultCompoundMinLength is the shortest word a split is attempted on.
const DefaultCompoundMinLength = 5

// CompoundConfig holds the compound rules and the screens applied to
// candidate halves.
type CompoundConfig struct {
	Rules           []*CompoundRule
	LeftExceptions  map[string]struct{}
	RightExceptions map[string]struct{}
	IllegalPrefixes []string
	IllegalSuffixes []string
	IllegalRoots    map[string]struct{}
	// Vowels is the syllabicity class: a plausible half contains one.
	Vowels string
	// Inflections are categories of inflected forms (plural, past, -en)
	// that the first pass refuses as halves.
	Inflections []*lexicon.Category
	// Names is the proper-name category. Splits whose halves are both names
	// are deferred to the last pass.
	Names     *lexicon.Category
	MinLength int
}

// MinLen returns MinLength or its default.
func (c *CompoundConfig) MinLen() int {
	if c.MinLength > 0 {
		return c.MinLength
	}
	return DefaultCompoundMinLength
}

// LeftException reports whether s may not be the left half of a compound.
func (c *CompoundConfig) LeftException(s string) bool {
	_, ok := c.LeftExceptions[s]
	return ok
}

// RightException reports whether s may not be the right half of a compound.
func (c *CompoundConfig) RightException(s string) bool {
	_, ok := c.RightExceptions[s]
	return ok
}

// Plausible is the word-shape screen for a candidate half: it must contain
// a vowel, must not start with an illegal prefix or end with an illegal
// suffix, and must not be an illegal root.
func (c *CompoundConfig) Plausible(s string) bool {
	if s == "" {
		return false
	}
	if c.Vowels != "" && !strings.ContainsAny(s, c.Vowels) {
		return false
	}
	for _, p := range c.IllegalPrefixes {
		if strings.HasPrefix(s, p) {
			return false
		}
	}
	for _, sfx := range c.IllegalSuffixes {
		if strings.HasSuffix(s, sfx) {
			return false
		}
	}
	_, illegal := c.IllegalRoots[s]
	return !illegal
}
