package ir

import (
	"sort"
	"strings"

	"github.com/roach88/morph/internal/lexicon"
)

// RuleSet is an ordered list of rules selected together, usually because
// the words they apply to share an ending.
type RuleSet struct {
	Name string `json:"name"`
	// Suffix is the selection key. Empty for sets reachable only by name or
	// as the default.
	Suffix string `json:"suffix,omitempty"`
	// Category is recorded on a word when one of the rules is accepted.
	Category *lexicon.Category `json:"-"`
	// Root, when set, must subsume a category of the proposed root word.
	Root    *lexicon.Category `json:"-"`
	Penalty lexicon.Level     `json:"penalty"`
	Rules   []*Rule           `json:"rules"`
}

// Tables is the immutable bundle one analysis engine runs against.
type Tables struct {
	hierarchy *lexicon.Hierarchy
	sets      map[string]*RuleSet
	order     []*RuleSet
	bySuffix  []*RuleSet
	def       *RuleSet
	rules     map[string]*Rule
	compound  *CompoundConfig
}

// NewTables indexes compiled rule sets. sets keeps declaration order;
// def may be nil; rules holds the named single rules TRY actions use.
func NewTables(h *lexicon.Hierarchy, sets []*RuleSet, def *RuleSet, rules map[string]*Rule, compound *CompoundConfig) *Tables {
	t := &Tables{
		hierarchy: h,
		sets:      make(map[string]*RuleSet, len(sets)),
		def:       def,
		rules:     make(map[string]*Rule, len(rules)),
		compound:  compound,
	}
	for _, s := range sets {
		t.sets[s.Name] = s
		t.order = append(t.order, s)
		if s.Suffix != "" {
			t.bySuffix = append(t.bySuffix, s)
		}
	}
	if def != nil {
		t.sets[def.Name] = def
	}
	// Longest key first; ties keep declaration order.
	sort.SliceStable(t.bySuffix, func(i, j int) bool {
		return len(t.bySuffix[i].Suffix) > len(t.bySuffix[j].Suffix)
	})
	for name, r := range rules {
		t.rules[name] = r
	}
	if t.compound == nil {
		t.compound = &CompoundConfig{}
	}
	return t
}

// Hierarchy returns the category hierarchy the tables were compiled against.
func (t *Tables) Hierarchy() *lexicon.Hierarchy {
	return t.hierarchy
}

// RuleSet returns the rule set called name.
func (t *Tables) RuleSet(name string) (*RuleSet, bool) {
	s, ok := t.sets[name]
	return s, ok
}

// RuleSets returns the rule sets in declaration order, default excluded.
func (t *Tables) RuleSets() []*RuleSet {
	return append([]*RuleSet(nil), t.order...)
}

// Default returns the fallback rule set, or nil.
func (t *Tables) Default() *RuleSet {
	return t.def
}

// Rule returns the named single rule.
func (t *Tables) Rule(name string) (*Rule, bool) {
	r, ok := t.rules[name]
	return r, ok
}

// RuleNames returns the named single rules, sorted.
func (t *Tables) RuleNames() []string {
	names := make([]string, 0, len(t.rules))
	for n := range t.rules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Compound returns the compound decomposition configuration. Never nil.
func (t *Tables) Compound() *CompoundConfig {
	return t.compound
}

// Candidates returns the rule sets to try for word: every set whose suffix
// key ends the word, longest key first, then the default set.
func (t *Tables) Candidates(word string) []*RuleSet {
	var out []*RuleSet
	for _, s := range t.bySuffix {
		if strings.HasSuffix(word, s.Suffix) {
			out = append(out, s)
		}
	}
	if t.def != nil {
		out = append(out, t.def)
	}
	return out
}
